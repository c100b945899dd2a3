// Package image defines the hero image generation contract consumed by the
// asset resolver, together with the prompt construction rules shared by all
// providers.
package image

import (
	"context"
	"errors"
	"fmt"
)

// ErrGeneration tags provider failures so callers can classify them without
// knowing which provider was wired in.
var ErrGeneration = errors.New("image generation failed")

// GenerateRequest describes a normalized request passed to any image provider.
type GenerateRequest struct {
	Prompt    string
	Locale    string
	RequestID string
}

// Asset represents one generated hero image.
type Asset struct {
	URL    string
	Format string
	Width  int
	Height int
	Data   []byte
}

// Generator is the contract implemented by all image providers.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*Asset, error)
}

// GenerationError wraps a provider error with ErrGeneration so that
// errors.Is(err, ErrGeneration) holds.
func GenerationError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrGeneration, err)
}
