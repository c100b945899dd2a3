package image

import (
	"context"

	"github.com/peteworth/creative-automation-pipeline/internal/providers/firefly"
)

// fireflyClient is the subset of the Firefly client the generator needs.
type fireflyClient interface {
	GenerateImage(ctx context.Context, req firefly.ImageRequest) (*firefly.ImageAsset, error)
	HasCredentials() bool
}

// FireflyGenerator adapts the Firefly client to the Generator contract.
// When the client lacks credentials it delegates to the fallback generator,
// which keeps local and demo environments working without Adobe keys.
type FireflyGenerator struct {
	client   fireflyClient
	fallback Generator
}

// NewFireflyGenerator wires the client with an optional fallback.
func NewFireflyGenerator(client fireflyClient, fallback Generator) *FireflyGenerator {
	return &FireflyGenerator{client: client, fallback: fallback}
}

func (g *FireflyGenerator) Generate(ctx context.Context, req GenerateRequest) (*Asset, error) {
	if g.client == nil || !g.client.HasCredentials() {
		if g.fallback != nil {
			return g.fallback.Generate(ctx, req)
		}
		return nil, GenerationError(firefly.ErrMissingCredentials)
	}
	asset, err := g.client.GenerateImage(ctx, firefly.ImageRequest{
		Prompt:    req.Prompt,
		Locale:    req.Locale,
		RequestID: req.RequestID,
	})
	if err != nil {
		return nil, GenerationError(err)
	}
	return &Asset{
		URL:    asset.URL,
		Format: asset.Format,
		Width:  asset.Width,
		Height: asset.Height,
		Data:   asset.Data,
	}, nil
}

var _ Generator = (*FireflyGenerator)(nil)
