package image

import (
	"context"
	"errors"
	"testing"

	"github.com/peteworth/creative-automation-pipeline/internal/providers/firefly"
)

type stubFireflyClient struct {
	asset          *firefly.ImageAsset
	err            error
	hasCredentials bool
	calls          int
	lastReq        firefly.ImageRequest
}

func (s *stubFireflyClient) GenerateImage(ctx context.Context, req firefly.ImageRequest) (*firefly.ImageAsset, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.asset, nil
}

func (s *stubFireflyClient) HasCredentials() bool { return s.hasCredentials }

type stubGenerator struct {
	asset   *Asset
	err     error
	calls   int
	lastReq GenerateRequest
}

func (s *stubGenerator) Generate(ctx context.Context, req GenerateRequest) (*Asset, error) {
	s.calls++
	s.lastReq = req
	return s.asset, s.err
}

func TestFireflyGeneratorFallsBackWhenNoCredentials(t *testing.T) {
	fallback := &stubGenerator{asset: &Asset{URL: "fallback"}}
	client := &stubFireflyClient{hasCredentials: false}

	gen := NewFireflyGenerator(client, fallback)
	asset, err := gen.Generate(context.Background(), GenerateRequest{Prompt: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if asset.URL != "fallback" {
		t.Fatalf("expected fallback asset, got %+v", asset)
	}
	if client.calls != 0 {
		t.Fatal("client should not be called without credentials")
	}
	if fallback.calls != 1 {
		t.Fatalf("fallback calls = %d, want 1", fallback.calls)
	}
}

func TestFireflyGeneratorPassesRequestThrough(t *testing.T) {
	client := &stubFireflyClient{
		hasCredentials: true,
		asset:          &firefly.ImageAsset{URL: "https://cdn/img", Format: "image/jpeg", Width: 2048, Height: 2048, Data: []byte("img")},
	}
	gen := NewFireflyGenerator(client, nil)

	asset, err := gen.Generate(context.Background(), GenerateRequest{Prompt: "hat", Locale: "fr-FR", RequestID: "r-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.lastReq.Locale != "fr-FR" || client.lastReq.RequestID != "r-1" {
		t.Fatalf("request not forwarded: %+v", client.lastReq)
	}
	if asset.Width != 2048 || string(asset.Data) != "img" {
		t.Fatalf("asset not mapped: %+v", asset)
	}
}

func TestFireflyGeneratorWrapsProviderFailure(t *testing.T) {
	client := &stubFireflyClient{hasCredentials: true, err: errors.New("boom")}
	gen := NewFireflyGenerator(client, nil)

	_, err := gen.Generate(context.Background(), GenerateRequest{Prompt: "hat"})
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("error = %v, want ErrGeneration", err)
	}
}
