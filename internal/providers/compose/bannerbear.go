package compose

import (
	"context"
	"errors"

	"github.com/peteworth/creative-automation-pipeline/internal/providers/bannerbear"
)

// bannerbearClient is the subset of the Bannerbear client the composer needs.
type bannerbearClient interface {
	CreateCollection(ctx context.Context, req bannerbear.CollectionRequest) ([]bannerbear.CollectionImage, error)
	Download(ctx context.Context, assetURL string) ([]byte, error)
}

// BannerbearComposer renders renditions through a Bannerbear template
// collection. The collection's templates determine the produced sizes; the
// requested dimensions select which outputs are kept, with an empty request
// keeping everything the collection produced.
type BannerbearComposer struct {
	client bannerbearClient
}

// NewBannerbearComposer wraps a configured client.
func NewBannerbearComposer(client bannerbearClient) *BannerbearComposer {
	return &BannerbearComposer{client: client}
}

func (c *BannerbearComposer) Compose(ctx context.Context, req Request) ([]Rendition, error) {
	if req.HeroImageURL == "" {
		return nil, CompositionError(errors.New("hero image url is required for remote composition"))
	}
	images, err := c.client.CreateCollection(ctx, bannerbear.CollectionRequest{
		Message:      req.OverlayText,
		HeroImageURL: req.HeroImageURL,
		RequestID:    req.RequestID,
	})
	if err != nil {
		return nil, CompositionError(err)
	}

	wanted := make(map[string]bool, len(req.Dimensions))
	for _, d := range req.Dimensions {
		wanted[d.Label()] = true
	}

	renditions := make([]Rendition, 0, len(images))
	for _, img := range images {
		label := Dimension{Width: img.Width, Height: img.Height}.Label()
		if len(wanted) > 0 && !wanted[label] {
			continue
		}
		url, ext := pickFormatURL(img, req.OutputExt)
		if url == "" {
			continue
		}
		data, err := c.client.Download(ctx, url)
		if err != nil {
			return nil, CompositionError(err)
		}
		renditions = append(renditions, Rendition{
			Width:  img.Width,
			Height: img.Height,
			Ext:    ext,
			Data:   data,
		})
	}
	if len(renditions) == 0 {
		return nil, CompositionError(errors.New("no renditions matched the requested format and dimensions"))
	}
	return renditions, nil
}

// pickFormatURL chooses the URL for the requested extension, falling back to
// whichever format the template produced.
func pickFormatURL(img bannerbear.CollectionImage, ext string) (string, string) {
	switch ext {
	case "jpg", "jpeg":
		if img.JPGURL != "" {
			return img.JPGURL, "jpg"
		}
		if img.PNGURL != "" {
			return img.PNGURL, "png"
		}
	default:
		if img.PNGURL != "" {
			return img.PNGURL, "png"
		}
		if img.JPGURL != "" {
			return img.JPGURL, "jpg"
		}
	}
	return "", ""
}

var _ Composer = (*BannerbearComposer)(nil)
