package compose

import (
	"bytes"
	"context"
	"crypto/sha256"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
)

// MockComposer renders deterministic placeholder renditions locally. It
// backs mock mode so the pipeline can run end to end without a Bannerbear
// account.
type MockComposer struct{}

func NewMockComposer() *MockComposer {
	return &MockComposer{}
}

func (m *MockComposer) Compose(ctx context.Context, req Request) ([]Rendition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dims := req.Dimensions
	if len(dims) == 0 {
		dims = DefaultDimensions
	}
	sum := sha256.Sum256(append(req.HeroImage, []byte(req.OverlayText)...))

	ext := req.OutputExt
	if ext == "" {
		ext = "png"
	}
	renditions := make([]Rendition, 0, len(dims))
	for _, d := range dims {
		data, err := renderPlaceholder(d.Width, d.Height, ext, sum)
		if err != nil {
			return nil, CompositionError(err)
		}
		renditions = append(renditions, Rendition{Width: d.Width, Height: d.Height, Ext: ext, Data: data})
	}
	return renditions, nil
}

func renderPlaceholder(width, height int, ext string, sum [32]byte) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := color.RGBA{R: sum[0], G: sum[1], B: sum[2], A: 255}
	band := color.RGBA{R: sum[3], G: sum[4], B: sum[5], A: 255}
	draw.Draw(img, img.Bounds(), &image.Uniform{base}, image.Point{}, draw.Src)

	// A bottom band stands in for the text overlay area.
	overlay := image.Rect(0, height*3/4, width, height)
	draw.Draw(img, overlay, &image.Uniform{band}, image.Point{}, draw.Over)

	var buf bytes.Buffer
	switch ext {
	case "jpg", "jpeg":
		if err := jpeg.Encode(&buf, img, nil); err != nil {
			return nil, err
		}
	default:
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

var _ Composer = (*MockComposer)(nil)
