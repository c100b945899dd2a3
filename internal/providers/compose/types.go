// Package compose defines the composition contract: a hero image plus text
// overlay in, a set of sized renditions out.
package compose

import (
	"context"
	"errors"
	"fmt"
)

// ErrComposition tags composer failures. Composition failures are
// product-fatal but never campaign-fatal.
var ErrComposition = errors.New("composition failed")

// Dimension is one requested output size.
type Dimension struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Label renders the dimension in the {height}x{width} form used in output
// filenames.
func (d Dimension) Label() string {
	return fmt.Sprintf("%dx%d", d.Height, d.Width)
}

// Request describes one composition call. HeroImageURL is the addressable
// location composers that work by reference (Bannerbear) require; HeroImage
// carries the raw bytes for composers that render locally.
type Request struct {
	HeroImage    []byte
	HeroImageURL string
	OverlayText  string
	// OutputExt is the desired file extension: "png" or "jpg".
	OutputExt  string
	Dimensions []Dimension
	RequestID  string
}

// Rendition is one sized output variant.
type Rendition struct {
	Width  int
	Height int
	// Ext is the actual file extension of Data.
	Ext  string
	Data []byte
}

// Label renders the rendition dimension label.
func (r Rendition) Label() string {
	return Dimension{Width: r.Width, Height: r.Height}.Label()
}

// Composer produces the rendition set for one product.
type Composer interface {
	Compose(ctx context.Context, req Request) ([]Rendition, error)
}

// CompositionError wraps err with ErrComposition so that
// errors.Is(err, ErrComposition) holds.
func CompositionError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrComposition, err)
}

// DefaultDimensions is the built-in rendition set used when no dimension
// configuration is provided: square social, landscape, and story formats.
var DefaultDimensions = []Dimension{
	{Width: 1080, Height: 1080},
	{Width: 1920, Height: 1080},
	{Width: 1080, Height: 1920},
}
