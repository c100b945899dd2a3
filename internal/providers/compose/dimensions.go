package compose

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// dimensionsFile is the on-disk shape of a rendition configuration: output
// extension to dimension list.
//
//	png:
//	  - width: 1080
//	    height: 1080
//	  - width: 1920
//	    height: 1080
type dimensionsFile map[string][]Dimension

// LoadDimensions reads a YAML rendition configuration. Extensions are kept
// as written; callers look up by the brief's output extension and fall back
// to DefaultDimensions on a miss.
func LoadDimensions(path string) (map[string][]Dimension, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("compose: read dimensions config: %w", err)
	}
	var file dimensionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("compose: parse dimensions config: %w", err)
	}
	for ext, dims := range file {
		for _, d := range dims {
			if d.Width <= 0 || d.Height <= 0 {
				return nil, fmt.Errorf("compose: dimensions config: %s has non-positive size %dx%d", ext, d.Width, d.Height)
			}
		}
	}
	return file, nil
}
