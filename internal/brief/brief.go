// Package brief parses and validates campaign briefs. A validated Brief is
// immutable: downstream stages read it by reference and never mutate it.
package brief

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLocale is applied when target_region is absent or malformed.
const DefaultLocale = "en-US"

// ErrValidation tags every brief validation failure. Validation failures are
// campaign-fatal; the intake file stays in place for manual correction.
var ErrValidation = errors.New("brief validation failed")

// OutputFormat enumerates supported output file formats.
type OutputFormat string

const (
	FormatPNG  OutputFormat = "PNG"
	FormatJPEG OutputFormat = "JPEG"
)

// Extension returns the on-disk file extension for the format.
func (f OutputFormat) Extension() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return "png"
}

// Brief is the validated, normalized in-memory form of a campaign brief.
type Brief struct {
	Campaign        string
	CampaignKey     string
	TargetRegion    string
	TargetAudience  string
	Products        []string
	CampaignMessage string
	FileFormat      OutputFormat
}

// ProductJob is the per-product unit of work derived from a Brief. Its
// lifetime is a single orchestration pass.
type ProductJob struct {
	CampaignName string
	ProductName  string
	Locale       string
	OverlayText  string
	Format       OutputFormat
}

// Jobs derives one ProductJob per product, in brief order.
func (b *Brief) Jobs() []ProductJob {
	jobs := make([]ProductJob, 0, len(b.Products))
	for _, product := range b.Products {
		jobs = append(jobs, ProductJob{
			CampaignName: b.CampaignKey,
			ProductName:  product,
			Locale:       b.TargetRegion,
			OverlayText:  b.CampaignMessage,
			Format:       b.FileFormat,
		})
	}
	return jobs
}

type rawBrief struct {
	Campaign        string          `json:"campaign"`
	TargetRegion    string          `json:"target_region"`
	TargetAudience  string          `json:"target_audience"`
	Products        json.RawMessage `json:"products"`
	Product         json.RawMessage `json:"product"`
	CampaignMessage string          `json:"campaign_message"`
	FileFormat      string          `json:"file_format"`
}

// ParseFile reads a brief JSON document from disk and validates it.
func ParseFile(path string) (*Brief, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("brief: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes, validates, and normalizes a brief document.
func Parse(data []byte) (*Brief, error) {
	var raw rawBrief
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("brief: invalid JSON: %v: %w", err, ErrValidation)
	}

	campaign := strings.TrimSpace(raw.Campaign)
	if campaign == "" {
		return nil, fmt.Errorf("brief: missing campaign name: %w", ErrValidation)
	}
	campaignKey := CleanName(campaign)
	if campaignKey == "" {
		return nil, fmt.Errorf("brief: campaign name %q has no usable characters: %w", campaign, ErrValidation)
	}

	products, err := decodeProducts(raw.Products, raw.Product)
	if err != nil {
		return nil, err
	}
	if len(products) < 2 {
		return nil, fmt.Errorf("brief: need at least 2 products, got %d: %w", len(products), ErrValidation)
	}

	format, err := normalizeFormat(raw.FileFormat)
	if err != nil {
		return nil, err
	}

	cleaned := make([]string, len(products))
	for i, product := range products {
		cleaned[i] = CleanName(product)
		if cleaned[i] == "" {
			return nil, fmt.Errorf("brief: product name %q has no usable characters: %w", product, ErrValidation)
		}
	}

	return &Brief{
		Campaign:        campaign,
		CampaignKey:     campaignKey,
		TargetRegion:    normalizeLocale(raw.TargetRegion),
		TargetAudience:  strings.TrimSpace(raw.TargetAudience),
		Products:        cleaned,
		CampaignMessage: raw.CampaignMessage,
		FileFormat:      format,
	}, nil
}

// decodeProducts accepts both the "products" key and the legacy "product"
// key the earliest briefs used.
func decodeProducts(primary, legacy json.RawMessage) ([]string, error) {
	source := primary
	if len(source) == 0 {
		source = legacy
	}
	if len(source) == 0 {
		return nil, fmt.Errorf("brief: missing products list: %w", ErrValidation)
	}
	var products []string
	if err := json.Unmarshal(source, &products); err != nil {
		return nil, fmt.Errorf("brief: products must be an array of strings: %w", ErrValidation)
	}
	return products, nil
}

func normalizeFormat(format string) (OutputFormat, error) {
	switch strings.ToUpper(strings.TrimSpace(format)) {
	case "PNG":
		return FormatPNG, nil
	case "JPEG", "JPG":
		return FormatJPEG, nil
	case "":
		return "", fmt.Errorf("brief: missing file_format: %w", ErrValidation)
	default:
		return "", fmt.Errorf("brief: unsupported file_format %q: %w", format, ErrValidation)
	}
}

// normalizeLocale parses target_region as a BCP 47 tag and canonicalizes it.
// Absent or malformed values fall back to the default locale rather than
// failing the brief.
func normalizeLocale(region string) string {
	region = strings.TrimSpace(region)
	if region == "" {
		return DefaultLocale
	}
	tag, err := language.Parse(region)
	if err != nil {
		return DefaultLocale
	}
	return tag.String()
}

// CleanName sanitizes a campaign or product name for use in file names and
// storage keys. Runs of unsupported characters collapse to one underscore.
func CleanName(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}
