package image

import (
	"fmt"
	"strings"
)

// localeQualifiers biases prompt phrasing toward a regional aesthetic.
// Unrecognized locales use the en-US phrase.
var localeQualifiers = map[string]string{
	"en-US": "with a contemporary American commercial aesthetic",
	"en-GB": "with an understated British editorial aesthetic",
	"fr-FR": "with an elegant French lifestyle aesthetic",
	"de-DE": "with a precise, minimalist German design aesthetic",
	"es-ES": "with a warm Mediterranean lifestyle aesthetic",
	"it-IT": "with a refined Italian artisanal aesthetic",
	"ja-JP": "with a clean Japanese minimalist aesthetic",
	"pt-BR": "with a vibrant Brazilian lifestyle aesthetic",
}

// LocaleQualifier returns the regional phrasing for a locale code, falling
// back to the en-US phrase for unrecognized codes.
func LocaleQualifier(locale string) string {
	if phrase, ok := localeQualifiers[strings.TrimSpace(locale)]; ok {
		return phrase
	}
	return localeQualifiers["en-US"]
}

// HeroPromptInput carries the brief fields that shape a hero image prompt.
type HeroPromptInput struct {
	Product         string
	CampaignMessage string
	TargetAudience  string
	Locale          string
}

// BuildHeroPrompt converts brief fields into a commercial-photography
// instruction for text-to-image models, biased by the target locale.
func BuildHeroPrompt(in HeroPromptInput) string {
	product := strings.ReplaceAll(strings.TrimSpace(in.Product), "_", " ")
	if product == "" {
		product = "the featured product"
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("Professional commercial photography of %s, modern style, clean background, high quality.", product))

	if message := strings.TrimSpace(in.CampaignMessage); message != "" {
		lines = append(lines, fmt.Sprintf("The campaign theme is %q.", message))
	}
	if audience := strings.TrimSpace(in.TargetAudience); audience != "" {
		lines = append(lines, fmt.Sprintf("Styled to appeal to %s.", audience))
	}
	lines = append(lines, "Compose the shot "+LocaleQualifier(in.Locale)+".")
	lines = append(lines, "Sharp focus, studio lighting, ready for marketing use.")

	return strings.Join(lines, " ")
}
