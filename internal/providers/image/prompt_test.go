package image

import (
	"context"
	"strings"
	"testing"
)

func TestBuildHeroPromptIncludesBriefFields(t *testing.T) {
	prompt := BuildHeroPrompt(HeroPromptInput{
		Product:         "Straw_Hat",
		CampaignMessage: "See it",
		TargetAudience:  "young adults",
		Locale:          "fr-FR",
	})

	for _, fragment := range []string{
		"Straw Hat",
		`"See it"`,
		"young adults",
		localeQualifiers["fr-FR"],
	} {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("prompt missing %q:\n%s", fragment, prompt)
		}
	}
}

func TestBuildHeroPromptSkipsEmptyFields(t *testing.T) {
	prompt := BuildHeroPrompt(HeroPromptInput{Product: "Mug"})
	if strings.Contains(prompt, "appeal to") {
		t.Errorf("prompt mentions audience without one:\n%s", prompt)
	}
	if strings.Contains(prompt, "campaign theme") {
		t.Errorf("prompt mentions theme without one:\n%s", prompt)
	}
}

func TestLocaleQualifierFallsBackToEnUS(t *testing.T) {
	if LocaleQualifier("xx-XX") != localeQualifiers["en-US"] {
		t.Fatal("unknown locale should use the en-US qualifier")
	}
	if LocaleQualifier("ja-JP") == localeQualifiers["en-US"] {
		t.Fatal("known locale should use its own qualifier")
	}
}

func TestSyntheticGeneratorIsDeterministic(t *testing.T) {
	gen := NewSyntheticGenerator()
	req := GenerateRequest{Prompt: "hat", Locale: "en-US", RequestID: "r1"}

	first, err := gen.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	second, err := gen.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(first.Data) != string(second.Data) {
		t.Fatal("same request should render identical bytes")
	}
	if first.Format != "image/png" || len(first.Data) == 0 {
		t.Fatalf("unexpected asset: format=%s bytes=%d", first.Format, len(first.Data))
	}

	other, err := gen.Generate(context.Background(), GenerateRequest{Prompt: "mug", Locale: "en-US", RequestID: "r1"})
	if err != nil {
		t.Fatal(err)
	}
	if string(other.Data) == string(first.Data) {
		t.Fatal("different prompts should render different bytes")
	}
}
