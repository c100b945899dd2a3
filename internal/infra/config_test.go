package infra

import (
	"strings"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("INTAKE_DIR", "")
	t.Setenv("ASSET_STORE", "")
	t.Setenv("PIPELINE_WORKERS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.IntakeDir != "START" {
		t.Fatalf("IntakeDir mismatch: got %q want %q", cfg.IntakeDir, "START")
	}
	if cfg.AssetStore != "file" {
		t.Fatalf("AssetStore mismatch: got %q want %q", cfg.AssetStore, "file")
	}
	if cfg.Workers != 1 {
		t.Fatalf("Workers mismatch: got %d want 1", cfg.Workers)
	}
}

func TestLoadConfigClampsWorkerCount(t *testing.T) {
	t.Setenv("PIPELINE_WORKERS", "-3")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Workers != 1 {
		t.Fatalf("Workers mismatch: got %d want 1", cfg.Workers)
	}
}

func TestValidateCredentialsReportsMissingVariables(t *testing.T) {
	cfg := &Config{AssetStore: "http"}

	err := cfg.ValidateCredentials()
	if err == nil {
		t.Fatal("expected error for empty credentials")
	}
	for _, name := range []string{"ADOBE_CLIENT_ID", "BANNERBEAR_API_KEY", "ASSET_STORE_BASE_URL"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("error %q does not mention %s", err, name)
		}
	}
}

func TestValidateCredentialsSkippedInMockMode(t *testing.T) {
	cfg := &Config{MockMode: true}
	if err := cfg.ValidateCredentials(); err != nil {
		t.Fatalf("mock mode should not require credentials: %v", err)
	}
}
