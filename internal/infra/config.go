package infra

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config represents pipeline configuration loaded from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"development"`

	// IntakeDir is the watched directory holding campaign brief JSON files
	// and optional seed hero images.
	IntakeDir string `env:"INTAKE_DIR" envDefault:"START"`

	// WorkDir is the root under which campaign folders are materialized.
	WorkDir string `env:"WORK_DIR" envDefault:"."`

	// RenditionsPath optionally points at a YAML file mapping output formats
	// to rendition dimension sets. Empty means built-in defaults.
	RenditionsPath string `env:"RENDITIONS_CONFIG"`

	// Workers bounds concurrent product processing within one campaign.
	Workers int `env:"PIPELINE_WORKERS" envDefault:"1"`

	// AssetStore selects the store backend: "file" or "http".
	AssetStore    string `env:"ASSET_STORE" envDefault:"file"`
	StorePath     string `env:"ASSET_STORE_PATH" envDefault:"./storage"`
	StoreBaseURL  string `env:"ASSET_STORE_BASE_URL"`
	StoreAPIToken string `env:"ASSET_STORE_API_TOKEN"`

	AdobeClientID     string `env:"ADOBE_CLIENT_ID"`
	AdobeClientSecret string `env:"ADOBE_CLIENT_SECRET"`
	FireflyBaseURL    string `env:"FIREFLY_BASE_URL" envDefault:"https://firefly-api.adobe.io"`
	AdobeIMSBaseURL   string `env:"ADOBE_IMS_BASE_URL" envDefault:"https://ims-na1.adobelogin.com"`

	BannerbearAPIKey       string `env:"BANNERBEAR_API_KEY"`
	BannerbearCollectionID string `env:"BANNERBEAR_COLLECTION_ID"`
	BannerbearBaseURL      string `env:"BANNERBEAR_BASE_URL" envDefault:"https://api.bannerbear.com/v2"`

	// MockMode runs providers against deterministic synthetic assets instead
	// of live APIs. Useful for demos and local development.
	MockMode bool `env:"MOCK_MODE" envDefault:"false"`

	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"60s"`
}

// LoadConfig reads .env files (when present) and parses configuration from
// the environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("infra: parse config: %w", err)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return cfg, nil
}

// ValidateCredentials reports the environment variables that must be set for
// live provider calls. Mock mode needs none of them.
func (c *Config) ValidateCredentials() error {
	if c.MockMode {
		return nil
	}
	var missing []string
	if c.AdobeClientID == "" {
		missing = append(missing, "ADOBE_CLIENT_ID")
	}
	if c.AdobeClientSecret == "" {
		missing = append(missing, "ADOBE_CLIENT_SECRET")
	}
	if c.BannerbearAPIKey == "" {
		missing = append(missing, "BANNERBEAR_API_KEY")
	}
	if c.BannerbearCollectionID == "" {
		missing = append(missing, "BANNERBEAR_COLLECTION_ID")
	}
	if c.AssetStore == "http" && c.StoreBaseURL == "" {
		missing = append(missing, "ASSET_STORE_BASE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("infra: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}
