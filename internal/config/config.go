package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	Images     ImagesConfig     `yaml:"images"`
	CRM        CRMConfig        `yaml:"crm"`
	Generation GenerationConfig `yaml:"generation"`
	Storage    StorageConfig    `yaml:"storage"`
}

type ImagesConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
	Size    string `yaml:"size,omitempty"`
}

type CRMConfig struct {
	BaseURL      string `yaml:"base_url,omitempty"`
	TokenURL     string `yaml:"token_url,omitempty"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
}

type GenerationConfig struct {
	Concurrency int           `yaml:"concurrency,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

type StorageConfig struct {
	Type string `yaml:"type,omitempty"` // "sqlite" or "memory"
	Path string `yaml:"path,omitempty"` // SQLite file path
}

// Load reads the YAML config, then applies .env and environment overrides.
// The default config file is optional; an explicitly given path is not.
func Load(path string) (*Config, error) {
	// Local development keeps credentials in .env; absence is fine.
	_ = godotenv.Load()

	path = strings.TrimSpace(path)
	usingDefault := path == ""
	if usingDefault {
		path = DefaultPath
	}

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	case os.IsNotExist(err) && (usingDefault || path == DefaultPath):
		// Env-only configuration.
	default:
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		cfg.Images.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("ZOHO_CLIENT_ID")); v != "" {
		cfg.CRM.ClientID = v
	}
	if v := strings.TrimSpace(os.Getenv("ZOHO_CLIENT_SECRET")); v != "" {
		cfg.CRM.ClientSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("ZOHO_REFRESH_TOKEN")); v != "" {
		cfg.CRM.RefreshToken = v
	}
	if v := strings.TrimSpace(os.Getenv("ZOHO_API_BASE_URL")); v != "" {
		cfg.CRM.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("ZOHO_TOKEN_URL")); v != "" {
		cfg.CRM.TokenURL = v
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Images.Model) == "" {
		cfg.Images.Model = "gpt-image-1"
	}
	if strings.TrimSpace(cfg.Images.Size) == "" {
		cfg.Images.Size = "1024x1024"
	}
	if strings.TrimSpace(cfg.CRM.BaseURL) == "" {
		cfg.CRM.BaseURL = "https://www.zohoapis.com"
	}
	if strings.TrimSpace(cfg.CRM.TokenURL) == "" {
		cfg.CRM.TokenURL = "https://accounts.zoho.com/oauth/v2/token"
	}
	if cfg.Generation.Concurrency <= 0 {
		cfg.Generation.Concurrency = 5
	}
	if cfg.Generation.Timeout <= 0 {
		cfg.Generation.Timeout = 2 * time.Minute
	}
}
