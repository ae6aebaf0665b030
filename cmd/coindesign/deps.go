package main

import (
	"fmt"
	"strings"

	"github.com/metalpromo/coin-design/internal/config"
	"github.com/metalpromo/coin-design/internal/crm"
	"github.com/metalpromo/coin-design/internal/imagegen"
	"github.com/metalpromo/coin-design/internal/store"
)

var openStore = store.Open

var generatorFromConfig = func(cfg *config.Config) (imagegen.Generator, error) {
	if cfg == nil || strings.TrimSpace(cfg.Images.APIKey) == "" {
		return nil, fmt.Errorf("generate: no image API key configured (set OPENAI_API_KEY or images.api_key)")
	}
	return imagegen.NewOpenAIGenerator(cfg.Images.APIKey, cfg.Images.BaseURL, cfg.Images.Model, cfg.Images.Size), nil
}

var crmFromConfig = func(cfg *config.Config) (*crm.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("order: missing config")
	}
	for _, v := range []string{cfg.CRM.ClientID, cfg.CRM.ClientSecret, cfg.CRM.RefreshToken} {
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("order: CRM credentials not configured (set ZOHO_CLIENT_ID, ZOHO_CLIENT_SECRET, ZOHO_REFRESH_TOKEN)")
		}
	}
	return crm.New(crm.Options{
		BaseURL:      cfg.CRM.BaseURL,
		TokenURL:     cfg.CRM.TokenURL,
		ClientID:     cfg.CRM.ClientID,
		ClientSecret: cfg.CRM.ClientSecret,
		RefreshToken: cfg.CRM.RefreshToken,
	}), nil
}
