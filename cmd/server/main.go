package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/metalpromo/coin-design/api"
	"github.com/metalpromo/coin-design/internal/config"
	"github.com/metalpromo/coin-design/internal/crm"
	"github.com/metalpromo/coin-design/internal/imagegen"
	"github.com/metalpromo/coin-design/internal/store"
)

var (
	osExit                 = os.Exit
	stderrWriter io.Writer = os.Stderr

	loadConfig = config.Load
	openStore  = store.Open
	newServer  = api.NewServer
	runServer  = (*api.Server).Run

	newGenerator = func(cfg *config.Config) imagegen.Generator {
		return imagegen.NewOpenAIGenerator(cfg.Images.APIKey, cfg.Images.BaseURL, cfg.Images.Model, cfg.Images.Size)
	}
	newCRMClient = func(cfg *config.Config) *crm.Client {
		return crm.New(crm.Options{
			BaseURL:      cfg.CRM.BaseURL,
			TokenURL:     cfg.CRM.TokenURL,
			ClientID:     cfg.CRM.ClientID,
			ClientSecret: cfg.CRM.ClientSecret,
			RefreshToken: cfg.CRM.RefreshToken,
		})
	}
)

func main() {
	osExit(runMain(os.Args[1:]))
}

func runMain(args []string) int {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(stderrWriter)

	var addr string
	var configPath string
	fs.StringVar(&addr, "addr", ":8080", "listen address")
	fs.StringVar(&configPath, "config", config.DefaultPath, "path to config file")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}

	st, err := openStore(cfg)
	if err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}
	defer func() { _ = st.Close() }()

	srv, err := newServer(cfg, st, buildGenerator(cfg), buildCRMClient(cfg))
	if err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}
	if err := runServer(srv, addr); err != nil {
		fmt.Fprintln(stderrWriter, err)
		return 1
	}

	return 0
}

// buildGenerator returns nil when no image API key is configured; the server
// then serves templates and compile only.
func buildGenerator(cfg *config.Config) imagegen.Generator {
	if cfg == nil || strings.TrimSpace(cfg.Images.APIKey) == "" {
		return nil
	}
	return newGenerator(cfg)
}

// buildCRMClient returns nil unless the full OAuth credential set is present.
func buildCRMClient(cfg *config.Config) *crm.Client {
	if cfg == nil {
		return nil
	}
	for _, v := range []string{cfg.CRM.ClientID, cfg.CRM.ClientSecret, cfg.CRM.RefreshToken} {
		if strings.TrimSpace(v) == "" {
			return nil
		}
	}
	return newCRMClient(cfg)
}
