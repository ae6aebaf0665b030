package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/metalpromo/coin-design/internal/imagegen"
	"github.com/metalpromo/coin-design/internal/prompt"
	"github.com/metalpromo/coin-design/internal/store"
)

type generateOptions struct {
	template string
	theme    string
	location string
	files    []string
	orderID  string
	all      bool
	outDir   string
}

func newGenerateCmd(st *cliState) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate coin artwork from a compiled prompt",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadState(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.template, "template", "", "template id or name")
	cmd.Flags().StringVar(&opts.theme, "theme", "", "design theme")
	cmd.Flags().StringVar(&opts.location, "location", "", "regional or cultural setting")
	cmd.Flags().StringArrayVar(&opts.files, "file", nil, "attached file as name=usage (repeatable)")
	cmd.Flags().StringVar(&opts.orderID, "order", "", "order id to record the designs under")
	cmd.Flags().BoolVar(&opts.all, "all", false, "generate one variation per template")
	cmd.Flags().StringVar(&opts.outDir, "out", "", "directory to save returned images into")

	return cmd
}

func runGenerate(cmd *cobra.Command, st *cliState, opts *generateOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("generate: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("generate: nil options")
	}

	templateID := strings.TrimSpace(opts.template)
	switch {
	case opts.all && templateID != "":
		return fmt.Errorf("generate: --all and --template are mutually exclusive")
	case !opts.all && templateID == "":
		return fmt.Errorf("generate: specify either --template <id> or --all")
	}

	in, err := buildInput(opts.theme, opts.location, opts.files)
	if err != nil {
		return err
	}

	gen, err := generatorFromConfig(st.cfg)
	if err != nil {
		return err
	}

	stor, err := openStore(st.cfg)
	if err != nil {
		return err
	}
	defer func() { _ = stor.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if st.cfg.Generation.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, st.cfg.Generation.Timeout)
		defer cancel()
	}

	var variations []imagegen.Variation
	if opts.all {
		variations, err = imagegen.GenerateVariations(ctx, gen, in, st.cfg.Generation.Concurrency)
		if err != nil {
			return err
		}
	} else {
		compiled, err := prompt.Assemble(templateID, in)
		if err != nil {
			return err
		}
		t, err := prompt.Get(compiled.TemplateID)
		if err != nil {
			return err
		}
		v := imagegen.Variation{
			TemplateID:   compiled.TemplateID,
			TemplateName: t.Name,
			Prompt:       compiled.Text,
		}
		res, genErr := gen.Generate(ctx, &imagegen.Request{Prompt: compiled.Text, Files: in.Files})
		if genErr != nil {
			v.Error = genErr.Error()
		} else {
			v.ImageURL = res.URL
			v.ImageB64 = res.B64JSON
			v.Success = true
		}
		variations = []imagegen.Variation{v}
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, v := range variations {
		record := &store.DesignRecord{
			ID:         uuid.NewString(),
			OrderID:    strings.TrimSpace(opts.orderID),
			TemplateID: v.TemplateID,
			Theme:      in.Theme,
			Location:   in.Location,
			Prompt:     v.Prompt,
			Files:      fileRefs(in.Files),
			ImageURL:   v.ImageURL,
			ImageB64:   v.ImageB64,
			Success:    v.Success,
			Error:      v.Error,
		}
		if err := stor.SaveDesign(ctx, record); err != nil {
			return fmt.Errorf("generate: save design: %w", err)
		}

		if !v.Success {
			failed++
			fmt.Fprintf(out, "%-28s FAILED  %s\n", v.TemplateID, v.Error)
			continue
		}

		saved := ""
		if opts.outDir != "" && v.ImageB64 != "" {
			path, err := saveImage(opts.outDir, v.TemplateID, v.ImageB64)
			if err != nil {
				return err
			}
			saved = "  " + path
		}
		fmt.Fprintf(out, "%-28s ok  design=%s%s\n", v.TemplateID, record.ID, saved)
	}

	if failed > 0 {
		return fmt.Errorf("generate: %d of %d variations failed", failed, len(variations))
	}
	return nil
}

func saveImage(dir, templateID, b64 string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("generate: decode image for %s: %w", templateID, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("generate: create output dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", templateID, time.Now().UTC().Format("20060102T150405Z")))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("generate: write image: %w", err)
	}
	return path, nil
}

func fileRefs(files []prompt.InputFile) []store.FileRef {
	if len(files) == 0 {
		return nil
	}
	out := make([]store.FileRef, 0, len(files))
	for _, f := range files {
		out = append(out, store.FileRef{Name: f.Name, Usage: f.Usage.String()})
	}
	return out
}
