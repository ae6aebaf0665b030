package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/metalpromo/coin-design/internal/prompt"
)

type compileOptions struct {
	template string
	theme    string
	location string
	files    []string
	jsonOut  bool
}

func newCompileCmd() *cobra.Command {
	var opts compileOptions

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a prompt from a template and design input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.template, "template", "", "template id or name")
	cmd.Flags().StringVar(&opts.theme, "theme", "", "design theme")
	cmd.Flags().StringVar(&opts.location, "location", "", "regional or cultural setting")
	cmd.Flags().StringArrayVar(&opts.files, "file", nil, "attached file as name=usage (repeatable)")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the result as JSON")

	return cmd
}

func runCompile(cmd *cobra.Command, opts *compileOptions) error {
	if opts == nil {
		return fmt.Errorf("compile: nil options")
	}
	if strings.TrimSpace(opts.template) == "" {
		return fmt.Errorf("compile: specify --template <id>")
	}

	in, err := buildInput(opts.theme, opts.location, opts.files)
	if err != nil {
		return err
	}

	compiled, err := prompt.Assemble(opts.template, in)
	if err != nil {
		return err
	}

	if opts.jsonOut {
		b, err := json.MarshalIndent(compiled, "", "  ")
		if err != nil {
			return fmt.Errorf("compile: marshal json: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), compiled.Text)
	return nil
}
