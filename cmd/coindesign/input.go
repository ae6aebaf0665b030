package main

import (
	"fmt"
	"strings"

	"github.com/metalpromo/coin-design/internal/prompt"
)

// buildInput assembles an engine input from flag values. Each --file value is
// "name=usage", for example "logo.png=exact".
func buildInput(theme, location string, files []string) (*prompt.Input, error) {
	in := &prompt.Input{
		Theme:    strings.TrimSpace(theme),
		Location: strings.TrimSpace(location),
	}
	for _, raw := range files {
		f, err := parseFileArg(raw)
		if err != nil {
			return nil, err
		}
		in.Files = append(in.Files, f)
	}
	return in, nil
}

func parseFileArg(raw string) (prompt.InputFile, error) {
	name, usage, ok := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return prompt.InputFile{}, fmt.Errorf("invalid --file %q (want name=exact or name=inspiration)", raw)
	}
	mode, err := prompt.ParseUsageMode(usage)
	if err != nil {
		return prompt.InputFile{}, fmt.Errorf("invalid --file %q: %w", raw, err)
	}
	return prompt.InputFile{Name: name, Usage: mode}, nil
}
