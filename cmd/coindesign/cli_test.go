package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/metalpromo/coin-design/internal/prompt"
)

func executeCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTemplatesCmd(t *testing.T) {
	out, err := executeCLI(t, "templates")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, id := range []string{
		"heritage-symbolism",
		"modern-minimalist",
		"illustrative-detailed",
		"functional-industrial",
		"military-commemorative",
	} {
		if !strings.Contains(out, id) {
			t.Fatalf("output missing %q:\n%s", id, out)
		}
	}
}

func TestTemplatesShowCmd(t *testing.T) {
	out, err := executeCLI(t, "templates", "show", "military-commemorative")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "Military Commemorative") {
		t.Fatalf("output missing name:\n%s", out)
	}
	if !strings.Contains(out, "File required: true") {
		t.Fatalf("output missing file requirement:\n%s", out)
	}
}

func TestTemplatesShowCmd_Unknown(t *testing.T) {
	_, err := executeCLI(t, "templates", "show", "does-not-exist")
	if !errors.Is(err, prompt.ErrNotFound) {
		t.Fatalf("error: got %v", err)
	}
}

func TestCompileCmd(t *testing.T) {
	out, err := executeCLI(t, "compile",
		"--template", "heritage-symbolism",
		"--theme", "Founding of the city",
		"--location", "Kyoto",
		"--file", "logo.png=exact",
		"--file", "sketch.png=inspiration",
	)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, want := range []string{"Founding of the city", "Kyoto", "logo.png", "sketch.png"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCompileCmd_JSON(t *testing.T) {
	out, err := executeCLI(t, "compile",
		"--template", "modern-minimalist",
		"--theme", "Tenth anniversary",
		"--json",
	)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, `"template_id": "modern-minimalist"`) {
		t.Fatalf("output missing template id:\n%s", out)
	}
}

func TestCompileCmd_MissingTemplate(t *testing.T) {
	_, err := executeCLI(t, "compile", "--theme", "x")
	if err == nil || !strings.Contains(err.Error(), "--template") {
		t.Fatalf("error: got %v", err)
	}
}

func TestCompileCmd_MissingTheme(t *testing.T) {
	_, err := executeCLI(t, "compile", "--template", "heritage-symbolism")
	if !errors.Is(err, prompt.ErrMissingTheme) {
		t.Fatalf("error: got %v", err)
	}
}

func TestCompileCmd_BadFileArg(t *testing.T) {
	cases := []string{"logo.png", "=exact", "logo.png=verbatim"}
	for _, raw := range cases {
		_, err := executeCLI(t, "compile",
			"--template", "heritage-symbolism",
			"--theme", "x",
			"--file", raw,
		)
		if err == nil {
			t.Fatalf("%q: expected error", raw)
		}
	}
}

func TestParseFileArg(t *testing.T) {
	f, err := parseFileArg("logo.png=exact")
	if err != nil {
		t.Fatalf("parseFileArg: %v", err)
	}
	if f.Name != "logo.png" || f.Usage != prompt.UsageExact {
		t.Fatalf("file: got %+v", f)
	}

	f, err = parseFileArg(" sketch.png = Inspiration ")
	if err != nil {
		t.Fatalf("parseFileArg: %v", err)
	}
	if f.Name != "sketch.png" || f.Usage != prompt.UsageInspiration {
		t.Fatalf("file: got %+v", f)
	}

	// An empty usage is ambiguous; validation rejects it downstream.
	f, err = parseFileArg("logo.png=")
	if err != nil {
		t.Fatalf("parseFileArg: %v", err)
	}
	if f.Usage != prompt.UsageUnset {
		t.Fatalf("usage: got %v", f.Usage)
	}
}
