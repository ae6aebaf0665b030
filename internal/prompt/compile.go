package prompt

import (
	"errors"
	"fmt"
	"strings"
)

const themeFormat = "The overall concept for this coin: %s."

// Compile binds the input into the template's slot structure and returns the
// final instruction text. It is a pure function: no I/O, no retained state,
// and identical inputs always render identical text. Empty slots are elided
// entirely, so the output never carries placeholder text or stray
// separators.
func Compile(t *Template, in *Input, v *Validation) (*Compiled, error) {
	if t == nil {
		return nil, errors.New("prompt: nil template")
	}
	if in == nil {
		return nil, errors.New("prompt: nil input")
	}
	if v == nil {
		return nil, errors.New("prompt: nil validation")
	}

	theme := strings.TrimSpace(in.Theme)
	if theme == "" {
		return nil, fmt.Errorf("prompt: template %q: %w", t.ID, ErrMissingTheme)
	}
	location := strings.TrimSpace(in.Location)

	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		var s string
		switch seg.Slot {
		case SlotNone:
			s = seg.Literal
		case SlotTheme:
			s = fmt.Sprintf(themeFormat, theme)
		case SlotLocation:
			if location != "" {
				s = fmt.Sprintf(t.locationFormat, location)
			}
		case SlotExactFiles:
			if len(v.Exact) > 0 {
				s = fmt.Sprintf("Reproduce the following attached files exactly as provided, without any modification: %s.", joinFileNames(v.Exact))
			}
		case SlotInspirationFiles:
			if len(v.Inspiration) > 0 {
				s = fmt.Sprintf("Use the following attached files as stylistic and thematic inspiration only; do not reproduce them directly: %s.", joinFileNames(v.Inspiration))
			}
		default:
			return nil, fmt.Errorf("prompt: template %q: unknown slot %d", t.ID, seg.Slot)
		}
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}

	return &Compiled{
		TemplateID: t.ID,
		Text:       strings.Join(parts, " "),
	}, nil
}

// Assemble is the full pipeline for one request: catalog lookup, validation,
// compilation.
func Assemble(templateID string, in *Input) (*Compiled, error) {
	t, err := Get(templateID)
	if err != nil {
		return nil, err
	}
	v, err := Validate(t, in)
	if err != nil {
		return nil, err
	}
	return Compile(t, in, v)
}

func joinFileNames(files []InputFile) string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, strings.TrimSpace(f.Name))
	}
	return strings.Join(names, ", ")
}
