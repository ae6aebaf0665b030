package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// Validation partitions the attached files by usage mode, preserving the
// original attachment order within each partition.
type Validation struct {
	Exact       []InputFile
	Inspiration []InputFile
}

// Validate checks the input against the template's requirements and splits
// the files into their usage partitions. A file with an unset usage mode is
// rejected rather than defaulted: the templates distinguish "embed exactly"
// from "draw inspiration from", and guessing would silently change meaning.
func Validate(t *Template, in *Input) (*Validation, error) {
	if t == nil {
		return nil, errors.New("prompt: nil template")
	}
	if in == nil {
		return nil, errors.New("prompt: nil input")
	}

	if t.RequiresFile && len(in.Files) == 0 {
		return nil, fmt.Errorf("prompt: template %q: %w", t.ID, ErrMissingFiles)
	}

	v := &Validation{}
	for i, f := range in.Files {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			name = fmt.Sprintf("file %d", i+1)
		}
		switch f.Usage {
		case UsageExact:
			v.Exact = append(v.Exact, f)
		case UsageInspiration:
			v.Inspiration = append(v.Inspiration, f)
		case UsageUnset:
			return nil, fmt.Errorf("prompt: %s: %w", name, ErrAmbiguousUsage)
		default:
			return nil, fmt.Errorf("prompt: %s: invalid usage mode %d", name, f.Usage)
		}
	}
	return v, nil
}
