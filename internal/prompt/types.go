package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// UsageMode declares how an attached file must be treated by the image
// backend. The zero value means the caller never picked a mode.
type UsageMode int

const (
	UsageUnset UsageMode = iota
	// UsageExact means the file must appear in the output unaltered.
	UsageExact
	// UsageInspiration means the file only influences style and theme.
	UsageInspiration
)

func (m UsageMode) String() string {
	switch m {
	case UsageExact:
		return "exact"
	case UsageInspiration:
		return "inspiration"
	default:
		return "unset"
	}
}

// ParseUsageMode parses a caller-supplied usage mode string.
func ParseUsageMode(s string) (UsageMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact":
		return UsageExact, nil
	case "inspiration":
		return UsageInspiration, nil
	case "":
		return UsageUnset, nil
	default:
		return UsageUnset, fmt.Errorf("prompt: unknown usage mode %q", s)
	}
}

// InputFile is one attached file, identified by name. File bytes never pass
// through the engine; the image backend receives the identifier as-is.
type InputFile struct {
	Name  string    `json:"name" yaml:"name"`
	Usage UsageMode `json:"usage" yaml:"usage"`
}

// Input holds everything a caller supplies for one compilation: the design
// theme, an optional location, and the attached files in attachment order.
type Input struct {
	Theme    string      `json:"theme"`
	Location string      `json:"location,omitempty"`
	Files    []InputFile `json:"files,omitempty"`
}

// Slot identifies a placeholder position inside a template body.
type Slot int

const (
	SlotNone Slot = iota
	SlotTheme
	SlotLocation
	SlotExactFiles
	SlotInspirationFiles
)

// Segment is one piece of a template body: either literal text or a slot
// filled (or elided) at compile time.
type Segment struct {
	Literal string
	Slot    Slot
}

// Template is one of the five fixed coin-design prompt variants. Templates
// are defined once at package init and never mutated.
type Template struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	// RequiresFile demands at least one attached file before compilation.
	RequiresFile bool `json:"requires_file"`

	// Segments is the ordered body: literals interleaved with slots.
	Segments []Segment `json:"-"`

	// locationFormat renders the regional clause for this template's
	// flavor; it takes the location string as its only argument.
	locationFormat string
}

// Compiled is the final instruction text for one template. It has no
// lifecycle beyond the call that produced it.
type Compiled struct {
	TemplateID string `json:"template_id"`
	Text       string `json:"text"`
}

// Sentinel error kinds. Call sites wrap these with context; callers test
// with errors.Is.
var (
	ErrNotFound       = errors.New("template not found")
	ErrMissingTheme   = errors.New("missing theme")
	ErrMissingFiles   = errors.New("template requires at least one attached file")
	ErrAmbiguousUsage = errors.New("attached file has no usage mode")
)
