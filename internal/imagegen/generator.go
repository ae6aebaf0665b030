package imagegen

import (
	"context"
	"fmt"
	"strings"

	"github.com/metalpromo/coin-design/internal/prompt"
)

// preamble frames every request to the image backend. The attached files may
// hold front/back mockups, reference art, or logos; their usage modes are
// listed after the instruction text.
const preamble = "Please generate a design for a custom challenge coin, front side only, using the instruction below from the customer and the attached files. The attached files may contain initial designs for either the front or back of a coin as well as reference images and logos."

// Request is one image-generation call: the compiled instruction text plus
// the original file identifiers and usage modes, passed through unchanged.
// The engine never touches file bytes.
type Request struct {
	Prompt string
	Files  []prompt.InputFile
}

// Result is the backend's output: a hosted URL, base64 image data, or both.
type Result struct {
	URL     string
	B64JSON string
}

// Generator is the external image-generation collaborator.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req *Request) (*Result, error)
}

// BuildBackendPrompt assembles the full text sent to the backend: preamble,
// compiled instruction, and the provided-file list with usage modes.
func BuildBackendPrompt(req *Request) string {
	if req == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(preamble)
	if text := strings.TrimSpace(req.Prompt); text != "" {
		sb.WriteString("\n\n")
		sb.WriteString(text)
	}
	if len(req.Files) > 0 {
		sb.WriteString("\n\nProvided files:")
		for i, f := range req.Files {
			name := strings.TrimSpace(f.Name)
			if name == "" {
				name = fmt.Sprintf("file %d", i+1)
			}
			fmt.Fprintf(&sb, "\n- %s (usage: %s)", name, f.Usage)
		}
	}
	return sb.String()
}
