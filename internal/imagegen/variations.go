package imagegen

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/metalpromo/coin-design/internal/prompt"
)

// Variation is the outcome of compiling and generating one catalog style.
// A style whose requirements the input cannot satisfy, or whose backend call
// failed, carries its error here; it never aborts the other styles.
type Variation struct {
	TemplateID   string `json:"template_id"`
	TemplateName string `json:"template_name"`
	Prompt       string `json:"prompt,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	ImageB64     string `json:"image_b64,omitempty"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
}

// GenerateVariations compiles the input against every catalog template and
// generates the resulting prompts concurrently, at most concurrency calls in
// flight. The returned slice is in catalog order, one entry per template,
// with per-style failures recorded rather than propagated.
func GenerateVariations(ctx context.Context, g Generator, in *prompt.Input, concurrency int) ([]Variation, error) {
	if g == nil {
		return nil, errors.New("imagegen: nil generator")
	}
	if ctx == nil {
		return nil, errors.New("imagegen: nil context")
	}
	if in == nil {
		return nil, errors.New("imagegen: nil input")
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	templates := prompt.List()
	out := make([]Variation, len(templates))

	var eg errgroup.Group
	eg.SetLimit(concurrency)

	for i, t := range templates {
		out[i] = Variation{TemplateID: t.ID, TemplateName: t.Name}

		compiled, err := prompt.Assemble(t.ID, in)
		if err != nil {
			out[i].Error = err.Error()
			continue
		}
		out[i].Prompt = compiled.Text

		i := i
		eg.Go(func() error {
			res, err := g.Generate(ctx, &Request{Prompt: out[i].Prompt, Files: in.Files})
			if err != nil {
				out[i].Error = err.Error()
				return nil
			}
			out[i].ImageURL = res.URL
			out[i].ImageB64 = res.B64JSON
			out[i].Success = true
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return out, err
	}
	return out, nil
}
