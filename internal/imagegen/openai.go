package imagegen

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIGenerator struct {
	client *openai.Client
	model  string
	size   string
}

func NewOpenAIGenerator(apiKey, baseURL, model, size string) *OpenAIGenerator {
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	if v := strings.TrimSpace(baseURL); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}

	m := strings.TrimSpace(model)
	if m == "" {
		m = "gpt-image-1"
	}
	s := strings.TrimSpace(size)
	if s == "" {
		s = openai.CreateImageSize1024x1024
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  m,
		size:   s,
	}
}

func (g *OpenAIGenerator) Name() string {
	return "openai"
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req *Request) (*Result, error) {
	if g == nil || g.client == nil {
		return nil, errors.New("imagegen: openai: nil client")
	}
	if ctx == nil {
		return nil, errors.New("imagegen: openai: nil context")
	}
	if req == nil {
		return nil, errors.New("imagegen: openai: nil request")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New("imagegen: openai: empty prompt")
	}

	r := openai.ImageRequest{
		Prompt: BuildBackendPrompt(req),
		Model:  g.model,
		N:      1,
		Size:   g.size,
	}
	// gpt-image-1 always returns base64 and rejects response_format; only
	// the dall-e models take it.
	if strings.HasPrefix(g.model, "dall-e") {
		r.ResponseFormat = openai.CreateImageResponseFormatB64JSON
	}

	resp, err := g.client.CreateImage(ctx, r)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("imagegen: openai: empty image data")
	}

	return &Result{
		URL:     strings.TrimSpace(resp.Data[0].URL),
		B64JSON: resp.Data[0].B64JSON,
	}, nil
}
