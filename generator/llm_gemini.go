package generator

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"
)

// DefaultGeminiModel 配置未指定模型时使用。
const DefaultGeminiModel = "gemini-3-pro-preview"

var _ Producer = (*GeminiProducer)(nil)

// GeminiProducer 通过 Gemini API 流式生成。
type GeminiProducer struct {
	Model   string
	APIKey  string
	BaseURL string
}

func NewGeminiProducer(cfg Settings) *GeminiProducer {
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiProducer{
		Model:   strings.TrimPrefix(model, "models/"),
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
	}
}

func (g *GeminiProducer) Generate(ctx context.Context, req Request) (iter.Seq2[Fragment, error], error) {
	if g.APIKey == "" {
		return nil, ErrMissingCredential
	}
	cc := &genai.ClientConfig{
		APIKey:  g.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if g.BaseURL != "" {
		cc.HTTPOptions.BaseURL = g.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("%w: genai client: %v", ErrConfiguration, err)
	}

	temperature := req.Temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: req.MaxOutputTokens,
	}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.SystemInstruction)},
		}
	}
	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{genai.NewPartFromText(req.Prompt)}},
	}

	return geminiFragments(func() iter.Seq2[*genai.GenerateContentResponse, error] {
		return client.Models.GenerateContentStream(ctx, g.Model, contents, cfg)
	}), nil
}

// geminiFragments 把每个 chunk 首个候选的文本 part 拼成片段。请求在首次迭代时才发出。
func geminiFragments(open func() iter.Seq2[*genai.GenerateContentResponse, error]) iter.Seq2[Fragment, error] {
	return func(yield func(Fragment, error) bool) {
		for chunk, err := range open() {
			if err != nil {
				if e, ok := err.(*apierror.APIError); ok {
					err = e.Unwrap()
				}
				yield(Fragment{}, fmt.Errorf("%w: gemini: %v", ErrTransport, err))
				return
			}
			if chunk == nil || len(chunk.Candidates) == 0 {
				continue
			}
			c := chunk.Candidates[0]
			if c.Content == nil {
				continue
			}
			var sb strings.Builder
			for _, p := range c.Content.Parts {
				if p != nil && p.Text != "" && !p.Thought {
					sb.WriteString(p.Text)
				}
			}
			if sb.Len() == 0 {
				continue
			}
			if !yield(Fragment{Text: sb.String()}, nil) {
				return
			}
		}
	}
}
