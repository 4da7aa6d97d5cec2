package generator

import (
	"context"
	"fmt"
	"iter"
	"strconv"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
)

// DefaultOpenAIModel 配置未指定模型时使用。
const DefaultOpenAIModel = "gpt-4o"

var _ Producer = (*OpenAIProducer)(nil)

// OpenAIProducer streams chat completions through the official openai-go SDK.
// It also serves OpenAI-compatible endpoints via BaseURL.
type OpenAIProducer struct {
	Model   string
	APIKey  string
	BaseURL string
	Opts    []option.RequestOption
}

func NewOpenAIProducer(cfg Settings) *OpenAIProducer {
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIProducer{Model: model, APIKey: cfg.APIKey, BaseURL: cfg.BaseURL}
}

func (o *OpenAIProducer) Generate(ctx context.Context, req Request) (iter.Seq2[Fragment, error], error) {
	if o.APIKey == "" {
		return nil, ErrMissingCredential
	}
	opts := []option.RequestOption{
		option.WithAPIKey(o.APIKey),
		option.WithMaxRetries(0),
	}
	if o.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(o.BaseURL))
	}
	opts = append(opts, o.Opts...)
	client := openai.NewClient(opts...)

	msgs := []openai.ChatCompletionMessageParamUnion{}
	if req.SystemInstruction != "" {
		msgs = append(msgs, openai.SystemMessage(req.SystemInstruction))
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.Model),
		Messages: msgs,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(widen(req.Temperature))
	}
	if req.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxOutputTokens))
	}

	return openAIFragments(func() *ssestream.Stream[openai.ChatCompletionChunk] {
		return client.Chat.Completions.NewStreaming(ctx, params)
	}), nil
}

// openAIFragments 在首次迭代时才发出请求。
func openAIFragments(open func() *ssestream.Stream[openai.ChatCompletionChunk]) iter.Seq2[Fragment, error] {
	return func(yield func(Fragment, error) bool) {
		stream := open()
		defer stream.Close()
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			s := chunk.Choices[0].Delta.Content
			if s == "" {
				continue
			}
			if !yield(Fragment{Text: s}, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield(Fragment{}, fmt.Errorf("%w: openai: %v", ErrTransport, err))
		}
	}
}

// widen 转为 float64，避免 float32 的舍入误差（0.7 仍是 0.7）。
func widen(f float32) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(float64(f), 'g', -1, 32), 64)
	return v
}
