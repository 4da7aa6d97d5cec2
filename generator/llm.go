package generator

import (
	"context"
	"fmt"
	"iter"
)

// Producer 抽象流式大模型客户端，便于替换/Mock。Generate 本身返回的错误表示
// 请求尚未发出；序列中产出的错误发生在流式过程中。
type Producer interface {
	Generate(ctx context.Context, req Request) (iter.Seq2[Fragment, error], error)
}

// Settings 提供给具体实现的基础配置。
type Settings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// NewProducer 按 provider 选择实现。这里不校验 api key，缺失时在首次生成时
// 返回 ErrMissingCredential。
func NewProducer(cfg Settings) (Producer, error) {
	switch cfg.Provider {
	case "", "gemini":
		return NewGeminiProducer(cfg), nil
	case "openai":
		return NewOpenAIProducer(cfg), nil
	case "deepseek":
		// DeepSeek 兼容 OpenAI 接口，必须提供 base_url
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("%w: provider deepseek requires base_url", ErrConfiguration)
		}
		return NewOpenAIProducer(cfg), nil
	case "mock":
		return MockProducer{}, nil
	default:
		return nil, fmt.Errorf("%w: provider %s not supported", ErrConfiguration, cfg.Provider)
	}
}
