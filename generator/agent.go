package generator

import (
	"context"
	"errors"
	"iter"
)

// Agent 负责把主题转成 producer 的流式输出。
type Agent struct {
	producer Producer
}

func NewAgent(p Producer) (*Agent, error) {
	if p == nil {
		return nil, errors.New("producer is required")
	}
	return &Agent{producer: p}, nil
}

// Stream 为 topic 构造请求并启动 producer。
func (a *Agent) Stream(ctx context.Context, topic string) (iter.Seq2[Fragment, error], error) {
	return a.producer.Generate(ctx, BuildRequest(topic))
}
