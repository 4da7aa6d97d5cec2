package generator

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"
)

// MockProducer 一个简单的占位实现，便于本地调试，不调用外部模型。
type MockProducer struct {
	// Fragments 非空时原样输出，否则根据主题拼一份示例文档。
	Fragments []string
	// Err 非空时在所有片段之后产出。
	Err error
	// 片段之间的间隔。
	Delay time.Duration
}

func (m MockProducer) Generate(ctx context.Context, req Request) (iter.Seq2[Fragment, error], error) {
	parts := m.Fragments
	if parts == nil {
		parts = sampleDocument(req.Topic)
	}
	return func(yield func(Fragment, error) bool) {
		for _, p := range parts {
			if m.Delay > 0 {
				select {
				case <-ctx.Done():
					yield(Fragment{}, ctx.Err())
					return
				case <-time.After(m.Delay):
				}
			}
			if ctx.Err() != nil {
				yield(Fragment{}, ctx.Err())
				return
			}
			if !yield(Fragment{Text: p}, nil) {
				return
			}
		}
		if m.Err != nil {
			yield(Fragment{}, m.Err)
		}
	}, nil
}

// sampleDocument 把一份简短的示例文档按词切成片段。
func sampleDocument(topic string) []string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s // INTERVIEW PROTOCOL\n\n", strings.ToUpper(topic)))
	sb.WriteString("Offline sample generated without a model.\n\n")
	sb.WriteString("## 01 // FUNDAMENTALS\n\n")
	sb.WriteString("**Q1. What problem does this role solve?**\n\n")
	sb.WriteString("> Describe the core responsibility in one sentence, then give an example.\n\n")
	sb.WriteString("```go\nfmt.Println(\"hello\")\n```\n\n")
	sb.WriteString("| Skill | Weight |\n|---|---|\n| Design | 40% |\n| Delivery | 60% |\n\n")
	sb.WriteString("---\n")

	doc := sb.String()
	var out []string
	start := 0
	for i, r := range doc {
		if r == ' ' || r == '\n' {
			out = append(out, doc[start:i+1])
			start = i + 1
		}
	}
	if start < len(doc) {
		out = append(out, doc[start:])
	}
	return out
}
