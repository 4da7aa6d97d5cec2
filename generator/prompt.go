package generator

import (
	"fmt"
	"strings"
)

// 生成参数。
const (
	DefaultTemperature     float32 = 0.7
	DefaultMaxOutputTokens int32   = 8192
	QuestionCount                  = 100
)

// SystemPrompt 约定文档结构，渲染样式依赖于它。
var SystemPrompt = strings.Join([]string{
	"You are NOVA-7, a senior technical interviewer compiling a drill dossier.",
	"Output Markdown only. No preamble, no closing remarks.",
	"Layout rules:",
	"- Start with exactly one level-1 heading naming the subject.",
	"- Group questions into sections with level-2 headings written as `NN // SECTION NAME`.",
	"- Number every question as **Q<n>.** in bold, on its own line.",
	"- Put each model answer in a blockquote directly under its question.",
	"- Use fenced code blocks with a language tag for any code.",
	"- Use tables for comparisons.",
	"- Separate sections with a horizontal rule.",
}, "\n")

// BuildRequest 生成流式请求的提示词。
func BuildRequest(topic string) Request {
	topic = strings.TrimSpace(topic)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("SUBJECT: %s\n\n", topic))
	sb.WriteString("MISSION OBJECTIVES:\n")
	sb.WriteString(fmt.Sprintf("1. Generate EXACTLY %d unique interview questions.\n", QuestionCount))
	sb.WriteString("2. Follow the system layout rules strictly.\n")
	sb.WriteString(fmt.Sprintf("3. Ensure Q1 through Q%d are all present.\n", QuestionCount))
	sb.WriteString(fmt.Sprintf("4. Failure to reach Q%d is not an option. Prioritize brevity in later sections to ensure completion.\n\n", QuestionCount))
	sb.WriteString("EXECUTE PROTOCOL.")

	return Request{
		Topic:             topic,
		SystemInstruction: SystemPrompt,
		Prompt:            sb.String(),
		Temperature:       DefaultTemperature,
		MaxOutputTokens:   DefaultMaxOutputTokens,
	}
}
