package generator

// Request is 一轮生成发给 Producer 的请求。
type Request struct {
	Topic             string
	SystemInstruction string
	Prompt            string
	Temperature       float32
	MaxOutputTokens   int32
}

// Fragment 是一段流式文本，可能为空，空片段会被跳过。
type Fragment struct {
	Text string
}

// State 当前一轮的生成状态。
type State struct {
	IsGenerating bool   `json:"is_generating"`
	Content      string `json:"content"`
	Error        string `json:"error,omitempty"`
	Topic        string `json:"topic,omitempty"`
	Run          uint64 `json:"run"`
}

// Summary 从生成的 Markdown 中提取。
type Summary struct {
	Title  string `json:"title"`
	Digest string `json:"digest"`
}
