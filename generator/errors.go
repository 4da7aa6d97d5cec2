package generator

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration 表示在发出任何网络请求前就发现的问题。
	ErrConfiguration = errors.New("configuration error")
	// ErrMissingCredential 缺少 api key。
	ErrMissingCredential = fmt.Errorf("%w: api key missing", ErrConfiguration)
	// ErrTransport 表示流式传输过程中的失败。
	ErrTransport = errors.New("transport error")
)

// 固定的用户提示文案，底层原因只写日志。
const (
	TransportErrorMessage = "CONNECTION FAILURE. CHECK API CREDENTIALS."
	ConfigErrorMessage    = "CONFIGURATION FAILURE. API KEY MISSING."
)

// Accumulator 发出的 toast 文案。
const (
	MessageCompiled = "REPORT COMPILED"
	MessageFailed   = "GENERATION FAILED"
)
