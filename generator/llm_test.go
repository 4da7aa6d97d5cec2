package generator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Settings
		want    any
		wantErr bool
	}{
		{name: "default is gemini", cfg: Settings{}, want: &GeminiProducer{}},
		{name: "openai", cfg: Settings{Provider: "openai"}, want: &OpenAIProducer{}},
		{name: "deepseek needs base url", cfg: Settings{Provider: "deepseek"}, wantErr: true},
		{name: "deepseek", cfg: Settings{Provider: "deepseek", BaseURL: "https://api.deepseek.com"}, want: &OpenAIProducer{}},
		{name: "mock", cfg: Settings{Provider: "mock"}, want: MockProducer{}},
		{name: "unknown", cfg: Settings{Provider: "llama"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProducer(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, p)
		})
	}
}

func TestDefaultModels(t *testing.T) {
	assert.Equal(t, DefaultGeminiModel, NewGeminiProducer(Settings{}).Model)
	assert.Equal(t, "gemini-2.5-flash", NewGeminiProducer(Settings{Model: "models/gemini-2.5-flash"}).Model)
	assert.Equal(t, DefaultOpenAIModel, NewOpenAIProducer(Settings{}).Model)
}

func TestMissingCredentialFailsBeforeNetwork(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer srv.Close()

	for _, p := range []Producer{
		NewGeminiProducer(Settings{BaseURL: srv.URL}),
		NewOpenAIProducer(Settings{BaseURL: srv.URL}),
	} {
		seq, err := p.Generate(context.Background(), BuildRequest("x"))
		assert.Nil(t, seq)
		assert.ErrorIs(t, err, ErrMissingCredential)
	}
	assert.Zero(t, hits)
}

func openAIChunk(content string) string {
	return fmt.Sprintf(`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"role":"assistant","content":%q},"finish_reason":null}]}`, content)
}

func TestOpenAIProducerStreams(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)

		w.Header().Set("Content-Type", "text/event-stream")
		for _, s := range []string{"# Interview", "", " Prep"} {
			fmt.Fprintf(w, "data: %s\n\n", openAIChunk(s))
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := NewOpenAIProducer(Settings{APIKey: "sk-test", BaseURL: srv.URL, Model: "m"})
	seq, err := p.Generate(context.Background(), BuildRequest("BACKEND ENGINEER"))
	require.NoError(t, err)

	var got []string
	for frag, err := range seq {
		require.NoError(t, err)
		got = append(got, frag.Text)
	}
	assert.Equal(t, []string{"# Interview", " Prep"}, got)
	assert.Contains(t, body, `"temperature":0.7`)
	assert.Contains(t, body, `"max_completion_tokens":8192`)
}

func TestOpenAIProducerTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	p := NewOpenAIProducer(Settings{APIKey: "sk-bad", BaseURL: srv.URL})
	seq, err := p.Generate(context.Background(), BuildRequest("x"))
	require.NoError(t, err)

	var last error
	for _, err := range seq {
		last = err
	}
	require.Error(t, last)
	assert.ErrorIs(t, last, ErrTransport)
}

func TestOpenAIProducerDoesNotRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"boom","type":"server_error"}}`)
	}))
	defer srv.Close()

	p := NewOpenAIProducer(Settings{APIKey: "sk-test", BaseURL: srv.URL})
	seq, err := p.Generate(context.Background(), BuildRequest("x"))
	require.NoError(t, err)
	assert.Zero(t, hits.Load(), "no request before the sequence is consumed")

	var last error
	for _, err := range seq {
		last = err
	}
	assert.ErrorIs(t, last, ErrTransport)
	assert.Equal(t, int32(1), hits.Load())
}

func TestMockProducerSample(t *testing.T) {
	seq, err := MockProducer{}.Generate(context.Background(), BuildRequest("devops engineer"))
	require.NoError(t, err)

	var sb strings.Builder
	for frag, err := range seq {
		require.NoError(t, err)
		sb.WriteString(frag.Text)
	}
	assert.True(t, strings.HasPrefix(sb.String(), "# DEVOPS ENGINEER // INTERVIEW PROTOCOL\n"))
	assert.Contains(t, sb.String(), "```go\n")
}
