package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview_protocol/export"
	"interview_protocol/generator"
	"interview_protocol/notify"
	"interview_protocol/render"
)

var fixedNow = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, p generator.Producer, opts ...Option) *Server {
	t.Helper()
	agent, err := generator.NewAgent(p)
	require.NoError(t, err)
	s, err := New(agent, append([]Option{withClock(func() time.Time { return fixedNow })}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func waitRun(t *testing.T, s *Server) {
	t.Helper()
	select {
	case <-s.acc.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("run did not finish")
	}
}

// stateBody mirrors /api/state with block kinds as text.
type stateBody struct {
	State    generator.State   `json:"state"`
	Summary  generator.Summary `json:"summary"`
	ReportID string            `json:"report_id"`
	HTML     string            `json:"html"`
	Blocks   []struct {
		Kind  string `json:"kind"`
		Level int    `json:"level"`
		Text  string `json:"text"`
	} `json:"blocks"`
	Toasts     []notify.Toast `json:"toasts"`
	ExportMode bool           `json:"export_mode"`
}

func getState(t *testing.T, h http.Handler) stateBody {
	t.Helper()
	rec := do(t, h, http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body stateBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGenerateEndToEnd(t *testing.T) {
	s := newTestServer(t, generator.MockProducer{Fragments: []string{"# Interview", " Prep"}})
	h := s.Routes()

	rec := do(t, h, http.MethodPost, "/api/runs", map[string]string{"topic": "backend engineer"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	waitRun(t, s)

	body := getState(t, h)
	assert.Equal(t, generator.State{Content: "# Interview Prep", Topic: "BACKEND ENGINEER", Run: 1}, body.State)
	require.Len(t, body.Blocks, 1)
	assert.Equal(t, "heading", body.Blocks[0].Kind)
	assert.Equal(t, 1, body.Blocks[0].Level)
	assert.Equal(t, "Interview Prep", body.Blocks[0].Text)
	assert.Contains(t, body.HTML, "Interview Prep")
	assert.Equal(t, "Interview Prep", body.Summary.Title)
	assert.Equal(t, ReportID(fixedNow), body.ReportID)

	require.Len(t, body.Toasts, 1)
	assert.Equal(t, generator.MessageCompiled, body.Toasts[0].Message)
	assert.Equal(t, notify.Success, body.Toasts[0].Kind)

	metrics := do(t, h, http.MethodGet, "/metrics", nil).Body.String()
	assert.Contains(t, metrics, `nova7_runs_total{outcome="started"} 1`)
	assert.Contains(t, metrics, `nova7_runs_total{outcome="completed"} 1`)
	assert.Contains(t, metrics, `nova7_fragments_total 2`)
	assert.Contains(t, metrics, `nova7_toasts_total{kind="success"} 1`)
}

func TestStartWithoutCredential(t *testing.T) {
	s := newTestServer(t, generator.NewGeminiProducer(generator.Settings{}))
	h := s.Routes()

	rec := do(t, h, http.MethodPost, "/api/runs", map[string]string{"topic": "BACKEND ENGINEER"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp runResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, generator.ConfigErrorMessage, resp.Error)
	assert.False(t, resp.State.IsGenerating)
	assert.Empty(t, resp.State.Content)

	body := getState(t, h)
	assert.Equal(t, generator.ConfigErrorMessage, body.State.Error)
	assert.Empty(t, body.Blocks)
	require.Len(t, body.Toasts, 1)
	assert.Equal(t, notify.Toast{ID: body.Toasts[0].ID, Message: generator.MessageFailed, Kind: notify.Error, CreatedAt: body.Toasts[0].CreatedAt}, body.Toasts[0])

	metrics := do(t, h, http.MethodGet, "/metrics", nil).Body.String()
	assert.Contains(t, metrics, `nova7_runs_total{outcome="rejected"} 1`)
}

func TestStartRejectsEmptyTopic(t *testing.T) {
	s := newTestServer(t, generator.MockProducer{})
	h := s.Routes()

	for _, body := range []any{map[string]string{"topic": "   "}, map[string]string{}} {
		rec := do(t, h, http.MethodPost, "/api/runs", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/runs", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, uint64(0), getState(t, h).State.Run)
}

func TestTransportFailureKeepsPartialDocument(t *testing.T) {
	s := newTestServer(t, generator.MockProducer{Fragments: []string{"# Partial"}, Err: errors.New("stream reset")})
	h := s.Routes()

	require.Equal(t, http.StatusAccepted, do(t, h, http.MethodPost, "/api/runs", map[string]string{"topic": "ml"}).Code)
	waitRun(t, s)

	body := getState(t, h)
	assert.Equal(t, generator.TransportErrorMessage, body.State.Error)
	assert.Equal(t, "# Partial", body.State.Content)
	require.Len(t, body.Blocks, 1)
	require.Len(t, body.Toasts, 1)
	assert.Equal(t, notify.Error, body.Toasts[0].Kind)
}

func TestCopyCodeBlock(t *testing.T) {
	s := newTestServer(t, generator.MockProducer{Fragments: []string{"```python\n", "print('x')\n", "```\n"}})
	h := s.Routes()
	require.Equal(t, http.StatusAccepted, do(t, h, http.MethodPost, "/api/runs", map[string]string{"topic": "python"}).Code)
	waitRun(t, s)

	rec := do(t, h, http.MethodPost, "/api/blocks/0/copy", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp copyResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "print('x')", resp.Text)

	toasts := getState(t, h).Toasts
	require.Len(t, toasts, 2)
	assert.Equal(t, render.MessageCopied, toasts[1].Message)
	assert.Equal(t, notify.Success, toasts[1].Kind)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/blocks/1/copy", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/blocks/first/copy", nil).Code)
}

func TestCopyRelaysToViewer(t *testing.T) {
	s := newTestServer(t, generator.MockProducer{Fragments: []string{"```go\nfmt.Println(1)\n```\n"}})
	h := s.Routes()
	require.Equal(t, http.StatusAccepted, do(t, h, http.MethodPost, "/api/runs", map[string]string{"topic": "go"}).Code)
	waitRun(t, s)

	events, unsubscribe := s.hub.Subscribe()
	defer unsubscribe()
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/blocks/0/copy", nil).Code)

	for {
		select {
		case ev := <-events:
			if ev.Name != EventClipboard {
				continue
			}
			assert.JSONEq(t, `{"text":"fmt.Println(1)"}`, string(ev.Data))
			return
		case <-time.After(time.Second):
			t.Fatal("no clipboard event")
		}
	}
}

func TestDismissToast(t *testing.T) {
	s := newTestServer(t, generator.MockProducer{Fragments: []string{"done"}})
	h := s.Routes()
	require.Equal(t, http.StatusAccepted, do(t, h, http.MethodPost, "/api/runs", map[string]string{"topic": "x"}).Code)
	waitRun(t, s)

	toasts := getState(t, h).Toasts
	require.Len(t, toasts, 1)

	rec := do(t, h, http.MethodDelete, "/api/toasts/"+toasts[0].ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, getState(t, h).Toasts)

	rec = do(t, h, http.MethodDelete, "/api/toasts/"+toasts[0].ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

type captureFunc func(ctx context.Context, page export.Page, opts export.Options) (string, error)

func (f captureFunc) Capture(ctx context.Context, page export.Page, opts export.Options) (string, error) {
	return f(ctx, page, opts)
}

func TestExportAndDownload(t *testing.T) {
	dir := t.TempDir()
	var got export.Page
	capture := captureFunc(func(_ context.Context, page export.Page, opts export.Options) (string, error) {
		got = page
		path := filepath.Join(dir, opts.Filename)
		return path, os.WriteFile(path, []byte("%PDF-1.4"), 0o644)
	})
	s := newTestServer(t, generator.MockProducer{Fragments: []string{"# Interview Prep\n\nBody."}},
		WithCapture(capture), WithExportDir(dir), WithSettle(0))
	h := s.Routes()

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/export", nil).Code)

	require.Equal(t, http.StatusAccepted, do(t, h, http.MethodPost, "/api/runs", map[string]string{"topic": "backend engineer"}).Code)
	waitRun(t, s)

	rec := do(t, h, http.MethodPost, "/api/export", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp exportResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "NOVA7_PROTOCOL_BACKEND_ENGINEER_2026-10-16.pdf", resp.Filename)
	assert.Equal(t, "/api/export/NOVA7_PROTOCOL_BACKEND_ENGINEER_2026-10-16.pdf", resp.URL)

	assert.Equal(t, "Interview Prep", got.Title)
	assert.Contains(t, got.HTML, FooterLeft)
	assert.Contains(t, got.HTML, FooterRight)
	assert.Contains(t, got.CSS, ".answer-module")
	assert.False(t, s.view.ExportMode())

	dl := do(t, h, http.MethodGet, resp.URL, nil)
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, "%PDF-1.4", dl.Body.String())
	assert.Contains(t, dl.Header().Get("Content-Disposition"), resp.Filename)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/export/absent.pdf", nil).Code)

	var messages []string
	for _, ts := range getState(t, h).Toasts {
		messages = append(messages, ts.Message)
	}
	assert.Equal(t, []string{generator.MessageCompiled, export.MessageStarted, export.MessageDone}, messages)
}

func TestExportWithoutCaptureFacility(t *testing.T) {
	s := newTestServer(t, generator.MockProducer{Fragments: []string{"# Doc"}}, WithSettle(0))
	h := s.Routes()
	require.Equal(t, http.StatusAccepted, do(t, h, http.MethodPost, "/api/runs", map[string]string{"topic": "x"}).Code)
	waitRun(t, s)

	rec := do(t, h, http.MethodPost, "/api/export", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), export.MessageNoModule)

	body := getState(t, h)
	assert.False(t, body.ExportMode)
	assert.Equal(t, "# Doc", body.State.Content, "export failure leaves the document alone")
	assert.Empty(t, body.State.Error)
}

func TestEventStream(t *testing.T) {
	s := newTestServer(t, generator.MockProducer{Fragments: []string{"# Interview", " Prep"}})
	h := s.Routes()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := httptest.NewRecorder()
	served := make(chan struct{})
	go func() {
		defer close(served)
		h.ServeHTTP(sub, httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx))
	}()
	require.Eventually(t, func() bool { return s.hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	require.Equal(t, http.StatusAccepted, do(t, h, http.MethodPost, "/api/runs", map[string]string{"topic": "go"}).Code)
	waitRun(t, s)
	cancel()
	<-served

	out := sub.Body.String()
	assert.Equal(t, "text/event-stream", sub.Header().Get("Content-Type"))
	assert.Contains(t, out, "event: ping\ndata: connected")
	assert.Contains(t, out, "event: status\ndata: {\"status\":\"INITIALIZING...\"}")
	assert.Contains(t, out, "event: state\n")
	assert.Contains(t, out, `"content":"# Interview Prep"`)
	assert.Contains(t, out, "event: toasts\n")
	assert.Contains(t, out, generator.MessageCompiled)
}

func TestIndexAndStatic(t *testing.T) {
	s := newTestServer(t, generator.MockProducer{})
	h := s.Routes()

	rec := do(t, h, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, want := range append([]string{FooterLeft, FooterRight, "ENTER JOB ROLE OR TOPIC..."}, Suggestions...) {
		assert.Contains(t, rec.Body.String(), want)
	}

	js := do(t, h, http.MethodGet, "/static/app.js", nil)
	assert.Equal(t, http.StatusOK, js.Code)
	for _, ev := range []string{EventState, EventToasts, EventStatus, EventView, EventScroll, EventClipboard} {
		assert.Contains(t, js.Body.String(), `addEventListener("`+ev+`"`)
	}
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/static/style.css", nil).Code)
}

func TestReportID(t *testing.T) {
	assert.Equal(t, "0", ReportID(time.UnixMilli(0)))
	assert.Equal(t, "ZZ", ReportID(time.UnixMilli(36*36-1)))
}
