package server

import (
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"interview_protocol/export"
	"interview_protocol/generator"
	"interview_protocol/notify"
	"interview_protocol/render"
)

//go:embed web
var embeddedWeb embed.FS

// Suggestions are the quick topics offered on the landing page.
var Suggestions = []string{"FULL STACK DEV", "MACHINE LEARNING", "DEVOPS ENGINEER", "PRODUCT MANAGER"}

// Document footer texts.
const (
	FooterLeft  = "CONFIDENTIALITY: L-4"
	FooterRight = "NOVA-7 // AI GEN"
)

// Server holds the single generation session and everything derived from it.
type Server struct {
	acc      *generator.Accumulator
	toasts   *notify.Queue
	copier   *render.Copier
	exporter *export.Adapter
	hub      *Hub
	view     *viewState
	metrics  *Metrics
	registry *prometheus.Registry
	logger   *slog.Logger

	exportDir string
	index     *template.Template
	static    http.Handler
	pageCSS   string
	now       func() time.Time

	mu       sync.RWMutex
	state    generator.State
	doc      render.Document
	html     string
	summary  generator.Summary
	reportID string
}

type settings struct {
	logger     *slog.Logger
	capability export.Capability
	exportDir  string
	settle     time.Duration
	registry   *prometheus.Registry
	now        func() time.Time
}

// Option configures a Server.
type Option func(*settings)

func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithCapture installs the export capture facility. Without one every
// export reports the module as missing.
func WithCapture(c export.Capability) Option {
	return func(s *settings) { s.capability = c }
}

// WithExportDir is where downloadable artifacts are looked up.
func WithExportDir(dir string) Option {
	return func(s *settings) { s.exportDir = dir }
}

func WithSettle(d time.Duration) Option {
	return func(s *settings) { s.settle = d }
}

// WithRegistry registers metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *settings) { s.registry = reg }
}

func withClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

func New(agent *generator.Agent, opts ...Option) (*Server, error) {
	if agent == nil {
		return nil, errors.New("generator agent required")
	}
	cfg := settings{
		logger: slog.New(slog.DiscardHandler),
		settle: export.DefaultSettle,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.registry == nil {
		cfg.registry = prometheus.NewRegistry()
	}

	index, err := template.ParseFS(embeddedWeb, "web/index.html")
	if err != nil {
		return nil, err
	}
	sub, err := fs.Sub(embeddedWeb, "web/static")
	if err != nil {
		return nil, err
	}
	css, err := Stylesheet()
	if err != nil {
		return nil, err
	}

	s := &Server{
		registry:  cfg.registry,
		logger:    cfg.logger.With("component", "server"),
		exportDir: cfg.exportDir,
		index:     index,
		static:    http.FileServer(http.FS(sub)),
		pageCSS:   css,
		now:       cfg.now,
	}
	s.metrics = NewMetrics(cfg.registry)
	s.hub = NewHub(cfg.logger.With("component", "sse"))
	s.hub.onCount = func(n int) { s.metrics.Subscribers.Set(float64(n)) }
	s.view = &viewState{hub: s.hub}

	s.toasts = notify.New()
	s.toasts.Subscribe(func(ts []notify.Toast) {
		s.hub.Broadcast(EventToasts, nonNil(ts))
	})
	pusher := meteredPusher{Pusher: s.toasts, toasts: s.metrics.Toasts}

	rotator := generator.NewStatusRotator(generator.StatusInterval, func(status string) {
		s.hub.Broadcast(EventStatus, statusEvent{Status: status})
	})
	s.acc, err = generator.NewAccumulator(agent, pusher,
		generator.WithLogger(cfg.logger),
		generator.WithStatusRotator(rotator),
	)
	if err != nil {
		return nil, err
	}
	s.acc.Subscribe(s.observe)

	s.copier = render.NewCopier(s.view, pusher, cfg.logger)
	s.exporter, err = export.NewAdapter(cfg.capability, s.view, pusher,
		export.WithSettle(cfg.settle),
		export.WithLogger(cfg.logger),
		export.WithClock(cfg.now),
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logMiddleware)

	r.Get("/", s.handleIndex)
	r.Handle("/static/*", http.StripPrefix("/static/", s.static))
	r.Route("/api", func(r chi.Router) {
		r.Post("/runs", s.handleRunCreate)
		r.Get("/state", s.handleState)
		r.Get("/events", s.handleEvents)
		r.Post("/blocks/{index}/copy", s.handleCopy)
		r.Delete("/toasts/{id}", s.handleToastDismiss)
		r.Post("/export", s.handleExport)
		r.Get("/export/{name}", s.handleExportDownload)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

// Close ends the current run, drops pending toasts and disconnects event
// streams.
func (s *Server) Close() {
	s.acc.Cancel()
	s.toasts.Close()
	s.hub.Close()
}

// observe re-renders the whole document on every published state.
func (s *Server) observe(st generator.State) {
	doc := render.Render(st.Content)
	html := render.HTML(doc, render.DefaultStyles)
	summary := generator.Summarize(st.Content)

	s.mu.Lock()
	prev := s.state
	if st.Run != prev.Run {
		s.reportID = ReportID(s.now())
		s.metrics.Runs.WithLabelValues(OutcomeStarted).Inc()
	} else {
		if len(st.Content) > len(prev.Content) {
			s.metrics.Fragments.Inc()
		}
		if prev.IsGenerating && !st.IsGenerating {
			s.metrics.Runs.WithLabelValues(runOutcome(st)).Inc()
		}
	}
	s.state, s.doc, s.html, s.summary = st, doc, html, summary
	view := s.documentLocked()
	s.mu.Unlock()

	s.hub.Broadcast(EventState, view)
}

func runOutcome(st generator.State) string {
	switch st.Error {
	case "":
		return OutcomeCompleted
	case generator.ConfigErrorMessage:
		return OutcomeRejected
	default:
		return OutcomeFailed
	}
}

// ReportID labels a generated document, base 36 of the Unix millisecond.
func ReportID(t time.Time) string {
	return strings.ToUpper(strconv.FormatInt(t.UnixMilli(), 36))
}

type documentView struct {
	State      generator.State   `json:"state"`
	Summary    generator.Summary `json:"summary"`
	ReportID   string            `json:"report_id,omitempty"`
	HTML       string            `json:"html"`
	CodeBlocks int               `json:"code_blocks"`
}

type statusEvent struct {
	Status string `json:"status"`
}

func (s *Server) documentLocked() documentView {
	return documentView{
		State:      s.state,
		Summary:    s.summary,
		ReportID:   s.reportID,
		HTML:       s.html,
		CodeBlocks: len(s.doc.CodeBlocks()),
	}
}

// Stylesheet returns the page stylesheet the rendered document depends on.
func Stylesheet() (string, error) {
	b, err := fs.ReadFile(embeddedWeb, "web/static/style.css")
	return string(b), err
}

// Sheet wraps the rendered body the way the page frames it, footer included.
func Sheet(body, reportID string) string {
	var b strings.Builder
	b.WriteString(`<div class="sheet">`)
	if reportID != "" {
		b.WriteString(`<div class="sheet-meta">REPORT ID: <span>`)
		b.WriteString(template.HTMLEscapeString(reportID))
		b.WriteString(`</span></div>`)
	}
	b.WriteString(`<div class="sheet-body">`)
	b.WriteString(body)
	b.WriteString(`</div><div class="sheet-footer"><span>`)
	b.WriteString(FooterLeft)
	b.WriteString(`</span><span>`)
	b.WriteString(FooterRight)
	b.WriteString(`</span></div></div>`)
	return b.String()
}

func nonNil(ts []notify.Toast) []notify.Toast {
	if ts == nil {
		return []notify.Toast{}
	}
	return ts
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
