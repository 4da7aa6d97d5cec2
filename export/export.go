// Package export turns the rendered document into a paginated artifact.
//
// The Adapter owns the export sequence: announce, scroll the surface to the
// top, switch it into export mode, let it settle, capture. Export mode is
// cleared on every path out of Export.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"interview_protocol/notify"
)

var (
	// ErrExport wraps every capture failure.
	ErrExport = errors.New("export failed")
	// ErrCaptureUnavailable means no capture facility is installed.
	ErrCaptureUnavailable = fmt.Errorf("%w: capture facility unavailable", ErrExport)
)

// Toast texts raised during export.
const (
	MessageStarted  = "GENERATING PDF..."
	MessageDone     = "EXPORT COMPLETE"
	MessageFailed   = "EXPORT FAILED"
	MessageNoModule = "PDF MODULE MISSING"
)

// DefaultSettle is the pause between entering export mode and capturing.
const DefaultSettle = 800 * time.Millisecond

// FilePrefix starts every artifact name.
const FilePrefix = "NOVA7_PROTOCOL_"

// Page is the rendered document handed to a capture facility.
type Page struct {
	Title string
	// HTML is the document body as rendered for screen.
	HTML string
	// CSS is the stylesheet the body depends on.
	CSS string
}

// Metadata names the artifact.
type Metadata struct {
	Topic string
	Title string
}

// Options is the fixed capture configuration.
type Options struct {
	Filename     string
	Margins      [4]float64 // inches: top, right, bottom, left
	Scale        float64
	ImageType    string
	ImageQuality float64
	WindowWidth  int
	ScrollY      int
	Unit         string
	Format       string
	Orientation  string
	PageBreak    []string
}

// DefaultOptions returns the capture options for filename.
func DefaultOptions(filename string) Options {
	return Options{
		Filename:     filename,
		Margins:      [4]float64{0.4, 0.4, 0.4, 0.4},
		Scale:        2,
		ImageType:    "jpeg",
		ImageQuality: 0.98,
		WindowWidth:  1200,
		ScrollY:      0,
		Unit:         "in",
		Format:       "a4",
		Orientation:  "portrait",
		PageBreak:    []string{"avoid-all", "css", "legacy"},
	}
}

// Capability captures a page into an artifact and returns where it went.
type Capability interface {
	Capture(ctx context.Context, page Page, opts Options) (string, error)
}

// Surface is the view being exported.
type Surface interface {
	ScrollToTop()
	SetExportMode(on bool)
}

// Result describes a finished export.
type Result struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// Adapter runs exports. A nil capability is allowed and reported as
// ErrCaptureUnavailable on every call.
type Adapter struct {
	capability Capability
	surface    Surface
	toasts     notify.Pusher
	logger     *slog.Logger

	settle time.Duration
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// Option configures an Adapter.
type Option func(*Adapter)

func WithSettle(d time.Duration) Option {
	return func(a *Adapter) { a.settle = d }
}

func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

func withSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(a *Adapter) { a.sleep = fn }
}

func NewAdapter(capability Capability, surface Surface, toasts notify.Pusher, opts ...Option) (*Adapter, error) {
	if surface == nil {
		return nil, errors.New("export surface required")
	}
	if toasts == nil {
		return nil, errors.New("toast queue required")
	}
	a := &Adapter{
		capability: capability,
		surface:    surface,
		toasts:     toasts,
		logger:     slog.New(slog.DiscardHandler),
		settle:     DefaultSettle,
		now:        time.Now,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "export")
	return a, nil
}

// Export captures page. It never leaves the surface in export mode.
func (a *Adapter) Export(ctx context.Context, page Page, meta Metadata) (res Result, err error) {
	filename := FileName(meta.Topic, a.now())
	if page.Title == "" {
		page.Title = meta.Title
	}

	a.toasts.Push(MessageStarted, notify.Info)
	a.surface.ScrollToTop()
	a.surface.SetExportMode(true)
	defer a.surface.SetExportMode(false)

	if a.capability == nil {
		a.logger.Error("capture facility not installed")
		a.toasts.Push(MessageNoModule, notify.Error)
		return Result{}, ErrCaptureUnavailable
	}

	if err := a.sleep(ctx, a.settle); err != nil {
		a.logger.Error("export interrupted", "error", err)
		a.toasts.Push(MessageFailed, notify.Error)
		return Result{}, fmt.Errorf("%w: %v", ErrExport, err)
	}

	path, err := a.capture(ctx, page, DefaultOptions(filename))
	if err != nil {
		a.logger.Error("capture failed", "file", filename, "error", err)
		if errors.Is(err, ErrCaptureUnavailable) {
			a.toasts.Push(MessageNoModule, notify.Error)
			return Result{}, err
		}
		a.toasts.Push(MessageFailed, notify.Error)
		if !errors.Is(err, ErrExport) {
			err = fmt.Errorf("%w: %v", ErrExport, err)
		}
		return Result{}, err
	}

	a.logger.Info("export complete", "file", filename, "path", path)
	a.toasts.Push(MessageDone, notify.Success)
	return Result{Filename: filename, Path: path}, nil
}

// capture turns a panicking capability into an error.
func (a *Adapter) capture(ctx context.Context, page Page, opts Options) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: capture panicked: %v", ErrExport, r)
		}
	}()
	return a.capability.Capture(ctx, page, opts)
}

var unsafeRe = regexp.MustCompile(`[^a-zA-Z0-9]`)

// FileName builds NOVA7_PROTOCOL_<TOPIC>_<YYYY-MM-DD>.pdf.
func FileName(topic string, now time.Time) string {
	token := strings.ToUpper(unsafeRe.ReplaceAllString(topic, "_"))
	if token == "" {
		token = "REPORT"
	}
	return fmt.Sprintf("%s%s_%s.pdf", FilePrefix, token, now.UTC().Format("2006-01-02"))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
