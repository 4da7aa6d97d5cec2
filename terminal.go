package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"interview_protocol/notify"
)

// theme is the dossier palette used for terminal output.
type theme struct {
	Accent  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color
	Dim     lipgloss.Color
}

var novaTheme = theme{
	Accent:  lipgloss.Color("#f97316"),
	Success: lipgloss.Color("#22c55e"),
	Error:   lipgloss.Color("#ef4444"),
	Info:    lipgloss.Color("#818cf8"),
	Dim:     lipgloss.Color("#64748b"),
}

type styles struct {
	Status lipgloss.Style
	Banner lipgloss.Style
	Toast  map[notify.Kind]lipgloss.Style
	Footer lipgloss.Style
}

func newStyles(t theme) styles {
	toast := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	return styles{
		Status: lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		Banner: lipgloss.NewStyle().Foreground(t.Accent).Bold(true).
			BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(t.Accent),
		Toast: map[notify.Kind]lipgloss.Style{
			notify.Success: toast.Foreground(t.Success),
			notify.Error:   toast.Foreground(t.Error),
			notify.Info:    toast.Foreground(t.Info),
		},
		Footer: lipgloss.NewStyle().Foreground(t.Dim),
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// newMarkdownRenderer renders the finished document for a terminal, or as
// plain text when w is not one.
func newMarkdownRenderer(w *os.File) (func(string) (string, error), error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(100)}
	if isTerminal(w) {
		out := termenv.NewOutput(w)
		opts = append(opts, glamour.WithColorProfile(out.ColorProfile()))
		if out.HasDarkBackground() {
			opts = append(opts, glamour.WithStandardStyle("dark"))
		} else {
			opts = append(opts, glamour.WithStandardStyle("light"))
		}
	} else {
		opts = append(opts, glamour.WithStandardStyle("notty"))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// toastPrinter writes each new toast once. It is a queue observer and runs
// under the queue lock.
type toastPrinter struct {
	w      io.Writer
	styles styles
	seen   map[string]bool
}

func newToastPrinter(w io.Writer, s styles) *toastPrinter {
	return &toastPrinter{w: w, styles: s, seen: make(map[string]bool)}
}

func (p *toastPrinter) observe(toasts []notify.Toast) {
	for _, t := range toasts {
		if p.seen[t.ID] {
			continue
		}
		p.seen[t.ID] = true
		fmt.Fprintln(p.w, p.styles.Toast[t.Kind].Render("["+string(t.Kind)+"] "+t.Message))
	}
}

// osc52Clipboard copies through the terminal's OSC 52 escape sequence.
type osc52Clipboard struct {
	w io.Writer
}

func (c osc52Clipboard) WriteText(text string) error {
	seq := osc52.New(text)
	if os.Getenv("TMUX") != "" {
		seq = seq.Tmux()
	}
	_, err := seq.WriteTo(c.w)
	return err
}

// terminalSurface stands in for the page during export: there is nothing to
// scroll and export mode is only tracked.
type terminalSurface struct {
	mu      sync.Mutex
	mode    bool
	entered int
}

func (s *terminalSurface) ScrollToTop() {}

func (s *terminalSurface) SetExportMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = on
	if on {
		s.entered++
	}
}

// ExportMode reports whether an export is in progress and how many have started.
func (s *terminalSurface) ExportMode() (on bool, entered int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode, s.entered
}
