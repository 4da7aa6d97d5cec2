package server

import (
	"errors"
	"sync"
)

var errNoViewer = errors.New("no connected viewer to receive clipboard text")

// viewState is the browser-facing surface: the export-mode flag and the
// scroll and clipboard signals, relayed over the hub.
type viewState struct {
	mu         sync.Mutex
	exportMode bool
	hub        *Hub
}

type viewEvent struct {
	ExportMode bool `json:"export_mode"`
}

type clipboardEvent struct {
	Text string `json:"text"`
}

func (v *viewState) ScrollToTop() {
	v.hub.Broadcast(EventScroll, struct {
		Top int `json:"top"`
	}{})
}

func (v *viewState) SetExportMode(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.exportMode = on
	v.hub.Broadcast(EventView, viewEvent{ExportMode: on})
}

func (v *viewState) ExportMode() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.exportMode
}

// WriteText hands text to connected viewers.
func (v *viewState) WriteText(text string) error {
	if v.hub.Len() == 0 {
		return errNoViewer
	}
	v.hub.Broadcast(EventClipboard, clipboardEvent{Text: text})
	return nil
}
