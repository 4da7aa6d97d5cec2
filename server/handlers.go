package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"interview_protocol/export"
	"interview_protocol/generator"
	"interview_protocol/notify"
	"interview_protocol/render"
)

type indexData struct {
	Suggestions []string
	FooterLeft  string
	FooterRight string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := s.index.Execute(w, indexData{
		Suggestions: Suggestions,
		FooterLeft:  FooterLeft,
		FooterRight: FooterRight,
	})
	if err != nil {
		s.logger.Error("render index", "error", err)
	}
}

type runCreateReq struct {
	Topic string `json:"topic"`
}

type runResp struct {
	State generator.State `json:"state"`
	Error string          `json:"error,omitempty"`
}

func (s *Server) handleRunCreate(w http.ResponseWriter, r *http.Request) {
	var req runCreateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	topic := strings.ToUpper(strings.TrimSpace(req.Topic))
	if topic == "" {
		writeError(w, http.StatusBadRequest, "topic required")
		return
	}

	if err := s.acc.Start(r.Context(), topic); err != nil {
		st := s.acc.State()
		if errors.Is(err, generator.ErrConfiguration) {
			writeJSONStatus(w, http.StatusUnprocessableEntity, runResp{State: st, Error: st.Error})
			return
		}
		s.logger.Error("start run", "error", err)
		writeError(w, http.StatusInternalServerError, generator.MessageFailed)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, runResp{State: s.acc.State()})
}

type stateResp struct {
	documentView
	Status     string         `json:"status"`
	Blocks     []render.Block `json:"blocks"`
	Toasts     []notify.Toast `json:"toasts"`
	ExportMode bool           `json:"export_mode"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.snapshot())
}

func (s *Server) snapshot() stateResp {
	s.mu.RLock()
	view := s.documentLocked()
	blocks := s.doc.Blocks
	s.mu.RUnlock()
	if blocks == nil {
		blocks = []render.Block{}
	}
	return stateResp{
		documentView: view,
		Status:       s.acc.Status(),
		Blocks:       blocks,
		Toasts:       nonNil(s.toasts.List()),
		ExportMode:   s.view.ExportMode(),
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	initial := make([]Event, 0, 3)
	for _, ev := range []struct {
		name string
		v    any
	}{
		{EventState, snap.documentView},
		{EventToasts, snap.Toasts},
		{EventStatus, statusEvent{Status: snap.Status}},
	} {
		data, err := json.Marshal(ev.v)
		if err != nil {
			s.logger.Error("encode initial event", "event", ev.name, "error", err)
			continue
		}
		initial = append(initial, Event{Name: ev.name, Data: data})
	}
	s.hub.Serve(w, r, initial...)
}

type copyResp struct {
	Text string `json:"text"`
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid block index")
		return
	}
	s.mu.RLock()
	doc := s.doc
	s.mu.RUnlock()

	text, err := s.copier.CopyAt(doc, index)
	if err != nil {
		if errors.Is(err, render.ErrNoCodeBlock) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.metrics.Copies.Inc()
	writeJSON(w, copyResp{Text: text})
}

func (s *Server) handleToastDismiss(w http.ResponseWriter, r *http.Request) {
	s.toasts.Dismiss(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

type exportResp struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	URL      string `json:"url"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	st, html, summary, reportID := s.state, s.html, s.summary, s.reportID
	s.mu.RUnlock()

	if strings.TrimSpace(st.Content) == "" {
		writeError(w, http.StatusConflict, "no document to export")
		return
	}

	res, err := s.exporter.Export(r.Context(), export.Page{
		Title: summary.Title,
		HTML:  Sheet(html, reportID),
		CSS:   s.pageCSS,
	}, export.Metadata{Topic: st.Topic, Title: summary.Title})
	if err != nil {
		s.metrics.Exports.WithLabelValues(OutcomeFailed).Inc()
		msg := export.MessageFailed
		if errors.Is(err, export.ErrCaptureUnavailable) {
			msg = export.MessageNoModule
		}
		writeError(w, http.StatusBadGateway, msg)
		return
	}
	s.metrics.Exports.WithLabelValues(OutcomeCompleted).Inc()
	writeJSON(w, exportResp{
		Filename: res.Filename,
		Path:     res.Path,
		URL:      "/api/export/" + url.PathEscape(filepath.Base(res.Path)),
	})
}

func (s *Server) handleExportDownload(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(chi.URLParam(r, "name"))
	if s.exportDir == "" || name == "." || name == string(filepath.Separator) {
		http.NotFound(w, r)
		return
	}
	path := filepath.Join(s.exportDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, path)
}

// --- Helpers ---

type errorResp struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSONStatus(w, status, errorResp{Error: msg})
}
