// handlers.go
package main

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"retortweb/internal/auditlog"
	"retortweb/internal/config"
	"retortweb/internal/metrics"
	"retortweb/internal/report"
	"retortweb/internal/results"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// server holds the active configuration and the collaborators every
// evaluation passes through. The configuration can be swapped at runtime.
type server struct {
	mu   sync.RWMutex
	cfg  *config.Config
	sink auditlog.Sink

	store   *results.Store
	metrics *metrics.Registry
	now     func() time.Time
	sinkFor func(*config.Config) auditlog.Sink
}

func newServer(cfg *config.Config, store *results.Store, reg *metrics.Registry) *server {
	s := &server{
		store:   store,
		metrics: reg,
		now:     time.Now,
		sinkFor: defaultSink,
	}
	s.setConfig(cfg)
	return s
}

func defaultSink(cfg *config.Config) auditlog.Sink {
	if !cfg.AuditLog.Enabled {
		return auditlog.Discard
	}
	return auditlog.NewFileSink(cfg.AuditLog.Path)
}

// setConfig installs cfg for subsequent requests.
func (s *server) setConfig(cfg *config.Config) {
	sink := s.sinkFor(cfg)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.sink = sink
}

func (s *server) current() (*config.Config, auditlog.Sink) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg, s.sink
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.uploadHandler)
	mux.HandleFunc("POST /evaluate", s.evaluateHandler)
	mux.HandleFunc("GET /report/{id}", s.reportHandler)
	mux.HandleFunc("POST /api/v1/evaluate", s.apiEvaluateHandler)
	mux.HandleFunc("GET /api/v1/health", healthHandler)
	mux.Handle("GET /metrics", s.metrics.Handler())
	return mux
}

// outcome is a successful upload evaluation.
type outcome struct {
	ev       *results.Evaluation
	upload   Upload
	logError string
}

// evaluateUpload reads the multipart upload, evaluates it, caches the result
// and appends it to the audit log. A failed log write does not fail the
// evaluation.
func (s *server) evaluateUpload(w http.ResponseWriter, r *http.Request) (*outcome, error) {
	cfg, sink := s.current()

	r.Body = http.MaxBytesReader(w, r.Body, cfg.Server.MaxUploadBytes)
	if err := r.ParseMultipartForm(cfg.Server.MaxUploadBytes); err != nil {
		return nil, &evalError{Reason: reasonInvalidRequest, Err: fmt.Errorf("file too large or malformed upload: %w", err)}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, &evalError{Reason: reasonInvalidRequest, Err: errors.New("no file uploaded")}
	}
	defer file.Close()

	up := Upload{FileName: header.Filename, FileSize: header.Size, UploadTime: s.now()}

	table, err := readTable(header.Filename, file)
	if err != nil {
		return nil, &evalError{Reason: reasonUnreadableFile, Err: fmt.Errorf("%s: %w", header.Filename, err)}
	}

	calc, err := applyOverrides(cfg.Lethality.Core(), r.Form)
	if err != nil {
		return nil, err
	}

	ev, err := performEvaluation(table, header.Filename, cfg, calc, up.UploadTime)
	if err != nil {
		return nil, err
	}

	s.store.Put(ev)
	status := auditlog.Status(ev.Result.HoldingTimeMet)
	s.metrics.ObserveEvaluation(status, ev.Result.F0Total)
	slog.Info("evaluation complete",
		"id", ev.ID,
		"source", ev.SourceName,
		"f0", ev.Result.F0Total,
		"status", status,
		"holding_minutes", ev.Result.HoldingMinutes,
		"gaps", len(ev.Extraction.Gaps),
	)

	out := &outcome{ev: ev, upload: up}
	if err := sink.Append(logRecord(ev)); err != nil {
		slog.Error("audit log write failed", "source", ev.SourceName, "err", err)
		s.metrics.ObserveAuditLogError()
		out.logError = err.Error()
	}
	return out, nil
}

// fail records a failed evaluation and returns the HTTP status for it.
func (s *server) fail(r *http.Request, err error) int {
	reason := failureReason(err)
	s.metrics.ObserveFailure(reason)
	slog.Warn("evaluation failed", "path", r.URL.Path, "reason", reason, "err", err)
	switch reason {
	case reasonAnchorNotFound, reasonColumnNotFound, reasonEmptySeries:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func (s *server) uploadPage(msg string) UploadPage {
	cfg, _ := s.current()
	return UploadPage{
		Error:   msg,
		Floor:   cfg.Lethality.Floor,
		Hold:    cfg.Lethality.HoldPolicy,
		MinTemp: cfg.Lethality.MinHoldTemp,
		MinHold: cfg.Lethality.MinHoldMinutes,
	}
}

func (s *server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	if err := uploadTemplate.Execute(w, s.uploadPage("")); err != nil {
		slog.Error("template error", "template", "upload", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (s *server) evaluateHandler(w http.ResponseWriter, r *http.Request) {
	out, err := s.evaluateUpload(w, r)
	if err != nil {
		w.WriteHeader(s.fail(r, err))
		if err := uploadTemplate.Execute(w, s.uploadPage(err.Error())); err != nil {
			slog.Error("template error", "template", "upload", "err", err)
		}
		return
	}

	page := ResultPage{
		Evaluation: out.ev,
		Status:     auditlog.Status(out.ev.Result.HoldingTimeMet),
		Rows:       minuteRows(out.ev),
		FileSize:   out.upload.FileSize,
		LogError:   out.logError,
		Timestamp:  out.ev.CreatedAt.Format("January 2, 2006 at 3:04 PM"),
	}
	if err := resultTemplate.Execute(w, page); err != nil {
		slog.Error("template error", "template", "results", "err", err)
		http.Error(w, "Failed to render results", http.StatusInternalServerError)
	}
}

func (s *server) reportHandler(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		http.Error(w, "Evaluation not found or expired", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, ev); err != nil {
		slog.Error("report generation failed", "id", ev.ID, "err", err)
		http.Error(w, "Failed to generate report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="laporan_validasi.xlsx"`)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("report download interrupted", "id", ev.ID, "err", err)
	}
}
