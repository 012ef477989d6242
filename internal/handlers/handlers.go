// Package handlers exposes the scan endpoints over HTTP and maps domain
// outcomes onto status codes: 204 when nothing was captured, 409 while
// another scan holds the device, 500 on any fault.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/lehigh-university-libraries/scanbridge/internal/bridge"
	"github.com/lehigh-university-libraries/scanbridge/internal/config"
	"github.com/lehigh-university-libraries/scanbridge/internal/guard"
	"github.com/lehigh-university-libraries/scanbridge/internal/pdfexport"
	"github.com/lehigh-university-libraries/scanbridge/internal/scan"
	"github.com/lehigh-university-libraries/scanbridge/internal/wire"
)

type Handler struct {
	// base is the server-lifecycle context. Scan operations run under it,
	// not under the request context: a client disconnect must not abort a
	// scan that is already driving the physical device. Only process
	// shutdown cancels it.
	base context.Context

	guard    *guard.Guard
	orch     *scan.Orchestrator
	exporter pdfexport.Exporter
	fg       bridge.Foregrounder
	cfg      config.Provider
}

func New(base context.Context, g *guard.Guard, orch *scan.Orchestrator, exporter pdfexport.Exporter, fg bridge.Foregrounder, cfg config.Provider) *Handler {
	if base == nil {
		base = context.Background()
	}
	return &Handler{
		base:     base,
		guard:    g,
		orch:     orch,
		exporter: exporter,
		fg:       fg,
		cfg:      cfg,
	}
}

// Routes builds the router. Unknown paths get 404 and wrong methods on
// known paths get 405, both before the scanner is touched.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(normalizePath)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/scan", h.HandleScan)
	r.Get("/batch-scan", h.HandleBatchScan)
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})

	return r
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// acquire claims the scanner for one request, or answers 409.
func (h *Handler) acquire(w http.ResponseWriter) bool {
	if !h.guard.TryAcquire() {
		h.writeError(w, "Scan already in progress", http.StatusConflict)
		return false
	}
	return true
}

func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	if !h.acquire(w) {
		return
	}
	defer h.guard.Release()

	h.fg.BringToFront()

	pages, err := h.orch.SingleScan(h.base)
	if errors.Is(err, scan.ErrNothingCaptured) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.writeError(w, "Scan failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer scan.CloseAll(pages)

	// Profile settings are read here, not at startup; the user may have
	// changed the separator or save path since the server came up.
	profile := h.cfg.Profile()
	groups := scan.Separate(pages, profile.Separator)

	parts, err := pdfexport.Package(h.base, groups, pdfexport.BaseName(profile.SavePath), h.exporter)
	if err != nil {
		h.writeError(w, "Export failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeParts(w, parts)
}

func (h *Handler) HandleBatchScan(w http.ResponseWriter, r *http.Request) {
	if !h.acquire(w) {
		return
	}
	defer h.guard.Release()

	h.fg.BringToFront()

	res, err := h.orch.BatchScan(h.base)
	if errors.Is(err, scan.ErrNothingCaptured) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.writeError(w, "Batch scan failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer res.Close()

	if res.FromFiles {
		h.writeParts(w, res.Files)
		return
	}

	batch := h.cfg.Batch()
	groups := scan.Separate(res.Pages, batch.Separator)

	parts, err := pdfexport.Package(h.base, groups, pdfexport.BaseName(batch.SavePath), h.exporter)
	if err != nil {
		h.writeError(w, "Export failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeParts(w, parts)
}

// writeParts streams the finished files as one multipart response. All
// parts are fully materialized before the status line is written, so a
// failure never leaves a truncated 200 unless the socket itself dies.
func (h *Handler) writeParts(w http.ResponseWriter, parts []wire.Part) {
	if len(parts) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if !wire.UniqueNames(parts) {
		h.writeError(w, "Duplicate output file names", http.StatusInternalServerError)
		return
	}

	enc, err := wire.NewEncoder(parts)
	if err != nil {
		h.writeError(w, "Encoding failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", enc.ContentType())
	w.Header().Set("Content-Length", strconv.FormatInt(enc.ContentLength(), 10))
	w.WriteHeader(http.StatusOK)

	if _, err := enc.WriteTo(w); err != nil {
		slog.Error("Failed to stream multipart response", "err", err)
	}
}
