package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"media-library/internal/compress"
	"media-library/internal/database"
	"media-library/internal/events"
	"media-library/internal/logging"
	"media-library/internal/quality"
)

type compressRequest struct {
	Scope    string `json:"scope"`
	Category string `json:"category"`
	Codec    string `json:"codec"`
	Path     string `json:"path"`
}

// StartCompression starts a compression run in the background.
func (h *Handlers) StartCompression(w http.ResponseWriter, r *http.Request) {
	var req compressRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	scope, err := compress.ParseScope(req.Scope)
	if err != nil {
		writeError(w, err)
		return
	}
	codec, err := quality.ParseCodec(req.Codec)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	job := compress.Job{Scope: scope, Category: req.Category, Codec: codec, FilePath: req.Path}

	progress := func(p compress.Progress) {
		h.publish(events.TypeCompressProgress, p)
	}
	done := func(res compress.Result) {
		h.recordRun(job, res)
		h.publish(events.TypeCompressDone, res)
	}

	if err := h.compressor.RunAsync(h.ctx, job, progress, done); err != nil {
		writeError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusAccepted, h.compressor.Status())
}

// CancelCompression requests cancellation of the active run, if any.
func (h *Handlers) CancelCompression(w http.ResponseWriter, _ *http.Request) {
	h.compressor.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// CompressionStatus reports the active run and the last result.
func (h *Handlers) CompressionStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, h.compressor.Status())
}

// ListRuns returns the most recent finished runs, newest first.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSONResponse(w, http.StatusOK, []database.RunRecord{})
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.store.RecentRuns(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if runs == nil {
		runs = []database.RunRecord{}
	}
	writeJSONResponse(w, http.StatusOK, runs)
}

// ListHistory returns the paths recorded in the history ledger. It is served
// from memory; the ledger file is only read at startup.
func (h *Handlers) ListHistory(w http.ResponseWriter, _ *http.Request) {
	paths := h.ledger.Paths()
	if paths == nil {
		paths = []string{}
	}
	writeJSONResponse(w, http.StatusOK, paths)
}

func (h *Handlers) recordRun(job compress.Job, res compress.Result) {
	if h.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := h.store.RecordRun(ctx, database.NewRunRecord(job, res, time.Now().Add(-res.Duration)))
	if err != nil {
		logging.Error("Failed to record compression run: %v", err)
	}
}
