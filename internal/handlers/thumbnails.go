package handlers

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"media-library/internal/events"
	"media-library/internal/logging"
	"media-library/internal/metrics"
	"media-library/internal/thumbnail"
)

// GetThumbnail serves a cached preview by cache name.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if name == "" {
		writeJSONError(w, "name is required", http.StatusBadRequest)
		return
	}

	path, ok := h.thumbs.Cache().PathForCacheName(name)
	if !ok {
		writeJSONError(w, "Thumbnail not found", http.StatusNotFound)
		return
	}
	if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
		writeJSONError(w, "Thumbnail not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, path)
}

// ClearThumbnails empties the cache and re-queues the current view.
func (h *Handlers) ClearThumbnails(w http.ResponseWriter, _ *http.Request) {
	h.thumbs.Clear()
	removed, err := h.thumbs.Cache().Clear()
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.ThumbnailCacheClearsTotal.Inc()
	logging.Info("Thumbnail cache cleared (%d files)", removed)

	queued := h.RequeueView()
	writeJSONResponse(w, http.StatusOK, map[string]int{
		"removed": removed,
		"queued":  queued,
	})
}

// ThumbnailCaptured is the pipeline callback. It announces the new preview.
func (h *Handlers) ThumbnailCaptured(item thumbnail.Item, cacheName string) {
	h.publish(events.TypeThumbnailReady, events.ThumbnailReady{
		Category:  item.Category,
		Name:      item.Name,
		Thumbnail: cacheName,
	})
}
