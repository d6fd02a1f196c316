package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"media-library/internal/events"
	"media-library/internal/library"
	"media-library/internal/logging"
	"media-library/internal/mediatypes"
	"media-library/internal/thumbnail"
)

type libraryPathRequest struct {
	Path string `json:"path"`
}

type renameRequest struct {
	NewName string `json:"newName"`
}

// GetLibrary returns the current library root.
func (h *Handlers) GetLibrary(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, libraryPathRequest{Path: h.library.Root()})
}

// SetLibrary switches the library root, persists it and re-arms the watcher.
func (h *Handlers) SetLibrary(w http.ResponseWriter, r *http.Request) {
	var req libraryPathRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	if err := h.library.SetRoot(req.Path); err != nil {
		writeError(w, err)
		return
	}
	root := h.library.Root()

	if h.store != nil {
		if err := h.store.SetLibraryPath(r.Context(), root); err != nil {
			logging.Error("Failed to persist library path: %v", err)
		}
	}

	h.mu.Lock()
	h.view = ""
	h.mu.Unlock()
	if h.thumbs != nil {
		h.thumbs.Clear()
	}

	if h.watcher != nil {
		if err := h.watcher.Start(root); err != nil {
			logging.Warn("Failed to watch %s: %v", root, err)
		}
	}

	h.publish(events.TypeLibraryChanged, events.LibraryChanged{Op: "root"})
	writeJSONResponse(w, http.StatusOK, libraryPathRequest{Path: root})
}

// ListCategories returns the category names of the library.
func (h *Handlers) ListCategories(w http.ResponseWriter, _ *http.Request) {
	names, err := h.library.Categories()
	if err != nil {
		writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSONResponse(w, http.StatusOK, names)
}

// ListCategory returns the media of one category and queues previews for
// videos that have none. The category becomes the current view.
func (h *Handlers) ListCategory(w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]

	items, err := h.library.ListMedia(category)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setView(category)
	if queued := h.enqueueMissing(items); queued > 0 {
		logging.Debug("Queued %d thumbnails for %s", queued, category)
	}

	writeJSONResponse(w, http.StatusOK, items)
}

// enqueueMissing queues every video in items without a cached preview.
func (h *Handlers) enqueueMissing(items []library.MediaItem) int {
	if h.thumbs == nil {
		return 0
	}
	var pending []thumbnail.Item
	for _, item := range items {
		if item.Type == mediatypes.FileTypeVideo && item.Thumbnail == "" {
			pending = append(pending, thumbnail.Item{
				Name:     item.Name,
				Category: item.Category,
				Locator:  item.FullPath,
			})
		}
	}
	if len(pending) == 0 {
		return 0
	}
	return h.thumbs.Enqueue(pending...)
}

// RenameFile renames a file inside its category, keeping its extension.
func (h *Handlers) RenameFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	category, name := vars["category"], vars["name"]

	var req renameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	finalName, err := h.library.Rename(category, name, req.NewName)
	if err != nil {
		writeError(w, err)
		return
	}

	if finalName != name {
		h.publish(events.TypeLibraryChanged, events.LibraryChanged{Category: category, Name: finalName, Op: "rename"})
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"name": finalName})
}

// DeleteFile removes a file together with its ledger entry and preview.
func (h *Handlers) DeleteFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	category, name := vars["category"], vars["name"]

	if err := h.library.Delete(category, name); err != nil {
		writeError(w, err)
		return
	}

	h.publish(events.TypeLibraryChanged, events.LibraryChanged{Category: category, Name: name, Op: "remove"})
	w.WriteHeader(http.StatusNoContent)
}

// ServeMedia serves a media file. Range requests are handled by
// http.ServeContent.
func (h *Handlers) ServeMedia(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	path, err := h.library.FilePath(vars["category"], vars["name"])
	if err != nil {
		writeError(w, err)
		return
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeJSONError(w, "File not found", http.StatusNotFound)
			return
		}
		writeError(w, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", mediatypes.GetMimeType(strings.ToLower(filepath.Ext(path))))
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}

// RequeueView queues previews for every video of the current view.
func (h *Handlers) RequeueView() int {
	view := h.CurrentView()
	if view == "" {
		return 0
	}
	items, err := h.library.ListMedia(view)
	if err != nil {
		logging.Warn("Failed to list %s for thumbnail requeue: %v", view, err)
		return 0
	}
	return h.enqueueMissing(items)
}
