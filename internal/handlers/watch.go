package handlers

import (
	"media-library/internal/events"
	"media-library/internal/mediatypes"
	"media-library/internal/thumbnail"
	"media-library/internal/watcher"
)

// LibraryChanged is the watcher callback. Every change is announced, and
// new videos in the current view are queued for previews.
func (h *Handlers) LibraryChanged(changes []watcher.Change) {
	view := h.CurrentView()
	var pending []thumbnail.Item

	for _, c := range changes {
		h.publish(events.TypeLibraryChanged, events.LibraryChanged{
			Category: c.Category,
			Name:     c.Name,
			Op:       c.Op,
		})

		if c.Category != view || c.Name == "" || !mediatypes.IsVideo(c.Name) {
			continue
		}
		if c.Op != "create" && c.Op != "write" {
			continue
		}
		if h.thumbs == nil || h.thumbs.Cache().Exists(c.Name) {
			continue
		}
		pending = append(pending, thumbnail.Item{Name: c.Name, Category: c.Category, Locator: c.Path})
	}

	if len(pending) > 0 {
		h.thumbs.Enqueue(pending...)
	}
}
