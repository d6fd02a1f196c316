package handlers

import (
	"context"
	"sync"

	"media-library/internal/compress"
	"media-library/internal/database"
	"media-library/internal/events"
	"media-library/internal/history"
	"media-library/internal/library"
	"media-library/internal/thumbnail"
)

// Watcher is re-armed whenever the library root changes.
type Watcher interface {
	Start(root string) error
}

// Publisher broadcasts events to connected clients.
type Publisher interface {
	Publish(eventType string, data interface{})
}

// Config collects the components the handlers drive. Watcher, Events and
// Store may be nil.
type Config struct {
	Library    *library.Library
	Compressor *compress.Orchestrator
	Thumbnails *thumbnail.Pipeline
	Ledger     *history.Ledger
	Store      *database.Database
	Events     Publisher
	Watcher    Watcher
}

type Handlers struct {
	ctx        context.Context
	library    *library.Library
	compressor *compress.Orchestrator
	thumbs     *thumbnail.Pipeline
	ledger     *history.Ledger
	store      *database.Database
	events     Publisher
	watcher    Watcher

	mu   sync.Mutex
	view string
}

// New creates the handlers. Compression runs started over HTTP are bound to
// ctx, so cancelling it cancels an active run.
func New(ctx context.Context, cfg Config) *Handlers {
	return &Handlers{
		ctx:        ctx,
		library:    cfg.Library,
		compressor: cfg.Compressor,
		thumbs:     cfg.Thumbnails,
		ledger:     cfg.Ledger,
		store:      cfg.Store,
		events:     cfg.Events,
		watcher:    cfg.Watcher,
	}
}

// CurrentView returns the category most recently listed, or "".
func (h *Handlers) CurrentView() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.view
}

// setView records category as the current view. Leaving a category drops
// thumbnails still queued for it.
func (h *Handlers) setView(category string) {
	h.mu.Lock()
	changed := h.view != category
	h.view = category
	h.mu.Unlock()

	if changed && h.thumbs != nil {
		h.thumbs.Clear()
	}
}

func (h *Handlers) publish(eventType string, data interface{}) {
	if h.events != nil {
		h.events.Publish(eventType, data)
	}
}

var _ Publisher = (*events.Hub)(nil)
