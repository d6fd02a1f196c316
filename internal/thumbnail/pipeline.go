package thumbnail

import (
	"context"
	"errors"
	"time"

	"github.com/disintegration/imaging"

	"media-library/internal/logging"
	"media-library/internal/metrics"
)

const (
	// CaptureOffset is how far into a video the preview frame is taken.
	CaptureOffset = 5 * time.Second
	// Width and Height are the preview dimensions.
	Width  = 320
	Height = 180
	// DefaultCaptureTimeout bounds a single capture.
	DefaultCaptureTimeout = 30 * time.Second
)

// Gate holds captures back, for example under memory pressure. Wait
// returns early with ctx's error.
type Gate interface {
	Wait(ctx context.Context) error
}

// CapturedFunc is called after a preview has been stored for item.
type CapturedFunc func(item Item, cacheName string)

// Pipeline drains a thumbnail queue one item at a time.
type Pipeline struct {
	source     FrameSource
	cache      *Cache
	onCaptured CapturedFunc
	queue      *Queue
	notify     chan struct{}
	timeout    time.Duration
	gate       Gate
}

// New creates a pipeline. onCaptured may be nil.
func New(source FrameSource, cache *Cache, onCaptured CapturedFunc) *Pipeline {
	return &Pipeline{
		source:     source,
		cache:      cache,
		onCaptured: onCaptured,
		queue:      NewQueue(),
		notify:     make(chan struct{}, 1),
		timeout:    DefaultCaptureTimeout,
	}
}

// SetCaptureTimeout changes the per-capture timeout. It must be called before
// Run.
func (p *Pipeline) SetCaptureTimeout(d time.Duration) {
	if d > 0 {
		p.timeout = d
	}
}

// SetGate installs a gate consulted before each capture. It must be called
// before Run.
func (p *Pipeline) SetGate(g Gate) {
	p.gate = g
}

// Cache returns the pipeline's cache.
func (p *Pipeline) Cache() *Cache {
	return p.cache
}

// Enqueue appends items and wakes the consumer. It returns how many items
// were added.
func (p *Pipeline) Enqueue(items ...Item) int {
	added := p.queue.Push(items...)
	metrics.ThumbnailQueueDepth.Set(float64(p.queue.Len()))
	if added > 0 {
		select {
		case p.notify <- struct{}{}:
		default:
		}
	}
	return added
}

// Clear drops everything still queued. A capture already in progress
// finishes.
func (p *Pipeline) Clear() int {
	n := p.queue.Clear()
	metrics.ThumbnailQueueDepth.Set(0)
	if n > 0 {
		logging.Debug("Thumbnail queue cleared (%d pending)", n)
	}
	return n
}

// Len returns the number of queued items.
func (p *Pipeline) Len() int {
	return p.queue.Len()
}

// Run consumes the queue until ctx is done.
func (p *Pipeline) Run(ctx context.Context) {
	logging.Info("Thumbnail pipeline started (timeout %v)", p.timeout)
	defer logging.Info("Thumbnail pipeline stopped")

	for {
		item, ok := p.queue.Pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-p.notify:
				continue
			}
		}
		metrics.ThumbnailQueueDepth.Set(float64(p.queue.Len()))

		if p.gate != nil {
			if err := p.gate.Wait(ctx); err != nil {
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
		p.process(ctx, item)
	}
}

func (p *Pipeline) process(ctx context.Context, item Item) {
	if p.cache.Exists(item.Name) {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("skipped").Inc()
		p.captured(item, p.cache.CacheName(item.Name))
		return
	}

	start := time.Now()
	captureCtx, cancel := context.WithTimeout(ctx, p.timeout)
	img, err := p.source.Capture(captureCtx, item.Locator, CaptureOffset)
	timedOut := errors.Is(captureCtx.Err(), context.DeadlineExceeded)
	cancel()

	if err != nil {
		status := "error"
		if timedOut {
			status = "timeout"
		}
		metrics.ThumbnailGenerationsTotal.WithLabelValues(status).Inc()
		logging.Warn("Thumbnail capture failed for %s: %v", item.Name, err)
		return
	}

	thumb := imaging.Fill(img, Width, Height, imaging.Center, imaging.Lanczos)
	cacheName, err := p.cache.Store(item.Name, thumb)
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		logging.Error("Failed to store thumbnail for %s: %v", item.Name, err)
		return
	}

	metrics.ThumbnailGenerationsTotal.WithLabelValues("success").Inc()
	metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())
	logging.Debug("Thumbnail stored for %s in %v", item.Name, time.Since(start))
	p.captured(item, cacheName)
}

func (p *Pipeline) captured(item Item, cacheName string) {
	if p.onCaptured != nil {
		p.onCaptured(item, cacheName)
	}
}
