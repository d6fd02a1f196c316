package handlers

import (
	"media-library/internal/logging"
	"media-library/internal/mediatypes"
	"media-library/internal/metrics"
)

var _ metrics.StatsProvider = (*Handlers)(nil)

// GetStats counts the library for the metrics collector. Categories that
// fail to list are left out of the media counts.
func (h *Handlers) GetStats() metrics.Stats {
	var stats metrics.Stats
	if h.ledger != nil {
		stats.HistoryEntries = h.ledger.Len()
	}
	if h.thumbs != nil {
		stats.QueuedThumbs = h.thumbs.Len()
		stats.ThumbnailCount, stats.ThumbnailBytes = h.thumbs.Cache().Stats()
	}

	categories, err := h.library.Categories()
	if err != nil {
		logging.Warn("Stats: failed to list categories: %v", err)
		return stats
	}
	stats.Categories = len(categories)
	for _, category := range categories {
		items, err := h.library.ListMedia(category)
		if err != nil {
			logging.Debug("Stats: failed to list %s: %v", category, err)
			continue
		}
		for _, item := range items {
			switch item.Type {
			case mediatypes.FileTypeVideo:
				stats.Videos++
			case mediatypes.FileTypeImage:
				stats.Images++
			}
		}
	}
	return stats
}
