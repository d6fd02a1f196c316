package metrics

import (
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/disk"

	"media-library/internal/logging"
)

// StatsProvider supplies library-wide counts for the gauges.
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current statistics
type Stats struct {
	Categories     int
	Videos         int
	Images         int
	HistoryEntries int
	ThumbnailCount int
	ThumbnailBytes int64
	QueuedThumbs   int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	volumes       map[string]string
	interval      time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
	usage         func(path string) (*disk.UsageStat, error)
}

// NewCollector creates a collector. volumes maps a volume label to a
// directory whose file system is reported by the disk gauges.
func NewCollector(provider StatsProvider, volumes map[string]string, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		volumes:       volumes,
		interval:      interval,
		stopChan:      make(chan struct{}),
		usage:         disk.Usage,
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection. It is safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	c.collectDisk()

	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	LibraryCategoriesTotal.Set(float64(stats.Categories))
	LibraryMediaTotal.WithLabelValues("video").Set(float64(stats.Videos))
	LibraryMediaTotal.WithLabelValues("image").Set(float64(stats.Images))
	HistoryEntries.Set(float64(stats.HistoryEntries))
	ThumbnailCacheCount.Set(float64(stats.ThumbnailCount))
	ThumbnailCacheSizeBytes.Set(float64(stats.ThumbnailBytes))
	ThumbnailQueueDepth.Set(float64(stats.QueuedThumbs))

	logging.Debug("Metrics collected: categories=%d, videos=%d, images=%d, history=%d, thumbnails=%d",
		stats.Categories, stats.Videos, stats.Images, stats.HistoryEntries, stats.ThumbnailCount)
}

func (c *Collector) collectDisk() {
	for label, path := range c.volumes {
		u, err := c.usage(path)
		if err != nil {
			logging.Debug("Disk usage unavailable for %s (%s): %v", label, path, err)
			continue
		}
		DiskFreeBytes.WithLabelValues(label).Set(float64(u.Free))
		DiskUsedPercent.WithLabelValues(label).Set(u.UsedPercent)
	}
}
