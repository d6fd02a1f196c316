// Package memory configures Go's memory limit inside containers and pauses
// thumbnail capture when the heap nears that limit.
//
// Call [ConfigureFromEnv] early in main, before significant allocations:
//
//   - GOMEMLIMIT: Standard Go variable; takes precedence when set.
//   - MEMORY_LIMIT: Container limit in bytes, typically from the Kubernetes
//     Downward API (resourceFieldRef: limits.memory).
//   - MEMORY_RATIO: Share of MEMORY_LIMIT given to the Go heap (default
//     0.85). Lower it when ffmpeg needs more headroom.
//
// A [Monitor] samples heap allocation against the limit. Above the critical
// watermark it closes its gate; [Monitor.Wait] then blocks until usage drops
// below the high watermark again.
package memory
