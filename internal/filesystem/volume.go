package filesystem

import (
	"path/filepath"
	"sort"
	"strings"
)

// UnknownVolume is the label returned for paths outside every known volume.
const UnknownVolume = "unknown"

// VolumeResolver maps file paths to volume labels ("library", "cache",
// "scratch", ...) for metric labelling. The most specific root wins.
type VolumeResolver struct {
	roots []volumeRoot
}

type volumeRoot struct {
	dir  string // cleaned absolute path, no trailing separator
	name string
}

// NewVolumeResolver creates a resolver from a map of volume label to directory.
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	roots := make([]volumeRoot, 0, len(volumes))
	for name, dir := range volumes {
		if dir == "" {
			continue
		}
		roots = append(roots, volumeRoot{dir: absClean(dir), name: name})
	}

	sort.Slice(roots, func(i, j int) bool {
		if len(roots[i].dir) != len(roots[j].dir) {
			return len(roots[i].dir) > len(roots[j].dir)
		}
		return roots[i].name < roots[j].name
	})

	return &VolumeResolver{roots: roots}
}

// Resolve returns the volume label for path, or UnknownVolume.
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil || path == "" {
		return UnknownVolume
	}

	p := absClean(path)
	for _, root := range vr.roots {
		if p == root.dir || strings.HasPrefix(p, root.dir+string(filepath.Separator)) {
			return root.name
		}
	}
	return UnknownVolume
}

func absClean(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

var defaultResolver *VolumeResolver

// SetDefaultVolumeResolver sets the package-level volume resolver.
// Call this at startup and again whenever the library root changes.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver = vr
}
