package library

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	// Image format decoders for dimension probing
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp" // WebP format support

	"media-library/internal/logging"
	"media-library/internal/mediatypes"
)

// CategoryNames lists the folders directly under root, in name order.
// Hidden folders are skipped. A missing root yields an empty list.
func CategoryNames(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read library root: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// VideoTasks lists the recognised video files directly inside dir, in name
// order. A missing dir yields an empty list.
func VideoTasks(dir string) ([]FileTask, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var tasks []FileTask
	for _, entry := range entries {
		if entry.IsDir() || !mediatypes.IsVideo(entry.Name()) {
			continue
		}
		tasks = append(tasks, FileTask{
			Name:      entry.Name(),
			Directory: dir,
			FullPath:  filepath.Join(dir, entry.Name()),
		})
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Name < tasks[j].Name })
	return tasks, nil
}

// scanCategory builds the listing for one category directory.
func scanCategory(category, dir string, thumbs ThumbnailStore) ([]MediaItem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	items := make([]MediaItem, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") || entry.IsDir() {
			continue
		}
		fileType := mediatypes.Classify(entry.Name())
		if fileType == mediatypes.FileTypeOther {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		item := MediaItem{
			Name:     entry.Name(),
			Category: category,
			Type:     fileType,
			FullPath: filepath.Join(dir, entry.Name()),
			Size:     info.Size(),
			ModTime:  info.ModTime(),
		}

		switch fileType {
		case mediatypes.FileTypeVideo:
			if thumbs != nil && thumbs.Exists(item.Name) {
				item.Thumbnail = thumbs.CacheName(item.Name)
			}
		case mediatypes.FileTypeImage:
			if w, h, err := imageDimensions(item.FullPath); err == nil {
				item.Width, item.Height = w, h
			} else {
				logging.Debug("Could not read dimensions of %s: %v", item.FullPath, err)
			}
		}

		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// imageDimensions returns image dimensions without fully decoding the image.
func imageDimensions(path string) (width, height int, err error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, err
	}
	return config.Width, config.Height, nil
}
