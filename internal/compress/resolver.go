package compress

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"media-library/internal/library"
)

// Resolve expands a job's scope into candidate files in processing order.
// A target that does not exist yields no candidates and no error.
func Resolve(root string, job Job) ([]library.FileTask, error) {
	switch job.Scope {
	case ScopeSingle:
		return resolveSingle(root, job.FilePath)
	case ScopeCategory:
		if err := library.ValidateName(job.Category); err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrInvalidJob)
		}
		return library.VideoTasks(filepath.Join(root, job.Category))
	case ScopeAll:
		categories, err := library.CategoryNames(root)
		if err != nil {
			return nil, err
		}
		var tasks []library.FileTask
		for _, category := range categories {
			found, err := library.VideoTasks(filepath.Join(root, category))
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, found...)
		}
		return tasks, nil
	default:
		return nil, fmt.Errorf("unknown scope %q: %w", job.Scope, ErrInvalidJob)
	}
}

// resolveSingle accepts an absolute path or one relative to the library root.
func resolveSingle(root, path string) ([]library.FileTask, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, nil
	}
	return []library.FileTask{{
		Name:      filepath.Base(path),
		Directory: filepath.Dir(path),
		FullPath:  path,
	}}, nil
}
