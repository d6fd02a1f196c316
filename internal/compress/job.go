package compress

import (
	"errors"
	"fmt"
	"strings"

	"media-library/internal/library"
	"media-library/internal/quality"
)

// Scope selects which part of the library a job covers.
type Scope string

const (
	// ScopeSingle targets one file.
	ScopeSingle Scope = "single"
	// ScopeCategory targets every video directly inside one category.
	ScopeCategory Scope = "category"
	// ScopeAll targets every category of the library.
	ScopeAll Scope = "all"
)

var (
	// ErrInvalidJob is returned for jobs that fail validation.
	ErrInvalidJob = errors.New("invalid compression job")
	// ErrRunActive is returned when a run is started while another is active.
	ErrRunActive = errors.New("a compression run is already active")
)

// ParseScope accepts a scope name in any case.
func ParseScope(s string) (Scope, error) {
	switch sc := Scope(strings.ToLower(strings.TrimSpace(s))); sc {
	case ScopeSingle, ScopeCategory, ScopeAll:
		return sc, nil
	default:
		return "", fmt.Errorf("unknown scope %q (want single, category or all): %w", s, ErrInvalidJob)
	}
}

// Job is the input of one compression run. It is not modified by the run.
type Job struct {
	Scope    Scope         `json:"scope"`
	Category string        `json:"category,omitempty"`
	Codec    quality.Codec `json:"codec"`
	FilePath string        `json:"path,omitempty"`
}

// Normalize returns the job with its scope and codec in canonical lower case
// and the category trimmed. Unknown values are left for Validate to reject.
func (j Job) Normalize() Job {
	if sc, err := ParseScope(string(j.Scope)); err == nil {
		j.Scope = sc
	}
	if c, err := quality.ParseCodec(string(j.Codec)); err == nil {
		j.Codec = c
	}
	j.Category = strings.TrimSpace(j.Category)
	return j
}

// Validate checks that the job names a canonical scope and codec and carries
// the field its scope needs. A category must be a single directory name
// inside the library.
func (j Job) Validate() error {
	switch j.Scope {
	case ScopeSingle, ScopeCategory, ScopeAll:
	default:
		return fmt.Errorf("unknown scope %q (want single, category or all): %w", j.Scope, ErrInvalidJob)
	}
	known := false
	for _, c := range quality.Codecs {
		known = known || j.Codec == c
	}
	if !known {
		return fmt.Errorf("unknown codec %q (want one of av1, hevc, h264, cpu): %w", j.Codec, ErrInvalidJob)
	}
	switch j.Scope {
	case ScopeCategory:
		if strings.TrimSpace(j.Category) == "" {
			return fmt.Errorf("category scope requires a category: %w", ErrInvalidJob)
		}
		if err := library.ValidateName(j.Category); err != nil {
			return fmt.Errorf("invalid category: %v: %w", err, ErrInvalidJob)
		}
	case ScopeSingle:
		if strings.TrimSpace(j.FilePath) == "" {
			return fmt.Errorf("single scope requires a file path: %w", ErrInvalidJob)
		}
	}
	return nil
}

func (j Job) String() string {
	switch j.Scope {
	case ScopeSingle:
		return fmt.Sprintf("%s %s (%s)", j.Scope, j.FilePath, j.Codec)
	case ScopeCategory:
		return fmt.Sprintf("%s %s (%s)", j.Scope, j.Category, j.Codec)
	default:
		return fmt.Sprintf("%s (%s)", j.Scope, j.Codec)
	}
}
