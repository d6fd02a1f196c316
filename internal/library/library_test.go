package library

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"media-library/internal/filesystem"
	"media-library/internal/mediatypes"
)

type fakeThumbs struct {
	existing map[string]bool
	renamed  [][2]string
	removed  []string
}

func (f *fakeThumbs) Exists(name string) bool      { return f.existing[name] }
func (f *fakeThumbs) CacheName(name string) string { return name + ".jpg" }
func (f *fakeThumbs) Rename(oldName, newName string) error {
	f.renamed = append(f.renamed, [2]string{oldName, newName})
	return nil
}
func (f *fakeThumbs) Remove(name string) error {
	f.removed = append(f.removed, name)
	return nil
}

type fakeHistory struct {
	migrated [][2]string
	forgot   []string
}

func (f *fakeHistory) Migrate(oldPath, newPath string) error {
	f.migrated = append(f.migrated, [2]string{oldPath, newPath})
	return nil
}
func (f *fakeHistory) Forget(path string) error {
	f.forgot = append(f.forgot, path)
	return nil
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func fastRetry() filesystem.LockRetryConfig {
	return filesystem.LockRetryConfig{MaxAttempts: 2, Delay: time.Millisecond}
}

func newTestLibrary(t *testing.T) (*Library, string, *fakeThumbs, *fakeHistory) {
	t.Helper()
	root := t.TempDir()
	thumbs := &fakeThumbs{existing: map[string]bool{}}
	hist := &fakeHistory{}
	lib := New(root, Options{Thumbnails: thumbs, History: hist, Retry: fastRetry()})
	return lib, root, thumbs, hist
}

func TestCategoryNames(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"Travel", "Anime", ".hidden"} {
		if err := os.Mkdir(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	touch(t, filepath.Join(root, "loose.mp4"))

	got, err := CategoryNames(root)
	if err != nil {
		t.Fatalf("CategoryNames: %v", err)
	}
	want := []string{"Anime", "Travel"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	missing, err := CategoryNames(filepath.Join(root, "nope"))
	if err != nil || len(missing) != 0 {
		t.Errorf("missing root: got %v, %v", missing, err)
	}
}

func TestVideoTasks(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.MKV", "a.mp4", "notes.txt", "c.jpg"} {
		touch(t, filepath.Join(dir, name))
	}
	touch(t, filepath.Join(dir, "nested", "d.mp4"))

	tasks, err := VideoTasks(dir)
	if err != nil {
		t.Fatalf("VideoTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2: %+v", len(tasks), tasks)
	}
	if tasks[0].Name != "a.mp4" || tasks[1].Name != "b.MKV" {
		t.Errorf("unexpected order: %+v", tasks)
	}
	if tasks[0].Directory != dir || tasks[0].FullPath != filepath.Join(dir, "a.mp4") {
		t.Errorf("unexpected task: %+v", tasks[0])
	}

	none, err := VideoTasks(filepath.Join(dir, "missing"))
	if err != nil || len(none) != 0 {
		t.Errorf("missing dir: got %v, %v", none, err)
	}
}

func TestListMedia(t *testing.T) {
	lib, root, thumbs, _ := newTestLibrary(t)
	cat := filepath.Join(root, "Travel")
	touch(t, filepath.Join(cat, "beach.mp4"))
	touch(t, filepath.Join(cat, "city.mkv"))
	touch(t, filepath.Join(cat, "readme.txt"))
	touch(t, filepath.Join(cat, ".DS_Store"))
	writePNG(t, filepath.Join(cat, "map.png"), 40, 30)
	thumbs.existing["beach.mp4"] = true

	items, err := lib.ListMedia("Travel")
	if err != nil {
		t.Fatalf("ListMedia: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3: %+v", len(items), items)
	}

	byName := map[string]MediaItem{}
	for _, it := range items {
		byName[it.Name] = it
	}
	if got := byName["beach.mp4"]; got.Type != mediatypes.FileTypeVideo || got.Thumbnail != "beach.mp4.jpg" {
		t.Errorf("beach.mp4 = %+v", got)
	}
	if got := byName["city.mkv"]; got.Thumbnail != "" {
		t.Errorf("city.mkv should have no thumbnail, got %q", got.Thumbnail)
	}
	if got := byName["map.png"]; got.Type != mediatypes.FileTypeImage || got.Width != 40 || got.Height != 30 {
		t.Errorf("map.png = %+v", got)
	}
	if byName["beach.mp4"].Category != "Travel" {
		t.Errorf("category = %q", byName["beach.mp4"].Category)
	}
}

func TestListMediaErrors(t *testing.T) {
	lib, _, _, _ := newTestLibrary(t)

	if _, err := lib.ListMedia("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing category: err = %v, want ErrNotFound", err)
	}
	if _, err := lib.ListMedia("../etc"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("traversal: err = %v, want ErrInvalidName", err)
	}
}

func TestRenameKeepsExtension(t *testing.T) {
	tests := []struct {
		name    string
		newName string
		want    string
	}{
		{"plain", "sunset", "sunset.mp4"},
		{"with extension", "sunset.mp4", "sunset.mp4"},
		{"upper extension", "sunset.MP4", "sunset.mp4"},
		{"different extension", "sunset.mkv", "sunset.mkv.mp4"},
		{"dots", "day.one", "day.one.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib, root, thumbs, hist := newTestLibrary(t)
			oldPath := filepath.Join(root, "Travel", "beach.mp4")
			touch(t, oldPath)

			got, err := lib.Rename("Travel", "beach.mp4", tt.newName)
			if err != nil {
				t.Fatalf("Rename: %v", err)
			}
			if got != tt.want {
				t.Errorf("final name = %q, want %q", got, tt.want)
			}

			newPath := filepath.Join(root, "Travel", tt.want)
			if _, err := os.Stat(newPath); err != nil {
				t.Errorf("renamed file missing: %v", err)
			}
			if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
				t.Errorf("old file still present")
			}
			if len(hist.migrated) != 1 || hist.migrated[0] != [2]string{oldPath, newPath} {
				t.Errorf("migrated = %v", hist.migrated)
			}
			if len(thumbs.renamed) != 1 || thumbs.renamed[0] != [2]string{"beach.mp4", tt.want} {
				t.Errorf("thumbnail renames = %v", thumbs.renamed)
			}
		})
	}
}

func TestRenameErrors(t *testing.T) {
	lib, root, _, hist := newTestLibrary(t)
	touch(t, filepath.Join(root, "Travel", "beach.mp4"))
	touch(t, filepath.Join(root, "Travel", "city.mp4"))

	if _, err := lib.Rename("Travel", "beach.mp4", "city"); !errors.Is(err, ErrExists) {
		t.Errorf("clash: err = %v, want ErrExists", err)
	}
	if _, err := lib.Rename("Travel", "beach.mp4", "../escape"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("separator: err = %v, want ErrInvalidName", err)
	}
	if _, err := lib.Rename("Travel", "beach.mp4", "   "); !errors.Is(err, ErrInvalidName) {
		t.Errorf("blank: err = %v, want ErrInvalidName", err)
	}
	if _, err := lib.Rename("Travel", "gone.mp4", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: err = %v, want ErrNotFound", err)
	}
	if len(hist.migrated) != 0 {
		t.Errorf("no migration expected, got %v", hist.migrated)
	}

	got, err := lib.Rename("Travel", "beach.mp4", "beach")
	if err != nil || got != "beach.mp4" {
		t.Errorf("same-name rename = %q, %v", got, err)
	}
}

func TestDelete(t *testing.T) {
	lib, root, thumbs, hist := newTestLibrary(t)
	path := filepath.Join(root, "Travel", "beach.mp4")
	touch(t, path)

	if err := lib.Delete("Travel", "beach.mp4"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file still present")
	}
	if len(hist.forgot) != 1 || hist.forgot[0] != path {
		t.Errorf("forgot = %v", hist.forgot)
	}
	if len(thumbs.removed) != 1 || thumbs.removed[0] != "beach.mp4" {
		t.Errorf("thumbnail removals = %v", thumbs.removed)
	}

	if err := lib.Delete("Travel", "beach.mp4"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestSetRoot(t *testing.T) {
	lib, _, _, _ := newTestLibrary(t)
	other := t.TempDir()

	if err := lib.SetRoot(other); err != nil {
		t.Fatalf("SetRoot: %v", err)
	}
	if lib.Root() != other {
		t.Errorf("Root = %q, want %q", lib.Root(), other)
	}

	if err := lib.SetRoot(filepath.Join(other, "missing")); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing root: err = %v, want ErrNotFound", err)
	}
	file := filepath.Join(other, "f.txt")
	touch(t, file)
	if err := lib.SetRoot(file); err == nil {
		t.Error("expected error for file root")
	}
	if lib.Root() != other {
		t.Errorf("root changed after failed SetRoot: %q", lib.Root())
	}
}

func TestWithExtension(t *testing.T) {
	tests := []struct{ name, ext, want string }{
		{"a", ".mp4", "a.mp4"},
		{"a.mp4", ".mp4", "a.mp4"},
		{".mp4", ".mp4", ""},
		{"a", "", "a"},
	}
	for _, tt := range tests {
		if got := withExtension(tt.name, tt.ext); got != tt.want {
			t.Errorf("withExtension(%q, %q) = %q, want %q", tt.name, tt.ext, got, tt.want)
		}
	}
}
