package llm

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Veraticus/the-spice-must-talk/internal/common"
)

const (
	modelExt = ".gguf"
	megabyte = int64(1 << 20)
)

// ModelFile is a model weight file found on disk.
type ModelFile struct {
	Name string
	Path string
	Size int64
}

// SizeMB returns the file size in megabytes.
func (f ModelFile) SizeMB() int64 {
	return f.Size / megabyte
}

// LocatorConfig lists where model files live.
type LocatorConfig struct {
	// Dirs are probed for <dir>/<id> and <dir>/<id>.gguf.
	Dirs []string
	// CacheDir is walked for .gguf files whose name contains the identifier.
	CacheDir  string
	MinSizeMB int64
	MaxSizeMB int64
}

type locateResult struct {
	err  error
	file ModelFile
}

// Locator maps a model identifier to a file on disk. Results, misses
// included, are cached per identifier until Invalidate.
type Locator struct {
	logger *slog.Logger
	cache  map[string]locateResult
	cfg    LocatorConfig
	mu     sync.Mutex
}

// NewLocator creates a locator over the configured directories.
func NewLocator(cfg LocatorConfig, logger *slog.Logger) *Locator {
	return &Locator{
		cfg:    cfg,
		logger: common.OrDefault(logger),
		cache:  make(map[string]locateResult),
	}
}

// Locate resolves id to a model file. Probing order: id as a path, then
// <dir>/<id> and <dir>/<id>.gguf for every local dir, then a walk of the
// cache dir. A miss wraps common.ErrNotFound.
func (l *Locator) Locate(id string) (ModelFile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ModelFile{}, fmt.Errorf("empty model identifier: %w", common.ErrNotFound)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if cached, ok := l.cache[id]; ok {
		return cached.file, cached.err
	}

	file, err := l.probe(id)
	l.cache[id] = locateResult{file: file, err: err}
	if err != nil {
		l.logger.Debug("model not found", "id", id)
	} else {
		l.logger.Debug("model located", "id", id, "path", file.Path, "size_mb", file.SizeMB())
	}
	return file, err
}

func (l *Locator) probe(id string) (ModelFile, error) {
	if file, ok := statModel(id); ok {
		return file, nil
	}

	for _, dir := range l.cfg.Dirs {
		for _, candidate := range []string{filepath.Join(dir, id), filepath.Join(dir, id+modelExt)} {
			if file, ok := statModel(candidate); ok {
				return file, nil
			}
		}
	}

	needle := strings.ToLower(strings.TrimSuffix(filepath.Base(id), modelExt))
	for _, file := range l.walk(l.cfg.CacheDir) {
		if strings.Contains(strings.ToLower(file.Name), needle) {
			return file, nil
		}
	}

	return ModelFile{}, fmt.Errorf("model %q: %w", id, common.ErrNotFound)
}

// List enumerates every model file in the local dirs and the cache dir,
// sorted by name.
func (l *Locator) List() []ModelFile {
	seen := make(map[string]bool)
	var files []ModelFile
	for _, dir := range append(append([]string{}, l.cfg.Dirs...), l.cfg.CacheDir) {
		for _, file := range l.walk(dir) {
			if !seen[file.Path] {
				seen[file.Path] = true
				files = append(files, file)
			}
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files
}

// Invalidate drops every cached lookup.
func (l *Locator) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]locateResult)
}

// walk returns the .gguf files under root whose size is within range.
// Unreadable subtrees are skipped.
func (l *Locator) walk(root string) []ModelFile {
	if root == "" {
		return nil
	}
	var files []ModelFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), modelExt) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if l.inRange(info.Size()) {
			files = append(files, ModelFile{Name: d.Name(), Path: path, Size: info.Size()})
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		l.logger.Warn("failed to scan model directory", "dir", root, "error", err)
	}
	return files
}

func (l *Locator) inRange(size int64) bool {
	if l.cfg.MinSizeMB > 0 && size < l.cfg.MinSizeMB*megabyte {
		return false
	}
	if l.cfg.MaxSizeMB > 0 && size > l.cfg.MaxSizeMB*megabyte {
		return false
	}
	return true
}

func statModel(path string) (ModelFile, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ModelFile{}, false
	}
	return ModelFile{Name: filepath.Base(path), Path: path, Size: info.Size()}, true
}
