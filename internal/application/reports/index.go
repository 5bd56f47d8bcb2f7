package reports

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	domain "github.com/bryanwahyu/auditlens/internal/domain/reports"
	"github.com/bryanwahyu/auditlens/internal/metrics"
)

const markdownExt = ".md"

// docSnapshot is an immutable view of the explanation directory.
type docSnapshot struct {
	paths map[string]string // normalized key -> file path
	keys  []string          // sorted, for deterministic scoring
}

// DocumentIndex maps normalized markdown base names to their paths.
// It scans the directory once and never refreshes; documents added later
// need a process restart.
type DocumentIndex struct {
	dir    string
	logger *slog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	snap  *docSnapshot
}

func NewDocumentIndex(dir string, logger *slog.Logger) *DocumentIndex {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DocumentIndex{dir: dir, logger: logger}
}

// Lookup returns the path stored under an exact normalized key.
func (d *DocumentIndex) Lookup(ctx context.Context, key string) (string, bool) {
	p, ok := d.snapshot(ctx).paths[key]
	return p, ok
}

// Len reports how many documents are indexed, building the index if needed.
func (d *DocumentIndex) Len(ctx context.Context) int {
	return len(d.snapshot(ctx).keys)
}

func (d *DocumentIndex) snapshot(_ context.Context) *docSnapshot {
	d.mu.RLock()
	snap := d.snap
	d.mu.RUnlock()
	if snap != nil {
		return snap
	}

	v, _, _ := d.group.Do("build", func() (any, error) {
		d.mu.RLock()
		existing := d.snap
		d.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		built := d.build()
		d.mu.Lock()
		d.snap = built
		d.mu.Unlock()
		metrics.SetDocumentsIndexed(len(built.keys))
		return built, nil
	})
	return v.(*docSnapshot)
}

func (d *DocumentIndex) build() *docSnapshot {
	snap := &docSnapshot{paths: make(map[string]string)}

	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			d.logger.Debug("explanation directory missing", "dir", d.dir)
		} else {
			d.logger.Warn("explanation directory unreadable", "dir", d.dir, "error", err)
		}
		return snap
	}

	// ReadDir is sorted by name, so on key collisions the last name wins.
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(name), markdownExt) {
			continue
		}
		key := domain.Normalize(name[:len(name)-len(markdownExt)])
		if key == "" {
			continue
		}
		snap.paths[key] = filepath.Join(d.dir, name)
	}

	snap.keys = make([]string, 0, len(snap.paths))
	for k := range snap.paths {
		snap.keys = append(snap.keys, k)
	}
	sort.Strings(snap.keys)

	d.logger.Info("explanation index built", "dir", d.dir, "documents", len(snap.keys))
	return snap
}
