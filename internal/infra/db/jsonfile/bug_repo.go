package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	domain "github.com/bryanwahyu/auditlens/internal/domain/bugs"
)

// BugRepository keeps bug records as a JSON array in a single file.
type BugRepository struct {
	path string
	mu   sync.Mutex
}

func NewBugRepository(path string) *BugRepository {
	return &BugRepository{path: path}
}

// Save inserts or replaces the record with the same ID.
func (r *BugRepository) Save(_ context.Context, b *domain.Bug) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.read()
	if err != nil {
		return err
	}
	replaced := false
	for i := range list {
		if list[i].ID == b.ID {
			list[i] = *b
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, *b)
	}
	return r.write(list)
}

func (r *BugRepository) Get(_ context.Context, id domain.BugID) (*domain.Bug, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.read()
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			b := list[i]
			return &b, nil
		}
	}
	return nil, domain.ErrNotFound
}

// List returns newest first; limit <= 0 means all.
func (r *BugRepository) List(_ context.Context, limit int) ([]*domain.Bug, error) {
	r.mu.Lock()
	list, err := r.read()
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].UploadedAt.After(list[j].UploadedAt)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	out := make([]*domain.Bug, len(list))
	for i := range list {
		out[i] = &list[i]
	}
	return out, nil
}

func (r *BugRepository) read() ([]domain.Bug, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var list []domain.Bug
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	return list, nil
}

// write replaces the file atomically via a temp file in the same directory.
func (r *BugRepository) write(list []domain.Bug) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".bugs-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), r.path)
}
