package records

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	domain "github.com/bryanwahyu/auditlens/internal/domain/reports"
)

// FileSource reads report records from a JSON array on disk.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Load decodes the array. Elements that are not objects become empty
// records so positions (and placeholder slugs) stay stable.
func (s *FileSource) Load(_ context.Context) ([]domain.Report, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSourceUnavailable, s.Path)
		}
		return nil, fmt.Errorf("read records %s: %w", s.Path, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: %s", domain.ErrMalformedSource, s.Path)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedSource, s.Path, err)
	}

	out := make([]domain.Report, len(items))
	for i, raw := range items {
		var r domain.Report
		if err := json.Unmarshal(raw, &r); err == nil {
			out[i] = r
		}
	}
	return out, nil
}
