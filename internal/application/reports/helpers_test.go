package reports

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/auditlens/internal/domain/reports"
)

type fakeSource struct {
	reports []domain.Report
	err     error
	delay   time.Duration
	calls   atomic.Int32
}

func (f *fakeSource) Load(context.Context) ([]domain.Report, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Report, len(f.reports))
	copy(out, f.reports)
	return out, nil
}

// docsDir creates a directory holding one markdown file per name.
func docsDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("# "+n+"\n"), 0o644))
	}
	return dir
}
