package bugs

import (
	"context"
	"io"
)

// Repository port for bug dataset metadata
type Repository interface {
	Save(ctx context.Context, b *Bug) error
	Get(ctx context.Context, id BugID) (*Bug, error)
	List(ctx context.Context, limit int) ([]*Bug, error)
}

// BlobStore port for the content-addressed file store
type BlobStore interface {
	Upload(ctx context.Context, r io.Reader, contentType string) (hash string, size int64, err error)
	Download(ctx context.Context, hash string) (io.ReadCloser, error)
}
