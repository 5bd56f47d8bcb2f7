package bugs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanwahyu/auditlens/internal/application"
	domain "github.com/bryanwahyu/auditlens/internal/domain/bugs"
	"github.com/bryanwahyu/auditlens/internal/metrics"
)

// Service implements the bug dataset use cases. Blob store failures are
// returned as-is; nothing here retries.
type Service struct {
	Repo   domain.Repository
	Blobs  domain.BlobStore
	Clock  application.Clock
	Logger *slog.Logger
}

// UploadCommand carries one incoming dataset file.
type UploadCommand struct {
	Name        string
	Filename    string
	ContentType string
	Description string
	Body        io.Reader
}

// Upload stores the file in the blob store and records its metadata.
func (s *Service) Upload(ctx context.Context, cmd UploadCommand) (*domain.Bug, error) {
	contentType := cmd.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	hash, size, err := s.Blobs.Upload(ctx, cmd.Body, contentType)
	if err != nil {
		metrics.IncBugUpload(false)
		return nil, fmt.Errorf("upload blob: %w", err)
	}
	if size == 0 {
		metrics.IncBugUpload(false)
		return nil, domain.ErrEmptyUpload
	}

	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		name = strings.TrimSuffix(cmd.Filename, filepath.Ext(cmd.Filename))
	}

	b := &domain.Bug{
		ID:          domain.BugID(uuid.New().String()),
		Name:        name,
		Filename:    cmd.Filename,
		Description: cmd.Description,
		ContentHash: hash,
		ContentType: contentType,
		Size:        size,
		UploadedAt:  s.Clock.Now().UTC(),
	}
	if err := s.Repo.Save(ctx, b); err != nil {
		metrics.IncBugUpload(false)
		return nil, fmt.Errorf("save bug %s: %w", b.ID, err)
	}

	metrics.IncBugUpload(true)
	s.logger().Info("bug dataset stored", "id", b.ID, "hash", hash, "size", size)
	return b, nil
}

// List returns the most recent datasets first.
func (s *Service) List(ctx context.Context, limit int) ([]*domain.Bug, error) {
	return s.Repo.List(ctx, limit)
}

// Get returns one dataset record.
func (s *Service) Get(ctx context.Context, id domain.BugID) (*domain.Bug, error) {
	return s.Repo.Get(ctx, id)
}

// Download opens the dataset file. The caller closes the reader.
func (s *Service) Download(ctx context.Context, id domain.BugID) (*domain.Bug, io.ReadCloser, error) {
	b, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.Blobs.Download(ctx, b.ContentHash)
	if err != nil {
		return nil, nil, fmt.Errorf("download blob %s: %w", b.ContentHash, err)
	}
	return b, rc, nil
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
