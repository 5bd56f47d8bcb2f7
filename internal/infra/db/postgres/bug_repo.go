package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/bryanwahyu/auditlens/internal/domain/bugs"
)

type BugRepository struct{ db *sql.DB }

func NewBugRepository(db *sql.DB) *BugRepository { return &BugRepository{db: db} }

// Migrate creates the bug_datasets table when missing.
func (r *BugRepository) Migrate(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS bug_datasets (
  id           TEXT PRIMARY KEY,
  name         TEXT NOT NULL,
  filename     TEXT NOT NULL,
  description  TEXT NOT NULL DEFAULT '',
  content_hash CHAR(64) NOT NULL,
  content_type TEXT NOT NULL,
  size_bytes   BIGINT NOT NULL DEFAULT 0,
  uploaded_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bug_datasets_uploaded ON bug_datasets (uploaded_at DESC);`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

// Save inserts or updates a bug record
func (r *BugRepository) Save(ctx context.Context, b *domain.Bug) error {
	const q = `
INSERT INTO bug_datasets
  (id, name, filename, description, content_hash, content_type, size_bytes, uploaded_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  name = EXCLUDED.name,
  filename = EXCLUDED.filename,
  description = EXCLUDED.description,
  content_hash = EXCLUDED.content_hash,
  content_type = EXCLUDED.content_type,
  size_bytes = EXCLUDED.size_bytes;`

	uploaded := b.UploadedAt
	if uploaded.IsZero() {
		uploaded = time.Now().UTC()
	}
	contentType := b.ContentType
	if strings.TrimSpace(contentType) == "" {
		contentType = "application/octet-stream"
	}
	_, err := r.db.ExecContext(ctx, q,
		b.ID, b.Name, b.Filename, b.Description, b.ContentHash, contentType, b.Size, uploaded)
	return err
}

func (r *BugRepository) Get(ctx context.Context, id domain.BugID) (*domain.Bug, error) {
	const q = `
SELECT id, name, filename, description, content_hash, content_type, size_bytes, uploaded_at
FROM bug_datasets
WHERE id=$1
LIMIT 1;`
	row := r.db.QueryRowContext(ctx, q, id)
	var b domain.Bug
	if err := row.Scan(&b.ID, &b.Name, &b.Filename, &b.Description,
		&b.ContentHash, &b.ContentType, &b.Size, &b.UploadedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// List newest first
func (r *BugRepository) List(ctx context.Context, limit int) ([]*domain.Bug, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT id, name, filename, description, content_hash, content_type, size_bytes, uploaded_at
FROM bug_datasets
ORDER BY uploaded_at DESC, id DESC
LIMIT $1;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("querying bug datasets: %w", err)
	}
	defer rows.Close()

	var out []*domain.Bug
	for rows.Next() {
		var b domain.Bug
		if err := rows.Scan(&b.ID, &b.Name, &b.Filename, &b.Description,
			&b.ContentHash, &b.ContentType, &b.Size, &b.UploadedAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}
