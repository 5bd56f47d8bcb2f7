package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/auditlens/internal/domain/bugs"
)

type BugRepository struct {
	db *sql.DB
}

func NewBugRepository(db *sql.DB) *BugRepository {
	return &BugRepository{db: db}
}

// Migrate creates the bug_datasets table when missing.
func (r *BugRepository) Migrate(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS bug_datasets (
  id           VARCHAR(64)  NOT NULL PRIMARY KEY,
  name         VARCHAR(255) NOT NULL,
  filename     VARCHAR(255) NOT NULL,
  description  TEXT,
  content_hash CHAR(64)     NOT NULL,
  content_type VARCHAR(128) NOT NULL,
  size_bytes   BIGINT       NOT NULL DEFAULT 0,
  uploaded_at  DATETIME(6)  NOT NULL,
  INDEX idx_bug_datasets_uploaded (uploaded_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

// Save insert/update a bug record
func (r *BugRepository) Save(ctx context.Context, b *domain.Bug) error {
	const q = `
INSERT INTO bug_datasets
  (id, name, filename, description, content_hash, content_type, size_bytes, uploaded_at)
VALUES (?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  name=VALUES(name), filename=VALUES(filename), description=VALUES(description),
  content_hash=VALUES(content_hash), content_type=VALUES(content_type), size_bytes=VALUES(size_bytes);
`
	uploaded := b.UploadedAt
	if uploaded.IsZero() {
		uploaded = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q,
		b.ID, b.Name, b.Filename, b.Description,
		b.ContentHash, b.ContentType, b.Size, uploaded,
	)
	return err
}

func (r *BugRepository) Get(ctx context.Context, id domain.BugID) (*domain.Bug, error) {
	const q = `
SELECT id, name, filename, COALESCE(description,''), content_hash, content_type, size_bytes, uploaded_at
FROM bug_datasets
WHERE id=? LIMIT 1;`
	b, err := scanBug(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return b, err
}

// List newest first
func (r *BugRepository) List(ctx context.Context, limit int) ([]*domain.Bug, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT id, name, filename, COALESCE(description,''), content_hash, content_type, size_bytes, uploaded_at
FROM bug_datasets
ORDER BY uploaded_at DESC, id DESC
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("querying bug datasets: %w", err)
	}
	defer rows.Close()

	var out []*domain.Bug
	for rows.Next() {
		b, err := scanBug(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBug(row rowScanner) (*domain.Bug, error) {
	var b domain.Bug
	if err := row.Scan(&b.ID, &b.Name, &b.Filename, &b.Description,
		&b.ContentHash, &b.ContentType, &b.Size, &b.UploadedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
