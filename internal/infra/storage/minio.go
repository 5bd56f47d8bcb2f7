package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	domain "github.com/bryanwahyu/auditlens/internal/domain/bugs"
)

const keyPrefix = "sha256/"

// Store is a content-addressed blob store on top of MinIO / S3. Objects are
// keyed by the SHA-256 of their content.
type Store struct {
	client     *minio.Client
	bucketName string
	spoolDir   string
}

// New connects to MinIO and makes sure the bucket exists. Uploads are
// spooled under spoolDir; empty means the OS temp directory.
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool, spoolDir string) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}

	return &Store{client: cli, bucketName: bucket, spoolDir: spoolDir}, nil
}

// ObjectKey is where a blob with the given hash lives in the bucket.
func ObjectKey(hash string) string { return keyPrefix + hash }

// Upload spools r to a temp file while hashing it, then puts the file under
// its content hash. Content already present is not uploaded again.
func (s *Store) Upload(ctx context.Context, r io.Reader, contentType string) (string, int64, error) {
	f, err := os.CreateTemp(s.spoolDir, "blob-*")
	if err != nil {
		return "", 0, fmt.Errorf("create spool file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(f.Name())
	}()

	hash, size, err := spool(f, r)
	if err != nil {
		return "", 0, err
	}
	if size == 0 {
		return hash, 0, nil
	}

	key := ObjectKey(hash)
	if _, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{}); err == nil {
		return hash, size, nil
	}

	if _, err := s.client.FPutObject(ctx, s.bucketName, key, f.Name(), minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", 0, fmt.Errorf("put object %s: %w", key, err)
	}
	return hash, size, nil
}

// Download opens the blob stored under hash.
func (s *Store) Download(ctx context.Context, hash string) (io.ReadCloser, error) {
	key := ObjectKey(hash)
	if _, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", domain.ErrBlobNotFound, hash)
		}
		return nil, fmt.Errorf("stat object %s: %w", key, err)
	}
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	return obj, nil
}

// Check reports whether the bucket is reachable.
func (s *Store) Check(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s missing", s.bucketName)
	}
	return nil
}

// spool copies r into f, returning the hex SHA-256 and the byte count.
func spool(f *os.File, r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), r)
	if err != nil {
		return "", 0, fmt.Errorf("spool upload: %w", err)
	}
	if err := f.Sync(); err != nil {
		return "", 0, fmt.Errorf("spool upload: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
