package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
)

// Archive stores downloaded images in a blob bucket.
type Archive struct {
	bucket *blob.Bucket
	root   string
}

// Open opens a file-backed archive rooted at dir, creating the directory
// if needed. Metadata sidecar files are disabled so the tree stays plain
// image files, which keeps existence-on-disk an accurate download record.
func Open(dir string) (*Archive, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve archive dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	bucket, err := fileblob.OpenBucket(abs, &fileblob.Options{
		CreateDir: true,
		Metadata:  fileblob.MetadataDontWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("open archive bucket: %w", err)
	}
	return &Archive{bucket: bucket, root: abs}, nil
}

// New wraps an already-open bucket. Used by tests with memblob.
func New(bucket *blob.Bucket) *Archive {
	return &Archive{bucket: bucket}
}

// Close releases the underlying bucket.
func (a *Archive) Close() error {
	return a.bucket.Close()
}

// Exists reports whether key is already stored.
func (a *Archive) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := a.bucket.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", key, err)
	}
	return ok, nil
}

// Save writes data under key. Intermediate directories are created as
// needed; overwriting an existing key is an idempotent full rewrite.
func (a *Archive) Save(ctx context.Context, key string, data []byte) error {
	if err := a.bucket.WriteAll(ctx, key, data, nil); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Read returns the stored bytes for key.
func (a *Archive) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := a.bucket.ReadAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// List returns all keys under prefix, in the bucket's lexical order.
func (a *Archive) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := a.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			return keys, nil
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		if obj.IsDir {
			continue
		}
		keys = append(keys, obj.Key)
	}
}

// LocalPath returns the filesystem path backing key, or "" when the
// archive is not file-backed (in-memory test buckets).
func (a *Archive) LocalPath(key string) string {
	if a.root == "" {
		return ""
	}
	return filepath.Join(a.root, filepath.FromSlash(key))
}

// Root returns the archive's base directory, or "" when not file-backed.
func (a *Archive) Root() string {
	return a.root
}
