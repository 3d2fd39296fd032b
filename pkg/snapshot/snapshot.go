// Package snapshot persists committed markup.
//
// A snapshot is the markup of a committed tree at one point in time, stored
// under a generated name so that successive snapshots never overwrite each
// other.
package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ErrEmpty is returned when asked to store empty markup.
var ErrEmpty = errors.New("snapshot: empty markup")

// Store saves snapshots and returns the name they were stored under.
type Store interface {
	Save(ctx context.Context, markup []byte) (string, error)
}

// Name returns a fresh snapshot name for time t.
func Name(t time.Time) string {
	return t.UTC().Format("20060102T150405Z") + "-" + uuid.NewString() + ".html"
}

// PutObjectAPI is the subset of *s3.Client used by S3Store.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store stores snapshots as objects in an S3 bucket.
//
// Example usage:
//
//	client := s3.New(s3.Options{Region: "eu-west-1", Credentials: creds})
//	store := snapshot.NewS3Store(client, "my-bucket", "snapshots/")
type S3Store struct {
	client PutObjectAPI
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3Store creates a store writing to bucket under prefix.
func NewS3Store(client PutObjectAPI, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix, now: time.Now}
}

// Save uploads markup and returns the object key.
func (s *S3Store) Save(ctx context.Context, markup []byte) (string, error) {
	if len(markup) == 0 {
		return "", ErrEmpty
	}
	now := s.now()
	key := s.prefix + Name(now)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(markup),
		ContentType: aws.String("text/html; charset=utf-8"),
		Metadata: map[string]string{
			"snapshot-time": now.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}
	return key, nil
}

// DirStore stores snapshots as files in a local directory.
type DirStore struct {
	dir string
	now func() time.Time
}

// NewDirStore creates a store writing to dir, creating it if needed.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &DirStore{dir: dir, now: time.Now}, nil
}

// Save writes markup to a new file and returns its path.
func (s *DirStore) Save(ctx context.Context, markup []byte) (string, error) {
	if len(markup) == 0 {
		return "", ErrEmpty
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, Name(s.now()))
	if err := os.WriteFile(path, markup, 0644); err != nil {
		return "", err
	}
	return path, nil
}
