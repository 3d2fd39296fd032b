package snapshot

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	in   *s3.PutObjectInput
	body string
	err  error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.in = in
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

var fixed = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestName(t *testing.T) {
	a, b := Name(fixed), Name(fixed)
	if a == b {
		t.Errorf("Name() returned %q twice", a)
	}
	if !strings.HasPrefix(a, "20260102T030405Z-") || !strings.HasSuffix(a, ".html") {
		t.Errorf("Name() = %q", a)
	}
}

func TestS3Store(t *testing.T) {
	client := &fakeS3{}
	store := NewS3Store(client, "bucket", "snaps/")
	store.now = func() time.Time { return fixed }

	key, err := store.Save(context.Background(), []byte("<p>x</p>"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !strings.HasPrefix(key, "snaps/20260102T030405Z-") {
		t.Errorf("key = %q", key)
	}
	if got := aws.ToString(client.in.Bucket); got != "bucket" {
		t.Errorf("Bucket = %q, want bucket", got)
	}
	if got := aws.ToString(client.in.Key); got != key {
		t.Errorf("Key = %q, want %q", got, key)
	}
	if client.body != "<p>x</p>" {
		t.Errorf("body = %q", client.body)
	}
	if got := client.in.Metadata["snapshot-time"]; got != "2026-01-02T03:04:05Z" {
		t.Errorf("snapshot-time = %q", got)
	}

	boom := errors.New("boom")
	client.err = boom
	if _, err := store.Save(context.Background(), []byte("x")); !errors.Is(err, boom) {
		t.Errorf("Save() error = %v, want %v", err, boom)
	}
	if _, err := store.Save(context.Background(), nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("Save(nil) error = %v, want ErrEmpty", err)
	}
}

func TestDirStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	store, err := NewDirStore(dir)
	if err != nil {
		t.Fatalf("NewDirStore() error = %v", err)
	}
	path, err := store.Save(context.Background(), []byte("<ul></ul>"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("path = %q, want it in %q", path, dir)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "<ul></ul>" {
		t.Errorf("content = %q", data)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Save(ctx, []byte("x")); !errors.Is(err, context.Canceled) {
		t.Errorf("Save(canceled) error = %v, want context.Canceled", err)
	}
}
