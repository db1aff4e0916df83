package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/text2sql/text2sql/internal/storage"
)

func TestPutPrependsStorePrefix(t *testing.T) {
	fake := newFakeBucket()
	store, err := newStore("archive", "/text2sql/prod/", fake)
	if err != nil {
		t.Fatalf("newStore() error = %v", err)
	}

	info, err := store.Put(context.Background(), "/runs/2026-02-20/run-1/report.txt", strings.NewReader("abc"), 3, storage.PutOptions{ContentType: "text/plain"})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, ok := fake.objects["text2sql/prod/runs/2026-02-20/run-1/report.txt"]; !ok {
		t.Fatalf("objects = %v", fake.keys())
	}
	if info.Key != "runs/2026-02-20/run-1/report.txt" {
		t.Fatalf("info.Key = %q", info.Key)
	}
}

func TestPutRejectsPathTraversal(t *testing.T) {
	store, err := newStore("archive", "", newFakeBucket())
	if err != nil {
		t.Fatalf("newStore() error = %v", err)
	}
	if _, err := store.Put(context.Background(), "../secrets.txt", strings.NewReader("x"), 1, storage.PutOptions{}); err == nil {
		t.Fatal("expected path traversal validation error")
	}
}

func TestListStripsPrefixAndSorts(t *testing.T) {
	fake := newFakeBucket()
	fake.objects["p/runs/2026-02-20/b/report.txt"] = []byte("b")
	fake.objects["p/runs/2026-02-20/a/report.txt"] = []byte("a")
	fake.objects["p/runs/2026-02-21/c/report.txt"] = []byte("c")
	store, err := newStore("archive", "p", fake)
	if err != nil {
		t.Fatalf("newStore() error = %v", err)
	}

	objects, err := store.List(context.Background(), "runs/2026-02-20/")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(objects) != 2 {
		t.Fatalf("List() = %+v", objects)
	}
	if objects[0].Key != "runs/2026-02-20/a/report.txt" || objects[1].Key != "runs/2026-02-20/b/report.txt" {
		t.Fatalf("keys = %q, %q", objects[0].Key, objects[1].Key)
	}
}

func TestGetMissingObjectReturnsNotFound(t *testing.T) {
	store, err := newStore("archive", "", newFakeBucket())
	if err != nil {
		t.Fatalf("newStore() error = %v", err)
	}
	if _, err := store.Get(context.Background(), "runs/x/report.txt"); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("Get() error = %v, want ErrObjectNotFound", err)
	}
}

func TestEnsureBucketCreatesWhenMissing(t *testing.T) {
	fake := newFakeBucket()
	store, err := newStore("archive", "", fake)
	if err != nil {
		t.Fatalf("newStore() error = %v", err)
	}
	if err := store.ensureBucket(context.Background(), "us-east-1"); err != nil {
		t.Fatalf("ensureBucket() error = %v", err)
	}
	if fake.madeBucketRegion != "us-east-1" {
		t.Fatalf("MakeBucket region = %q", fake.madeBucketRegion)
	}
}

func TestDeleteIgnoresMissingObject(t *testing.T) {
	store, err := newStore("archive", "", newFakeBucket())
	if err != nil {
		t.Fatalf("newStore() error = %v", err)
	}
	if err := store.Delete(context.Background(), "runs/missing/report.txt"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}

func TestParseEndpoint(t *testing.T) {
	endpoint, secure, err := parseEndpoint("https://minio.example.com", false)
	if err != nil {
		t.Fatalf("parseEndpoint() error = %v", err)
	}
	if endpoint != "minio.example.com" || !secure {
		t.Fatalf("endpoint/secure = %q/%v", endpoint, secure)
	}
	endpoint, secure, err = parseEndpoint("localhost:9000", false)
	if err != nil || endpoint != "localhost:9000" || secure {
		t.Fatalf("endpoint/secure/err = %q/%v/%v", endpoint, secure, err)
	}
	if _, _, err := parseEndpoint("ftp://minio", false); err == nil {
		t.Fatal("expected unsupported scheme error")
	}
}

type fakeBucket struct {
	objects          map[string][]byte
	madeBucketRegion string
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}}
}

func (f *fakeBucket) keys() []string {
	keys := make([]string, 0, len(f.objects))
	for key := range f.objects {
		keys = append(keys, key)
	}
	return keys
}

func (f *fakeBucket) PutObject(_ context.Context, _, key string, reader io.Reader, _ int64, _ string) (storage.ObjectInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	f.objects[key] = data
	return storage.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (f *fakeBucket) GetObject(_ context.Context, _, key string) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBucket) StatObject(_ context.Context, _, key string) (storage.ObjectInfo, error) {
	data, ok := f.objects[key]
	if !ok {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return storage.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (f *fakeBucket) ListObjects(_ context.Context, _, prefix string) ([]storage.ObjectInfo, error) {
	objects := make([]storage.ObjectInfo, 0)
	for key, data := range f.objects {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, storage.ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	return objects, nil
}

func (f *fakeBucket) RemoveObject(_ context.Context, _, key string) error {
	if _, ok := f.objects[key]; !ok {
		return storage.ErrObjectNotFound
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeBucket) BucketExists(context.Context, string) (bool, error) {
	return false, nil
}

func (f *fakeBucket) MakeBucket(_ context.Context, _, region string) error {
	f.madeBucketRegion = region
	return nil
}
