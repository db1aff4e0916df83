//go:build integration

package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/text2sql/text2sql/internal/storage"
)

func TestStoreRoundTripAgainstMinIO(t *testing.T) {
	endpoint := envOr("TEXT2SQL_TEST_S3_ENDPOINT", "")
	if endpoint == "" {
		t.Skip("TEXT2SQL_TEST_S3_ENDPOINT is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	store, err := New(ctx, Config{
		Endpoint:         endpoint,
		Region:           envOr("TEXT2SQL_TEST_S3_REGION", "us-east-1"),
		Bucket:           envOr("TEXT2SQL_TEST_S3_BUCKET", "text2sql-it"),
		AccessKeyID:      envOr("TEXT2SQL_TEST_S3_ACCESS_KEY", "minio"),
		SecretAccessKey:  envOr("TEXT2SQL_TEST_S3_SECRET_KEY", "miniostorage"),
		Prefix:           "integration-tests",
		AutoCreateBucket: true,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	key, err := storage.BuildRunObjectPath("it-run", time.Now(), "report.txt")
	if err != nil {
		t.Fatalf("BuildRunObjectPath() error = %v", err)
	}
	payload := []byte("User Question:\nshow all users\n")
	if _, err := store.Put(ctx, key, bytes.NewReader(payload), int64(len(payload)), storage.PutOptions{ContentType: "text/plain"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	objects, err := store.List(ctx, storage.RunsRoot+"/")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	found := false
	for _, object := range objects {
		found = found || object.Key == key
	}
	if !found {
		t.Fatalf("List() did not return %q: %+v", key, objects)
	}

	reader, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	got, err := io.ReadAll(reader)
	_ = reader.Close()
	if err != nil {
		t.Fatalf("io.ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("Get() payload = %q, want %q", got, payload)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Stat(ctx, key); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("Stat() after delete error = %v, want ErrObjectNotFound", err)
	}
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
