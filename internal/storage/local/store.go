package local

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/text2sql/text2sql/internal/storage"
)

// Store keeps objects as plain files below BasePath. Object keys map to
// relative paths, so "runs/2026-02-20/x/report.txt" lands in
// <BasePath>/runs/2026-02-20/x/report.txt.
type Store struct {
	BasePath string
}

func NewStore(basePath string) (*Store, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, fmt.Errorf("local archive directory is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory %q: %w", basePath, err)
	}
	return &Store{BasePath: basePath}, nil
}

func (s *Store) Put(ctx context.Context, key string, body io.Reader, _ int64, _ storage.PutOptions) (storage.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return storage.ObjectInfo{}, err
	}
	target, cleaned, err := s.resolve(key)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("create object directory: %w", err)
	}

	// write to a sibling temp file and rename so readers never see a
	// partially written object
	tmp, err := os.CreateTemp(filepath.Dir(target), ".put-*")
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("create temp object: %w", err)
	}
	hash := md5.New()
	size, copyErr := io.Copy(io.MultiWriter(tmp, hash), body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmp.Name())
		return storage.ObjectInfo{}, fmt.Errorf("write object %q: %w", cleaned, errors.Join(copyErr, closeErr))
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())
		return storage.ObjectInfo{}, fmt.Errorf("commit object %q: %w", cleaned, err)
	}

	info, err := os.Stat(target)
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("stat object %q: %w", cleaned, err)
	}
	return storage.ObjectInfo{
		Key:          cleaned,
		Size:         size,
		ETag:         hex.EncodeToString(hash.Sum(nil)),
		LastModified: info.ModTime().UTC(),
	}, nil
}

func (s *Store) Get(_ context.Context, key string) (io.ReadCloser, error) {
	target, cleaned, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrObjectNotFound
		}
		return nil, fmt.Errorf("open object %q: %w", cleaned, err)
	}
	return file, nil
}

func (s *Store) Stat(_ context.Context, key string) (storage.ObjectInfo, error) {
	target, cleaned, err := s.resolve(key)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	info, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.ObjectInfo{}, storage.ErrObjectNotFound
		}
		return storage.ObjectInfo{}, fmt.Errorf("stat object %q: %w", cleaned, err)
	}
	if info.IsDir() {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return storage.ObjectInfo{Key: cleaned, Size: info.Size(), LastModified: info.ModTime().UTC()}, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	prefix = strings.TrimPrefix(strings.TrimSpace(prefix), "/")
	objects := make([]storage.ObjectInfo, 0)
	err := filepath.WalkDir(s.BasePath, func(current string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".put-") {
			return nil
		}
		rel, err := filepath.Rel(s.BasePath, current)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		objects = append(objects, storage.ObjectInfo{Key: key, Size: info.Size(), LastModified: info.ModTime().UTC()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list objects %q: %w", prefix, err)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	target, cleaned, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object %q: %w", cleaned, err)
	}
	return nil
}

func (s *Store) resolve(key string) (string, string, error) {
	key = strings.TrimSpace(strings.TrimPrefix(key, "/"))
	if key == "" {
		return "", "", fmt.Errorf("object key is required")
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", "", fmt.Errorf("invalid object key: %q", key)
	}
	return filepath.Join(s.BasePath, filepath.FromSlash(cleaned)), cleaned, nil
}
