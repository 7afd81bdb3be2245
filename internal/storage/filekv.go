package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

const lockFileName = ".lock"

type fileKV struct {
	dir string
}

// NewFileKV returns a KVStore that keeps each key in <dir>/<key>.json. Writes
// go through a temp file and rename, so a crash never leaves a torn value.
// A lock file serialises writers across processes (CLI and board).
func NewFileKV(dir string) (KVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}
	return &fileKV{dir: dir}, nil
}

func (f *fileKV) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *fileKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if err := checkKey(key); err != nil {
		return nil, false, fmt.Errorf("reading value: %w", err)
	}
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, true, nil
}

func (f *fileKV) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkKey(key); err != nil {
		return fmt.Errorf("writing value: %w", err)
	}

	unlock, err := lockFile(filepath.Join(f.dir, lockFileName))
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	defer func() { _ = unlock() }()

	if err := atomic.WriteFile(f.path(key), bytes.NewReader(value)); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (f *fileKV) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkKey(key); err != nil {
		return fmt.Errorf("deleting value: %w", err)
	}
	unlock, err := lockFile(filepath.Join(f.dir, lockFileName))
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	defer func() { _ = unlock() }()

	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (f *fileKV) Close() error { return nil }
