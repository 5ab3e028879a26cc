package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Local stores blobs under a base directory on disk. Paths returned are
// relative to the base dir and use forward slashes so they stay valid as
// URL suffixes.
type Local struct {
	baseDir   string
	urlPrefix string
}

func NewLocal(baseDir, urlPrefix string) *Local {
	return &Local{baseDir: baseDir, urlPrefix: urlPrefix}
}

func (l *Local) Store(_ context.Context, data []byte, folder, originalName string) (string, error) {
	key := objectKey(folder, originalName)
	full := filepath.Join(l.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}
	return key, nil
}

func (l *Local) Exists(_ context.Context, p string) (bool, error) {
	_, err := os.Stat(filepath.Join(l.baseDir, filepath.FromSlash(p)))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (l *Local) Delete(_ context.Context, p string) error {
	err := os.Remove(filepath.Join(l.baseDir, filepath.FromSlash(p)))
	if errors.Is(err, fs.ErrNotExist) {
		// already gone
		return nil
	}
	return err
}

func (l *Local) URLFor(_ context.Context, p string) (string, error) {
	return l.urlPrefix + "/" + p, nil
}

// objectKey buckets uploads by date and names them with a fresh UUID,
// keeping only the original extension.
func objectKey(folder, originalName string) string {
	now := time.Now()
	return fmt.Sprintf("%s/%d/%02d/%s%s",
		folder, now.Year(), int(now.Month()), uuid.New(), path.Ext(originalName))
}
