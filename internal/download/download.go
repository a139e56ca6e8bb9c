// Package download saves finished recordings to disk.
package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// maxDuplicates bounds the " (n)" suffix search.
const maxDuplicates = 10000

// FileDownloader writes artifacts into Dir, never overwriting an existing
// file. A name that is taken gets a " (n)" suffix, as a browser would do.
type FileDownloader struct {
	Dir string
	Log *zap.SugaredLogger

	// Saved is called with the final path after each successful download.
	Saved func(path string)
}

// New returns a FileDownloader for dir, or for the current directory if dir
// is empty.
func New(dir string, log *zap.SugaredLogger) *FileDownloader {
	if dir == "" {
		dir = "."
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &FileDownloader{Dir: dir, Log: log}
}

// Download writes data atomically via a temp file + os.Link, so a partially
// written recording is never visible under its final name.
func (d *FileDownloader) Download(ctx context.Context, data []byte, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return fmt.Errorf("invalid file name %q", name)
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(d.Dir, ".voxrec-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to save recording: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to save recording: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to save recording: %w", err)
	}

	// os.Link fails if the target exists, which makes claiming a free name
	// race-free where os.Rename would silently replace.
	for n := 0; n < maxDuplicates; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(d.Dir, Candidate(name, n))
		err := os.Link(tmpName, path)
		if err == nil {
			d.logger().Infow("recording saved", "path", path, "bytes", len(data))
			if d.Saved != nil {
				d.Saved(path)
			}
			return nil
		}
		if !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("failed to save recording: %w", err)
		}
	}
	return fmt.Errorf("failed to save recording: no free name for %q", name)
}

func (d *FileDownloader) logger() *zap.SugaredLogger {
	if d.Log == nil {
		return zap.NewNop().Sugar()
	}
	return d.Log
}

// Candidate returns the n-th name tried for name: the name itself for 0,
// then "base (n).ext".
func Candidate(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s (%d)%s", base, n, ext)
}
