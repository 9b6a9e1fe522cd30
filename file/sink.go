package file

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Sink writes objects as files beneath a directory. Files are written to a
// temporary name and renamed into place on Close.
type Sink struct {
	root string
}

// NewSink gets a Sink rooted at dir, creating dir if needed.
func NewSink(dir string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "creating output directory")
	}
	return &Sink{root: dir}, nil
}

func (s *Sink) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Create implements datalake.Sink.
func (s *Sink) Create(ctx context.Context, key string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := s.path(key)
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return nil, errors.Wrapf(err, "creating directory for %s", key)
	}
	f, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".tmp")
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s", key)
	}
	return &atomicFile{File: f, name: name}, nil
}

// RemoveAll implements datalake.Sink. A prefix ending in a slash names a
// directory, otherwise every file and directory beginning with the prefix is
// removed.
func (s *Sink) RemoveAll(ctx context.Context, prefix string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.HasSuffix(prefix, "/") || prefix == "" {
		return errors.Wrapf(os.RemoveAll(s.path(prefix)), "removing %s", prefix)
	}
	matches, err := filepath.Glob(s.path(prefix) + "*")
	if err != nil {
		return errors.Wrapf(err, "listing %s", prefix)
	}
	for _, m := range matches {
		if err := os.RemoveAll(m); err != nil {
			return errors.Wrapf(err, "removing %s", m)
		}
	}
	return nil
}

type atomicFile struct {
	*os.File
	name string
}

func (f *atomicFile) Close() error {
	tmp := f.File.Name()
	if err := f.File.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "closing temp file")
	}
	if err := os.Rename(tmp, f.name); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "renaming temp file")
	}
	return nil
}

// Abort removes the temp file without renaming it into place.
func (f *atomicFile) Abort(error) error {
	tmp := f.File.Name()
	f.File.Close()
	return errors.Wrap(os.Remove(tmp), "removing temp file")
}
