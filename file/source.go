// Package file reads input objects from, and writes tables to, the local
// filesystem.
package file

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sparkify/datalake"
)

// RawSource hands out every matching file beneath a path, in lexical order of
// the slash separated path relative to it.
type RawSource struct {
	root    string
	suffix  string
	files   []string
	fileIdx *uint64
}

// RawSrcOption is a functional option for NewRawSource.
type RawSrcOption func(s *RawSource)

// OptRawSrcSuffix limits the files to those whose name ends in suffix, such as
// ".json". The default is every file.
func OptRawSrcSuffix(suffix string) RawSrcOption {
	return func(s *RawSource) {
		s.suffix = suffix
	}
}

// NewRawSource lists pathname, which may be a single file or a directory
// searched recursively. Hidden files and directories are skipped.
func NewRawSource(pathname string, opts ...RawSrcOption) (*RawSource, error) {
	fileIdx := uint64(0)
	s := &RawSource{
		root:    pathname,
		fileIdx: &fileIdx,
	}
	for _, opt := range opts {
		opt(s)
	}
	info, err := os.Stat(pathname)
	if err != nil {
		return nil, errors.Wrap(err, "statting path")
	}
	if !info.IsDir() {
		s.root = filepath.Dir(pathname)
		s.files = []string{filepath.Base(pathname)}
		return s, nil
	}
	err = filepath.WalkDir(pathname, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != pathname && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), s.suffix) {
			return nil
		}
		rel, err := filepath.Rel(pathname, p)
		if err != nil {
			return err
		}
		s.files = append(s.files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "walking directory")
	}
	sort.Strings(s.files)
	return s, nil
}

// Files returns the paths of the files s hands out, relative to the path it
// was created with.
func (s *RawSource) Files() []string {
	return s.files
}

type metaFile struct {
	*os.File
	name string
	size int64
}

// Name is the slash separated path of the file relative to the source root.
func (m *metaFile) Name() string {
	return m.name
}

func (m *metaFile) Meta() map[string]interface{} {
	return map[string]interface{}{"size": m.size}
}

// NextReader implements datalake.RawSource.
func (s *RawSource) NextReader() (datalake.NamedReadCloser, error) {
	idx := atomic.AddUint64(s.fileIdx, 1) - 1
	if int(idx) >= len(s.files) {
		return nil, io.EOF
	}

	name := s.files[idx]
	file, err := os.Open(filepath.Join(s.root, filepath.FromSlash(name)))
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", name)
	}
	mf := &metaFile{File: file, name: name}
	if info, err := file.Stat(); err == nil {
		mf.size = info.Size()
	}
	return mf, nil
}
