package mock

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
)

// Sink is an in-memory object store. Objects become visible when the writer
// returned by Create is closed.
type Sink struct {
	mu      sync.Mutex
	objects map[string][]byte

	// CreateErr, when set, is returned by every call to Create.
	CreateErr error
	// WriteErr, when set, is returned by every Write to a created object.
	WriteErr error
	// Removed records the prefixes passed to RemoveAll.
	Removed []string
	// Aborted records the keys of aborted objects.
	Aborted []string
}

// NewSink gets an empty Sink.
func NewSink() *Sink {
	return &Sink{objects: make(map[string][]byte)}
}

// Create implements Sink.
func (s *Sink) Create(ctx context.Context, key string) (io.WriteCloser, error) {
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	return &objectWriter{sink: s, key: key}, nil
}

// RemoveAll implements Sink.
func (s *Sink) RemoveAll(ctx context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Removed = append(s.Removed, prefix)
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			delete(s.objects, key)
		}
	}
	return nil
}

// Put stores an object directly.
func (s *Sink) Put(key string, data []byte) {
	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()
}

// Get returns the object stored at key.
func (s *Sink) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return data, ok
}

// Keys lists the stored objects under prefix in sorted order.
func (s *Sink) Keys(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

type objectWriter struct {
	bytes.Buffer
	sink *Sink
	key  string
}

func (w *objectWriter) Write(p []byte) (int, error) {
	if w.sink.WriteErr != nil {
		return 0, w.sink.WriteErr
	}
	return w.Buffer.Write(p)
}

func (w *objectWriter) Close() error {
	w.sink.Put(w.key, w.Bytes())
	return nil
}

// Abort drops the object without storing it.
func (w *objectWriter) Abort(error) error {
	w.sink.mu.Lock()
	w.sink.Aborted = append(w.sink.Aborted, w.key)
	w.sink.mu.Unlock()
	return nil
}
