// Package json decodes newline delimited (or simply concatenated) JSON
// objects into records.
package json

import (
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sparkify/datalake"
	"golang.org/x/sync/errgroup"
)

// Source returns one record per JSON object in the underlying reader.
type Source struct {
	dec *json.Decoder
}

// NewSource gets a Source reading from r.
func NewSource(r io.Reader) *Source {
	return &Source{
		dec: json.NewDecoder(r),
	}
}

// Record returns the next object as a map[string]interface{}, or io.EOF when
// there are no more.
func (s *Source) Record() (rec interface{}, err error) {
	var res map[string]interface{}
	err = s.dec.Decode(&res)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errors.New("null is not a record")
	}
	return res, nil
}

// object is one file of a RawSource, decoded in the background.
type object struct {
	name string
	recs []map[string]interface{}
	err  error
	done chan struct{}
}

type rawSourceSource struct {
	rs          datalake.RawSource
	concurrency int

	once     sync.Once
	quitOnce sync.Once
	closed   atomic.Bool
	mu       sync.Mutex
	objects  chan *object
	quit     chan struct{}
	cur      *object
	next     int
	err      error
}

// ErrClosed is returned by Record once the Source has been closed.
var ErrClosed = errors.New("source closed")

// Option is a functional option for NewSourceFromRawSource.
type Option func(r *rawSourceSource)

// OptConcurrency sets how many objects are read and decoded at once.
func OptConcurrency(n int) Option {
	return func(r *rawSourceSource) {
		if n < 1 {
			n = 1
		}
		r.concurrency = n
	}
}

// NewSourceFromRawSource gets a Source which decodes every object rs hands
// out. Objects are decoded concurrently, but records always come out in the
// order rs returned the objects, and in file order within an object. The
// first error ends the Source. The returned Source is also an io.Closer;
// closing it stops fetching objects when the records are no longer wanted.
func NewSourceFromRawSource(rs datalake.RawSource, opts ...Option) datalake.Source {
	r := &rawSourceSource{
		rs:          rs,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *rawSourceSource) start() {
	r.objects = make(chan *object, r.concurrency)
	r.quit = make(chan struct{})
	go func() {
		defer close(r.objects)
		g := &errgroup.Group{}
		g.SetLimit(r.concurrency)
		defer func() { _ = g.Wait() }()
		for {
			select {
			case <-r.quit:
				return
			default:
			}
			reader, err := r.rs.NextReader()
			if err == io.EOF {
				return
			}
			obj := &object{done: make(chan struct{})}
			if err != nil {
				obj.err = errors.Wrap(err, "getting next reader")
				close(obj.done)
			} else {
				obj.name = reader.Name()
			}
			select {
			case r.objects <- obj:
			case <-r.quit:
				if reader != nil {
					reader.Close()
				}
				return
			}
			if err != nil {
				return
			}
			g.Go(func() error {
				defer close(obj.done)
				obj.recs, obj.err = decodeAll(reader)
				return nil
			})
		}
	}()
}

func decodeAll(rc datalake.NamedReadCloser) ([]map[string]interface{}, error) {
	defer rc.Close()
	src := NewSource(rc)
	recs := make([]map[string]interface{}, 0)
	for {
		rec, err := src.Record()
		if err == io.EOF {
			return recs, nil
		} else if err != nil {
			return nil, errors.Wrapf(err, "decoding %s record %d", rc.Name(), len(recs))
		}
		recs = append(recs, rec.(map[string]interface{}))
	}
}

// Close stops the background reads. Readers already fetched are closed once
// their decoding finishes. It is safe to call more than once.
func (r *rawSourceSource) Close() error {
	r.closed.Store(true)
	r.once.Do(func() {
		r.objects = make(chan *object)
		close(r.objects)
		r.quit = make(chan struct{})
	})
	r.stop()
	return nil
}

func (r *rawSourceSource) stop() {
	r.quitOnce.Do(func() { close(r.quit) })
}

// Record implements datalake.Source.
func (r *rawSourceSource) Record() (interface{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.once.Do(r.start)
	for {
		if r.closed.Load() {
			return nil, ErrClosed
		}
		if r.err != nil {
			return nil, r.err
		}
		if r.cur != nil && r.next < len(r.cur.recs) {
			rec := r.cur.recs[r.next]
			r.cur.recs[r.next] = nil
			r.next++
			return rec, nil
		}
		obj, ok := <-r.objects
		if !ok {
			r.err = io.EOF
			continue
		}
		<-obj.done
		if obj.err != nil {
			r.err = obj.err
			r.stop()
			continue
		}
		r.cur, r.next = obj, 0
	}
}
