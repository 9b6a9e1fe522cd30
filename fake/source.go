package fake

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Source serves a fixed list of records in order, then io.EOF.
type Source struct {
	mu   sync.Mutex
	recs []map[string]interface{}
	next int
}

// NewSource gets a Source over recs.
func NewSource(recs []map[string]interface{}) *Source {
	return &Source{recs: recs}
}

// Record implements Source.
func (s *Source) Record() (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.recs) {
		return nil, io.EOF
	}
	rec := s.recs[s.next]
	s.next++
	return rec, nil
}

// WriteJSONLines writes recs to w as newline delimited JSON.
func WriteJSONLines(w io.Writer, recs []map[string]interface{}) error {
	enc := json.NewEncoder(w)
	for i, rec := range recs {
		if err := enc.Encode(rec); err != nil {
			return errors.Wrapf(err, "encoding record %d", i)
		}
	}
	return nil
}

// Dataset is a generated song catalog and the event log of plays against it.
type Dataset struct {
	Songs  []map[string]interface{}
	Events []map[string]interface{}
}

// NewDataset generates a catalog of songs by artists, and events by users.
func NewDataset(seed int64, songs, artists, events, users int) *Dataset {
	catalog := NewSongGenerator(seed, artists).Catalog(songs)
	return &Dataset{
		Songs:  catalog,
		Events: NewEventGenerator(seed+1, catalog, users).Events(events),
	}
}

// WriteDir lays d out under dir the way the song and log data sets are
// stored: one file per song under song_data/A/B/C/, and one file of events
// per day under log_data/YYYY/MM/.
func (d *Dataset) WriteDir(dir string) error {
	for i, song := range d.Songs {
		id, _ := song["song_id"].(string)
		name := filepath.Join(dir, "song_data", "A", id[2:3], id[3:4], fmt.Sprintf("TR%06d.json", i))
		if err := writeFile(name, []map[string]interface{}{song}); err != nil {
			return err
		}
	}

	days := make([]string, 0)
	byDay := make(map[string][]map[string]interface{})
	for _, ev := range d.Events {
		ts, _ := ev["ts"].(float64)
		t := time.UnixMilli(int64(ts)).UTC()
		key := t.Format("2006/01/2006-01-02") + "-events.json"
		if _, ok := byDay[key]; !ok {
			days = append(days, key)
		}
		byDay[key] = append(byDay[key], ev)
	}
	for _, key := range days {
		if err := writeFile(filepath.Join(dir, "log_data", filepath.FromSlash(key)), byDay[key]); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(name string, recs []map[string]interface{}) error {
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return errors.Wrap(err, "making directory")
	}
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "creating file")
	}
	if err = WriteJSONLines(f, recs); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", name)
	}
	return errors.Wrap(f.Close(), "closing file")
}
