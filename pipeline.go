package datalake

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Pipeline runs the whole ETL: it extracts the song catalog and the event log,
// builds the four dimensions and the songplays fact table, and overwrites the
// five tables in the sink. Each stage finishes before the next begins.
type Pipeline struct {
	songs  Source
	events Source
	sink   Sink

	log       *zap.Logger
	stats     Statter
	keySets   KeySetFunc
	writeOpts WriteOptions
	precision uint
}

// PipelineOption is a functional option for NewPipeline.
type PipelineOption func(p *Pipeline)

// OptPipelineLogger sets the logger. A nil logger discards everything.
func OptPipelineLogger(log *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		if log == nil {
			log = zap.NewNop()
		}
		p.log = log
	}
}

// OptPipelineStatter sets where row counts and stage timings are sent.
func OptPipelineStatter(s Statter) PipelineOption {
	return func(p *Pipeline) {
		if s == nil {
			s = NopStatter{}
		}
		p.stats = s
	}
}

// OptPipelineKeySets sets how the dimension dedup key sets are opened.
func OptPipelineKeySets(f KeySetFunc) PipelineOption {
	return func(p *Pipeline) {
		p.keySets = f
	}
}

// OptPipelineWriteOptions sets the options every table is written with.
func OptPipelineWriteOptions(o WriteOptions) PipelineOption {
	return func(p *Pipeline) {
		p.writeOpts = o
	}
}

// OptPipelineGeohashPrecision sets the length of the artist geohash. Zero
// turns it off.
func OptPipelineGeohashPrecision(precision uint) PipelineOption {
	return func(p *Pipeline) {
		p.precision = precision
	}
}

// NewPipeline gets a new Pipeline reading the catalog from songs and the
// event log from events, and writing to sink.
func NewPipeline(songs, events Source, sink Sink, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		songs:     songs,
		events:    events,
		sink:      sink,
		log:       zap.NewNop(),
		stats:     NopStatter{},
		keySets:   NewMapKeySetFunc,
		precision: 6,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Tables holds every table of the star schema.
type Tables struct {
	Songs     []Song
	Artists   []Artist
	Users     []User
	Time      []Time
	Songplays []Songplay
}

// Result describes a finished run.
type Result struct {
	Songs    int
	Events   int
	Tables   []TableStats
	Duration time.Duration
}

// Run executes the pipeline. Nothing is written unless every table was built.
// Sources which are also io.Closers are closed when Run returns.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	defer closeSource(p.songs)
	defer closeSource(p.events)
	start := time.Now()
	res := &Result{}

	var catalog []SongRecord
	err := p.stage("extract_songs", func() (n int, err error) {
		catalog, err = ReadSongCatalog(p.songs)
		return len(catalog), errors.Wrap(err, "reading song catalog")
	})
	if err != nil {
		return nil, err
	}
	res.Songs = len(catalog)

	var events []EventRecord
	err = p.stage("extract_events", func() (n int, err error) {
		events, err = ReadEventLog(p.events)
		return len(events), errors.Wrap(err, "reading event log")
	})
	if err != nil {
		return nil, err
	}
	res.Events = len(events)

	if err = ctx.Err(); err != nil {
		return nil, err
	}
	tables, err := p.Build(catalog, events)
	if err != nil {
		return nil, err
	}
	if res.Tables, err = p.Write(ctx, tables); err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	p.stats.Timing("run", res.Duration, 1)
	p.log.Info("run finished",
		zap.Int("songs", res.Songs),
		zap.Int("events", res.Events),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// Build derives all five tables from the extracted records.
func (p *Pipeline) Build(catalog []SongRecord, events []EventRecord) (*Tables, error) {
	t := &Tables{}
	err := p.stage("build_songs", func() (n int, err error) {
		err = p.withKeySet(TableSongs, func(ks KeySet) (err error) {
			t.Songs, err = BuildSongs(catalog, ks)
			return err
		})
		return len(t.Songs), err
	})
	if err != nil {
		return nil, err
	}
	err = p.stage("build_artists", func() (n int, err error) {
		err = p.withKeySet(TableArtists, func(ks KeySet) (err error) {
			t.Artists, err = BuildArtists(catalog, ks, p.precision)
			return err
		})
		return len(t.Artists), err
	})
	if err != nil {
		return nil, err
	}
	err = p.stage("build_users", func() (n int, err error) {
		err = p.withKeySet(TableUsers, func(ks KeySet) (err error) {
			t.Users, err = BuildUsers(events, ks)
			return err
		})
		return len(t.Users), err
	})
	if err != nil {
		return nil, err
	}
	err = p.stage("build_time", func() (n int, err error) {
		err = p.withKeySet(TableTime, func(ks KeySet) (err error) {
			t.Time, err = BuildTime(events, ks)
			return err
		})
		return len(t.Time), err
	})
	if err != nil {
		return nil, err
	}
	err = p.stage("build_songplays", func() (n int, err error) {
		t.Songplays, err = BuildSongplays(events, catalog, NewNexter())
		return len(t.Songplays), errors.Wrap(err, "building songplays")
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Write overwrites every table in the sink, one after the other.
func (p *Pipeline) Write(ctx context.Context, t *Tables) ([]TableStats, error) {
	writers := []struct {
		table string
		write func() (TableStats, error)
	}{
		{TableSongs, func() (TableStats, error) { return WriteTable(ctx, p.sink, TableSongs, t.Songs, p.writeOpts) }},
		{TableArtists, func() (TableStats, error) { return WriteTable(ctx, p.sink, TableArtists, t.Artists, p.writeOpts) }},
		{TableUsers, func() (TableStats, error) { return WriteTable(ctx, p.sink, TableUsers, t.Users, p.writeOpts) }},
		{TableTime, func() (TableStats, error) { return WriteTable(ctx, p.sink, TableTime, t.Time, p.writeOpts) }},
		{TableSongplays, func() (TableStats, error) {
			return WriteTable(ctx, p.sink, TableSongplays, t.Songplays, p.writeOpts)
		}},
	}
	all := make([]TableStats, 0, len(writers))
	for _, w := range writers {
		var ts TableStats
		err := p.stage("write_"+w.table, func() (n int, err error) {
			ts, err = w.write()
			return ts.Rows, errors.Wrapf(err, "writing table %s", w.table)
		})
		if err != nil {
			return nil, err
		}
		p.stats.Count("files."+w.table, int64(ts.Files), 1)
		p.stats.Count("bytes."+w.table, int64(ts.Bytes), 1)
		all = append(all, ts)
	}
	return all, nil
}

// stage runs fn, logging and timing it and counting the rows it reports.
func (p *Pipeline) stage(name string, fn func() (int, error)) error {
	p.log.Debug("stage started", zap.String("stage", name))
	start := time.Now()
	n, err := fn()
	took := time.Since(start)
	if err != nil {
		p.log.Debug("stage failed", zap.String("stage", name), zap.Duration("duration", took))
		return err
	}
	p.stats.Timing("stage."+name, took, 1)
	p.stats.Count("rows."+name, int64(n), 1)
	p.log.Info("stage finished", zap.String("stage", name), zap.Int("rows", n), zap.Duration("duration", took))
	return nil
}

func (p *Pipeline) withKeySet(table string, fn func(ks KeySet) error) error {
	ks, err := p.keySets(table)
	if err != nil {
		return errors.Wrapf(err, "opening key set for %s", table)
	}
	err = fn(ks)
	if cerr := ks.Close(); cerr != nil && err == nil {
		err = errors.Wrapf(cerr, "closing key set for %s", table)
	}
	return err
}

func closeSource(src Source) {
	if c, ok := src.(io.Closer); ok {
		_ = c.Close()
	}
}
