package datalake

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"
	"github.com/pkg/errors"
)

// SuccessMarker is the name of the object written under a table's prefix once
// all of its files have been written.
const SuccessMarker = "_SUCCESS"

// PartitionValue is one column=value component of a partition path.
type PartitionValue struct {
	Column string
	Value  string
}

// Partition identifies the directory a row is written to.
type Partition []PartitionValue

// Path renders p Hive style, e.g. "year=2018/month=11".
func (p Partition) Path() string {
	parts := make([]string, len(p))
	for i, pv := range p {
		parts[i] = pv.Column + "=" + pv.Value
	}
	return strings.Join(parts, "/")
}

// Partitioned is implemented by rows of tables which are physically split by
// column values. Rows which don't implement it are written unpartitioned.
type Partitioned interface {
	Partition() Partition
}

// WriteOptions controls how WriteTable lays out a table.
type WriteOptions struct {
	// RowsPerFile caps the rows in a single parquet file. Zero means no cap.
	RowsPerFile int

	// Compression is one of snappy, gzip, zstd or none. Empty means snappy.
	Compression string

	// RunID is recorded in the success marker.
	RunID string
}

// TableStats describes what WriteTable wrote.
type TableStats struct {
	Table string `json:"table"`
	Rows  int    `json:"rows"`
	Files int    `json:"files"`
	Bytes Bytes  `json:"bytes"`
}

type successMarker struct {
	RunID      string    `json:"run_id,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
	TableStats
}

// Codec returns the parquet compression codec with the given name.
func Codec(name string) (compress.Codec, error) {
	switch strings.ToLower(name) {
	case "", "snappy":
		return &parquet.Snappy, nil
	case "gzip":
		return &parquet.Gzip, nil
	case "zstd":
		return &parquet.Zstd, nil
	case "none", "uncompressed":
		return &parquet.Uncompressed, nil
	default:
		return nil, errors.Errorf("unknown compression codec '%s'", name)
	}
}

// WriteTable replaces everything under table in sink with rows, written as
// parquet. Rows implementing Partitioned are grouped into one directory per
// partition, in partition path order; within a partition rows keep their
// order. Files are named part-00000.parquet, part-00001.parquet and so on.
// Once all files are written a success marker is written under the table.
func WriteTable[T any](ctx context.Context, sink Sink, table string, rows []T, opts WriteOptions) (TableStats, error) {
	stats := TableStats{Table: table}
	codec, err := Codec(opts.Compression)
	if err != nil {
		return stats, err
	}
	err = sink.RemoveAll(ctx, table+"/")
	if err != nil {
		return stats, errors.Wrapf(err, "clearing %s", table)
	}

	groups, order := partitionRows(rows)
	if len(rows) == 0 {
		// an empty unpartitioned table still gets a file, so readers see the schema
		var zero T
		if _, ok := any(zero).(Partitioned); !ok {
			order = []string{""}
			groups[""] = nil
		}
	}
	for _, dir := range order {
		for i, chunk := range chunkRows(groups[dir], opts.RowsPerFile) {
			key := path.Join(table, dir, fmt.Sprintf("part-%05d.parquet", i))
			n, err := writeParquet(ctx, sink, key, chunk, codec)
			if err != nil {
				return stats, errors.Wrapf(err, "writing %s", key)
			}
			stats.Files++
			stats.Rows += len(chunk)
			stats.Bytes += Bytes(n)
		}
	}

	marker, err := json.Marshal(successMarker{
		RunID:      opts.RunID,
		FinishedAt: time.Now().UTC(),
		TableStats: stats,
	})
	if err != nil {
		return stats, errors.Wrap(err, "encoding success marker")
	}
	w, err := sink.Create(ctx, path.Join(table, SuccessMarker))
	if err != nil {
		return stats, errors.Wrap(err, "creating success marker")
	}
	if _, err = w.Write(marker); err != nil {
		w.Close()
		return stats, errors.Wrap(err, "writing success marker")
	}
	return stats, errors.Wrap(w.Close(), "closing success marker")
}

// partitionRows groups rows by partition path, returning the paths sorted.
func partitionRows[T any](rows []T) (map[string][]T, []string) {
	groups := make(map[string][]T)
	order := make([]string, 0)
	for _, row := range rows {
		dir := ""
		if p, ok := any(row).(Partitioned); ok {
			dir = p.Partition().Path()
		}
		if _, ok := groups[dir]; !ok {
			order = append(order, dir)
		}
		groups[dir] = append(groups[dir], row)
	}
	sort.Strings(order)
	return groups, order
}

func chunkRows[T any](rows []T, size int) [][]T {
	if size <= 0 || len(rows) <= size {
		return [][]T{rows}
	}
	chunks := make([][]T, 0, (len(rows)+size-1)/size)
	for len(rows) > size {
		chunks = append(chunks, rows[:size])
		rows = rows[size:]
	}
	return append(chunks, rows)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func writeParquet[T any](ctx context.Context, sink Sink, key string, rows []T, codec compress.Codec) (int64, error) {
	w, err := sink.Create(ctx, key)
	if err != nil {
		return 0, errors.Wrap(err, "creating object")
	}
	cw := &countingWriter{w: w}
	pw := parquet.NewGenericWriter[T](cw, parquet.Compression(codec))
	if _, err = pw.Write(rows); err != nil {
		abort(w, err)
		return 0, errors.Wrap(err, "writing rows")
	}
	if err = pw.Close(); err != nil {
		abort(w, err)
		return 0, errors.Wrap(err, "finishing parquet file")
	}
	return cw.n, errors.Wrap(w.Close(), "closing object")
}

// abort discards a partly written object. Writers which can't abort are
// closed, leaving whatever they got.
func abort(w io.WriteCloser, err error) {
	if a, ok := w.(Aborter); ok {
		_ = a.Abort(err)
		return
	}
	_ = w.Close()
}
