package file

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/sparkify/datalake"
)

func mustFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatalf("making dir: %v", err)
	}
	if err := os.WriteFile(p, []byte(contents), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
}

func TestRawSource(t *testing.T) {
	d := t.TempDir()
	mustFile(t, d, "song_data/A/B/TRB.json", `{"b": 1}`)
	mustFile(t, d, "song_data/A/A/TRA.json", `{"a": 1}`)
	mustFile(t, d, "song_data/A/A/notes.txt", `not json`)
	mustFile(t, d, "song_data/.ipynb_checkpoints/TRC.json", `{"c": 1}`)
	mustFile(t, d, "song_data/A/.hidden.json", `{"h": 1}`)

	rs, err := NewRawSource(filepath.Join(d, "song_data"), OptRawSrcSuffix(".json"))
	if err != nil {
		t.Fatalf("getting raw source: %v", err)
	}
	expNames := []string{"A/A/TRA.json", "A/B/TRB.json"}
	expContents := []string{`{"a": 1}`, `{"b": 1}`}

	gotNames := make([]string, 0, 2)
	var reader datalake.NamedReadCloser
	for reader, err = rs.NextReader(); err == nil; reader, err = rs.NextReader() {
		gotNames = append(gotNames, reader.Name())
		buf, err := io.ReadAll(reader)
		if err != nil {
			t.Fatalf("reading file: %v", err)
		}
		if string(buf) != expContents[len(gotNames)-1] {
			t.Fatalf("unexpected contents of %s: %s", reader.Name(), buf)
		}
		if reader.Meta()["size"] != int64(len(buf)) {
			t.Fatalf("unexpected size in meta: %v", reader.Meta())
		}
		reader.Close()
	}
	if err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
	if len(gotNames) != len(expNames) || gotNames[0] != expNames[0] || gotNames[1] != expNames[1] {
		t.Fatalf("unexpected names: %v", gotNames)
	}
}

func TestRawSourceSingleFile(t *testing.T) {
	d := t.TempDir()
	mustFile(t, d, "events.json", `{"ts": 1}`)
	rs, err := NewRawSource(filepath.Join(d, "events.json"))
	if err != nil {
		t.Fatalf("getting raw source: %v", err)
	}
	if files := rs.Files(); len(files) != 1 || files[0] != "events.json" {
		t.Fatalf("unexpected files: %v", files)
	}
}

func TestRawSourceMissing(t *testing.T) {
	_, err := NewRawSource(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatalf("expected an error for a missing path")
	}
}

func TestSink(t *testing.T) {
	d := t.TempDir()
	ctx := context.Background()
	s, err := NewSink(filepath.Join(d, "out"))
	if err != nil {
		t.Fatalf("getting sink: %v", err)
	}
	mustFile(t, d, "out/songs/part-00009.parquet", "stale")
	mustFile(t, d, "out/songsextra/keep", "keep")

	if err := s.RemoveAll(ctx, "songs/"); err != nil {
		t.Fatalf("removing: %v", err)
	}
	w, err := s.Create(ctx, "songs/part-00000.parquet")
	if err != nil {
		t.Fatalf("creating: %v", err)
	}
	if _, err := io.WriteString(w, "rows"); err != nil {
		t.Fatalf("writing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(d, "out/songs/part-00000.parquet")); !os.IsNotExist(err) {
		t.Fatalf("file should not be visible before Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(d, "out/songs/part-00000.parquet"))
	if err != nil || string(got) != "rows" {
		t.Fatalf("unexpected file %q: %v", got, err)
	}
	if _, err := os.Stat(filepath.Join(d, "out/songs/part-00009.parquet")); !os.IsNotExist(err) {
		t.Fatalf("stale file should be gone: %v", err)
	}
	if _, err := os.Stat(filepath.Join(d, "out/songsextra/keep")); err != nil {
		t.Fatalf("other table should be kept: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(d, "out/songs"))
	if len(entries) != 1 {
		t.Fatalf("expected only the written file, got %d entries", len(entries))
	}
}

func TestSinkAbort(t *testing.T) {
	d := t.TempDir()
	s, err := NewSink(d)
	if err != nil {
		t.Fatalf("getting sink: %v", err)
	}
	w, err := s.Create(context.Background(), "songs/part-00000.parquet")
	if err != nil {
		t.Fatalf("creating: %v", err)
	}
	if _, err := io.WriteString(w, "half a file"); err != nil {
		t.Fatalf("writing: %v", err)
	}
	if err := w.(datalake.Aborter).Abort(errors.New("encoding failed")); err != nil {
		t.Fatalf("aborting: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(d, "songs"))
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no files after abort, got %s", entries[0].Name())
	}
}

func TestSinkCanceled(t *testing.T) {
	s, err := NewSink(t.TempDir())
	if err != nil {
		t.Fatalf("getting sink: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Create(ctx, "x"); err != context.Canceled {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
