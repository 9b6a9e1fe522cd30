package termstat_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/sparkify/datalake/termstat"
)

func TestCollector(t *testing.T) {
	buf := &bytes.Buffer{}
	c := termstat.NewCollector(buf)
	c.Count("rows.build_users", 3, 1)
	c.Count("rows.build_songs", 10, 1)
	c.Count("rows.build_songs", 5, 1)
	c.Count("sampled.out", 5, 0)
	c.Timing("stage.write_songs", 1500*time.Millisecond, 1)
	c.Gauge("files", 2, 1)
	if err := c.Write(); err != nil {
		t.Fatalf("writing: %v", err)
	}
	exp := "files: 2\nrows.build_songs: 15\nrows.build_users: 3\nstage.write_songs: 1.5s\n"
	if buf.String() != exp {
		t.Fatalf("unexpected summary:\n%s", buf.String())
	}
}
