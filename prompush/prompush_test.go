package prompush_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sparkify/datalake/prompush"
	"github.com/stretchr/testify/require"
)

func TestStatterRecords(t *testing.T) {
	s, err := prompush.NewStatter("http://localhost:9091", "")
	require.NoError(t, err)
	s.Count("rows.build_songs", 10, 1)
	s.Count("rows.build_songs", 5, 1)
	s.Count("rows.build_users", 3, 1)
	s.Gauge("queue", 2.5, 1)
	s.Timing("stage.write_songs", 1500*time.Millisecond, 1)

	n, err := testutil.GatherAndCount(s.Registry(), "datalake_count_total")
	require.NoError(t, err)
	require.Equal(t, 2, n)
	n, err = testutil.GatherAndCount(s.Registry(), "datalake_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, n)
	n, err = testutil.GatherAndCount(s.Registry(), "datalake_gauge")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestNewStatterNeedsURL(t *testing.T) {
	_, err := prompush.NewStatter("", "datalake")
	require.Error(t, err)
}

func TestPush(t *testing.T) {
	var mu sync.Mutex
	var method, path string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		method, path = r.Method, r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := prompush.NewStatter(srv.URL, "datalake", prompush.OptGrouping("run_id", "abc"))
	require.NoError(t, err)
	s.Count("rows.write_songs", 42, 1)
	require.NoError(t, s.Push(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, http.MethodPut, method)
	require.Equal(t, "/metrics/job/datalake/run_id/abc", path)
	require.NotEmpty(t, body)
}

func TestPushError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s, err := prompush.NewStatter(srv.URL, "datalake")
	require.NoError(t, err)
	s.Count("rows", 1, 1)
	require.Error(t, s.Push(context.Background()))
}
