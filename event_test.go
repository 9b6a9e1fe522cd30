package datalake_test

import (
	"testing"
	"time"

	"github.com/sparkify/datalake"
	"github.com/sparkify/datalake/fake"
	"github.com/sparkify/datalake/test"
)

func TestParseEventRecord(t *testing.T) {
	tests := []struct {
		name   string
		rec    map[string]interface{}
		exp    datalake.EventRecord
		expErr bool
	}{
		{
			name: "snake case",
			rec: map[string]interface{}{
				"user_id":  float64(8),
				"page":     "NextSong",
				"ts":       float64(1541121934796),
				"song":     "You Gotta Be",
				"artist":   "Des'ree",
				"duration": 246.3,
			},
			exp: datalake.EventRecord{
				UserID:   "8",
				Page:     "NextSong",
				Ts:       1541121934796,
				Song:     "You Gotta Be",
				Artist:   "Des'ree",
				Duration: test.FloatPtr(246.3),
			},
		},
		{
			name: "log file",
			rec: map[string]interface{}{
				"artist":        "Des'ree",
				"auth":          "Logged In",
				"firstName":     "Kaylee",
				"gender":        "F",
				"itemInSession": float64(1),
				"lastName":      "Summers",
				"length":        246.30812,
				"level":         "free",
				"location":      "Phoenix-Mesa-Scottsdale, AZ",
				"method":        "PUT",
				"page":          "NextSong",
				"registration":  1540344794796.0,
				"sessionId":     float64(139),
				"song":          "You Gotta Be",
				"status":        float64(200),
				"ts":            float64(1541106106796),
				"userAgent":     "Mozilla/5.0",
				"userId":        "8",
			},
			exp: datalake.EventRecord{
				UserID:    "8",
				FirstName: "Kaylee",
				LastName:  "Summers",
				Gender:    "F",
				Level:     "free",
				Song:      "You Gotta Be",
				Artist:    "Des'ree",
				Duration:  test.FloatPtr(246.30812),
				SessionID: 139,
				Location:  "Phoenix-Mesa-Scottsdale, AZ",
				UserAgent: "Mozilla/5.0",
				Page:      "NextSong",
				Ts:        1541106106796,
			},
		},
		{
			name: "logged out",
			rec: map[string]interface{}{
				"auth":      "Logged Out",
				"page":      "Home",
				"userId":    "",
				"firstName": nil,
				"length":    nil,
				"sessionId": float64(52),
				"ts":        float64(1541207073796),
			},
			exp: datalake.EventRecord{
				Page:      "Home",
				SessionID: 52,
				Ts:        1541207073796,
			},
		},
		{
			name:   "bad ts",
			rec:    map[string]interface{}{"ts": "yesterday"},
			expErr: true,
		},
		{
			name:   "ts out of int64 range",
			rec:    map[string]interface{}{"ts": 1e20},
			expErr: true,
		},
		{
			name:   "ts as huge string",
			rec:    map[string]interface{}{"ts": "99999999999999999999"},
			expErr: true,
		},
		{
			name:   "bad length",
			rec:    map[string]interface{}{"length": true},
			expErr: true,
		},
	}

	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			ev, err := datalake.ParseEventRecord(tst.rec)
			if tst.expErr {
				if err == nil {
					t.Fatalf("expected error, got %#v", ev)
				}
				return
			}
			test.ErrNil(t, err, "ParseEventRecord")
			test.MustBe(t, tst.exp, ev)
		})
	}
}

func TestEventStartTime(t *testing.T) {
	ev := datalake.EventRecord{Ts: 1541121934796, Page: datalake.PageNextSong}
	exp := time.Date(2018, time.November, 2, 1, 25, 34, 796000000, time.UTC)
	if !ev.StartTime().Equal(exp) {
		t.Fatalf("unexpected start time %v", ev.StartTime())
	}
	if ev.StartTime().Location() != time.UTC {
		t.Fatalf("start time should be UTC")
	}
	if !ev.IsPlay() {
		t.Fatalf("NextSong should be a play")
	}
	if (datalake.EventRecord{Page: "Home"}).IsPlay() {
		t.Fatalf("Home should not be a play")
	}
}

func TestReadEventLog(t *testing.T) {
	catalog := fake.NewSongGenerator(1, 5).Catalog(20)
	recs := fake.NewEventGenerator(2, catalog, 5).Events(100)
	events, err := datalake.ReadEventLog(fake.NewSource(recs))
	test.ErrNil(t, err, "ReadEventLog")
	if len(events) != 100 {
		t.Fatalf("expected 100 events, got %d", len(events))
	}
	for i, ev := range events {
		test.MustBe(t, int64(recs[i]["ts"].(float64)), ev.Ts, "order")
	}
}
