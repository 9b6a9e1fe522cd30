package datalake_test

import (
	"testing"

	"github.com/sparkify/datalake"
	"github.com/sparkify/datalake/fake"
	"github.com/sparkify/datalake/test"
)

func TestParseSongRecord(t *testing.T) {
	tests := []struct {
		name   string
		rec    interface{}
		exp    datalake.SongRecord
		expErr bool
	}{
		{
			name: "full",
			rec: map[string]interface{}{
				"num_songs":        float64(1),
				"artist_id":        "ARJIE2Y1187B994AB7",
				"artist_latitude":  nil,
				"artist_longitude": nil,
				"artist_location":  "",
				"artist_name":      "Line Renaud",
				"song_id":          "SOUPIRU12A6D4FA1E1",
				"title":            "Der Kleine Dompfaff",
				"duration":         152.92036,
				"year":             float64(0),
			},
			exp: datalake.SongRecord{
				SongID:     "SOUPIRU12A6D4FA1E1",
				Title:      "Der Kleine Dompfaff",
				ArtistID:   "ARJIE2Y1187B994AB7",
				Duration:   152.92036,
				ArtistName: "Line Renaud",
			},
		},
		{
			name: "coordinates and numeric strings",
			rec: map[string]interface{}{
				"artist_id":        "ARMJAGH1187FB546F3",
				"artist_latitude":  35.14968,
				"artist_longitude": "-90.04892",
				"artist_location":  "Memphis, TN",
				"artist_name":      "The Box Tops",
				"song_id":          "SOCIWDW12A8C13D406",
				"title":            "Soul Deep",
				"duration":         "148.03546",
				"year":             "1969",
			},
			exp: datalake.SongRecord{
				SongID:          "SOCIWDW12A8C13D406",
				Title:           "Soul Deep",
				ArtistID:        "ARMJAGH1187FB546F3",
				Year:            1969,
				Duration:        148.03546,
				ArtistName:      "The Box Tops",
				ArtistLocation:  "Memphis, TN",
				ArtistLatitude:  test.FloatPtr(35.14968),
				ArtistLongitude: test.FloatPtr(-90.04892),
			},
		},
		{
			name:   "not an object",
			rec:    []interface{}{"a"},
			expErr: true,
		},
		{
			name: "bad year",
			rec: map[string]interface{}{
				"song_id": "SOCIWDW12A8C13D406",
				"year":    "last year",
			},
			expErr: true,
		},
		{
			name: "fractional year",
			rec: map[string]interface{}{
				"song_id": "SOCIWDW12A8C13D406",
				"year":    1969.5,
			},
			expErr: true,
		},
		{
			name: "year overflows int32",
			rec: map[string]interface{}{
				"song_id": "SOCIWDW12A8C13D406",
				"year":    float64(1 << 40),
			},
			expErr: true,
		},
	}

	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			song, err := datalake.ParseSongRecord(tst.rec)
			if tst.expErr {
				if err == nil {
					t.Fatalf("expected error, got %#v", song)
				}
				return
			}
			test.ErrNil(t, err, "ParseSongRecord")
			test.MustBe(t, tst.exp, song)
		})
	}
}

func TestReadSongCatalog(t *testing.T) {
	recs := fake.NewSongGenerator(1, 5).Catalog(20)
	songs, err := datalake.ReadSongCatalog(fake.NewSource(recs))
	test.ErrNil(t, err, "ReadSongCatalog")
	if len(songs) != 20 {
		t.Fatalf("expected 20 songs, got %d", len(songs))
	}
	for i, s := range songs {
		test.MustBe(t, recs[i]["song_id"], s.SongID, "order")
	}

	_, err = datalake.ReadSongCatalog(fake.NewSource([]map[string]interface{}{{"year": "x"}}))
	if err == nil {
		t.Fatalf("expected error for a bad record")
	}
}
