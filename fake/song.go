package fake

import (
	"fmt"

	"github.com/sparkify/datalake/fake/gen"
)

var locations = []string{
	"", "", "New York, NY", "Los Angeles, CA", "London, England", "Chicago, IL",
	"Detroit, MI", "Nashville, TN", "Austin, TX", "Berlin, Germany", "Kingston, Jamaica",
	"Seattle, WA", "Atlanta, GA", "Stockholm, Sweden", "Montreal, Quebec, Canada",
}

// SongGenerator builds song catalog records shaped like the song_data files.
// Numbers are float64, as encoding/json would decode them.
// Songs are spread over a fixed number of artists, a few of whom have most of
// the songs.
type SongGenerator struct {
	g       *gen.Generator
	artists int
}

// NewSongGenerator gets a SongGenerator choosing from the given number of
// artists.
func NewSongGenerator(seed int64, artists int) *SongGenerator {
	if artists < 1 {
		artists = 1
	}
	return &SongGenerator{
		g:       gen.NewGenerator(seed),
		artists: artists,
	}
}

// Song builds the catalog record of the n'th song.
func (s *SongGenerator) Song(n uint64) map[string]interface{} {
	a := s.g.Uint64(s.artists)
	year := 0
	if s.g.Intn(3) > 0 {
		year = 1960 + s.g.Intn(59)
	}
	rec := map[string]interface{}{
		"num_songs":        float64(1),
		"song_id":          s.g.ID("SO", n, 16),
		"title":            fmt.Sprintf("Song %s", s.g.ID("", n, 10)),
		"year":             float64(year),
		"duration":         s.g.Float64(60, 600, 5),
		"artist_id":        s.g.ID("AR", a+1<<32, 16),
		"artist_name":      fmt.Sprintf("Artist %s", s.g.ID("", a+1<<32, 6)),
		"artist_location":  locations[a%uint64(len(locations))],
		"artist_latitude":  nil,
		"artist_longitude": nil,
	}
	// two out of three artists have a known position; it is derived from
	// the artist alone so every record of an artist agrees.
	if a%3 != 0 {
		rec["artist_latitude"] = float64(a%170) - 85 + 0.25
		rec["artist_longitude"] = float64(a%350) - 175 + 0.5
	}
	return rec
}

// Catalog builds n song records.
func (s *SongGenerator) Catalog(n int) []map[string]interface{} {
	recs := make([]map[string]interface{}, n)
	for i := range recs {
		recs[i] = s.Song(uint64(i))
	}
	return recs
}
