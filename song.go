package datalake

import (
	"io"

	"github.com/pkg/errors"
)

// SongRecord is one entry of the song catalog. It carries both the song and,
// denormalized, the song's artist.
type SongRecord struct {
	SongID   string
	Title    string
	ArtistID string
	Year     int32
	Duration float64

	ArtistName      string
	ArtistLocation  string
	ArtistLatitude  *float64
	ArtistLongitude *float64
}

// ParseSongRecord converts a decoded JSON object from the song catalog into a
// SongRecord.
func ParseSongRecord(rec interface{}) (SongRecord, error) {
	m, err := asRecord(rec)
	if err != nil {
		return SongRecord{}, err
	}
	f := &fieldReader{rec: m}
	s := SongRecord{
		SongID:          f.str("song_id"),
		Title:           f.str("title"),
		ArtistID:        f.str("artist_id"),
		Year:            f.int32("year"),
		ArtistName:      f.str("artist_name"),
		ArtistLocation:  f.str("artist_location"),
		ArtistLatitude:  f.float("artist_latitude"),
		ArtistLongitude: f.float("artist_longitude"),
	}
	if d := f.float("duration"); d != nil {
		s.Duration = *d
	}
	if f.err != nil {
		return SongRecord{}, errors.Wrapf(f.err, "parsing song %q", s.SongID)
	}
	return s, nil
}

// ReadSongCatalog drains src, parsing every record as a SongRecord. Records are
// returned in the order src produced them.
func ReadSongCatalog(src Source) ([]SongRecord, error) {
	songs := make([]SongRecord, 0)
	for {
		rec, err := src.Record()
		if err == io.EOF {
			return songs, nil
		} else if err != nil {
			return nil, errors.Wrapf(err, "reading song record %d", len(songs))
		}
		song, err := ParseSongRecord(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "song record %d", len(songs))
		}
		songs = append(songs, song)
	}
}
