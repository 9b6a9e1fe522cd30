package datalake

import (
	"strconv"
	"time"
)

// Table names, which are also the prefixes the tables are written under.
const (
	TableSongs     = "songs"
	TableArtists   = "artists"
	TableUsers     = "users"
	TableTime      = "time"
	TableSongplays = "songplays"
)

// Song is a row of the songs dimension.
type Song struct {
	SongID   string  `parquet:"song_id"`
	Title    string  `parquet:"title"`
	ArtistID string  `parquet:"artist_id"`
	Year     int32   `parquet:"year"`
	Duration float64 `parquet:"duration"`
}

// Artist is a row of the artists dimension.
type Artist struct {
	ArtistID  string   `parquet:"artist_id"`
	Name      string   `parquet:"name"`
	Location  string   `parquet:"location"`
	Latitude  *float64 `parquet:"latitude,optional"`
	Longitude *float64 `parquet:"longitude,optional"`
	Geohash   *string  `parquet:"geohash,optional"`
}

// User is a row of the users dimension.
type User struct {
	UserID    string `parquet:"user_id"`
	FirstName string `parquet:"first_name"`
	LastName  string `parquet:"last_name"`
	Gender    string `parquet:"gender"`
	Level     string `parquet:"level"`
}

// Time is a row of the time dimension. Year and Month are stored in the
// partition path rather than in the files.
type Time struct {
	StartTime time.Time `parquet:"start_time,timestamp(millisecond)"`
	Hour      int32     `parquet:"hour"`
	Day       int32     `parquet:"day"`
	Week      int32     `parquet:"week"`
	Month     int32     `parquet:"-"`
	Year      int32     `parquet:"-"`
	Weekday   int32     `parquet:"weekday"`
}

// NewTime decomposes t, in UTC, into a Time row. Week is the ISO 8601 week and
// Weekday the ISO day number, Monday being 1 and Sunday 7.
func NewTime(t time.Time) Time {
	t = t.UTC()
	_, week := t.ISOWeek()
	weekday := int32(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return Time{
		StartTime: t,
		Hour:      int32(t.Hour()),
		Day:       int32(t.Day()),
		Week:      int32(week),
		Month:     int32(t.Month()),
		Year:      int32(t.Year()),
		Weekday:   weekday,
	}
}

// Partition implements Partitioned.
func (t Time) Partition() Partition {
	return yearMonth(t.Year, t.Month)
}

// Songplay is a row of the songplays fact table. SongID and ArtistID are nil
// when the play could not be matched to the song catalog. Year and Month are
// stored in the partition path rather than in the files.
type Songplay struct {
	SongplayID int64     `parquet:"songplay_id"`
	StartTime  time.Time `parquet:"start_time,timestamp(millisecond)"`
	UserID     string    `parquet:"user_id"`
	Level      string    `parquet:"level"`
	SongID     *string   `parquet:"song_id,optional"`
	ArtistID   *string   `parquet:"artist_id,optional"`
	SessionID  int64     `parquet:"session_id"`
	Location   string    `parquet:"location"`
	UserAgent  string    `parquet:"user_agent"`
	Year       int32     `parquet:"-"`
	Month      int32     `parquet:"-"`
}

// Partition implements Partitioned.
func (s Songplay) Partition() Partition {
	return yearMonth(s.Year, s.Month)
}

func yearMonth(year, month int32) Partition {
	return Partition{
		{Column: "year", Value: strconv.Itoa(int(year))},
		{Column: "month", Value: strconv.Itoa(int(month))},
	}
}
