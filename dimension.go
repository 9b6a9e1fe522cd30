package datalake

import (
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sparkify/datalake/geohash"
)

// firstByKey keeps, for every key, the first row in rows order. Rows with an
// empty key are dropped.
func firstByKey[T any](ks KeySet, rows []T, key func(T) string) ([]T, error) {
	out := make([]T, 0)
	for _, row := range rows {
		k := key(row)
		if k == "" {
			continue
		}
		added, err := ks.Add([]byte(k))
		if err != nil {
			return nil, errors.Wrapf(err, "adding key '%s'", k)
		}
		if added {
			out = append(out, row)
		}
	}
	return out, nil
}

// BuildSongs projects the catalog into the songs dimension, one row per
// song_id. The first catalog record for a song wins. Rows are sorted by
// song_id.
func BuildSongs(catalog []SongRecord, ks KeySet) ([]Song, error) {
	songs := make([]Song, len(catalog))
	for i, rec := range catalog {
		songs[i] = Song{
			SongID:   rec.SongID,
			Title:    rec.Title,
			ArtistID: rec.ArtistID,
			Year:     rec.Year,
			Duration: rec.Duration,
		}
	}
	songs, err := firstByKey(ks, songs, func(s Song) string { return s.SongID })
	if err != nil {
		return nil, errors.Wrap(err, "deduplicating songs")
	}
	sort.Slice(songs, func(i, j int) bool { return songs[i].SongID < songs[j].SongID })
	return songs, nil
}

// BuildArtists projects the catalog into the artists dimension, one row per
// artist_id. The first catalog record for an artist wins. When precision is
// positive, artists with both coordinates get a geohash of that many
// characters. Rows are sorted by artist_id.
func BuildArtists(catalog []SongRecord, ks KeySet, precision uint) ([]Artist, error) {
	artists := make([]Artist, len(catalog))
	for i, rec := range catalog {
		artists[i] = Artist{
			ArtistID:  rec.ArtistID,
			Name:      rec.ArtistName,
			Location:  rec.ArtistLocation,
			Latitude:  rec.ArtistLatitude,
			Longitude: rec.ArtistLongitude,
		}
	}
	artists, err := firstByKey(ks, artists, func(a Artist) string { return a.ArtistID })
	if err != nil {
		return nil, errors.Wrap(err, "deduplicating artists")
	}
	if precision > 0 {
		for i := range artists {
			artists[i].Geohash = geohash.Encode(artists[i].Latitude, artists[i].Longitude, precision)
		}
	}
	sort.Slice(artists, func(i, j int) bool { return artists[i].ArtistID < artists[j].ArtistID })
	return artists, nil
}

// BuildUsers derives the users dimension from every event with a user id,
// keeping the latest event per user so that level is the most recently known
// subscription tier. Between events with equal timestamps the later one in the
// log wins. Rows are sorted by user_id.
func BuildUsers(events []EventRecord, ks KeySet) ([]User, error) {
	// newest first; walking the log backwards before the stable sort puts the
	// later of two equal timestamps first.
	latest := make([]EventRecord, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].UserID != "" {
			latest = append(latest, events[i])
		}
	}
	sort.SliceStable(latest, func(i, j int) bool { return latest[i].Ts > latest[j].Ts })

	latest, err := firstByKey(ks, latest, func(e EventRecord) string { return e.UserID })
	if err != nil {
		return nil, errors.Wrap(err, "deduplicating users")
	}
	users := make([]User, len(latest))
	for i, e := range latest {
		users[i] = User{
			UserID:    e.UserID,
			FirstName: e.FirstName,
			LastName:  e.LastName,
			Gender:    e.Gender,
			Level:     e.Level,
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users, nil
}

// BuildTime derives the time dimension from the song play events, one row per
// distinct start time, sorted by start time.
func BuildTime(events []EventRecord, ks KeySet) ([]Time, error) {
	times := make([]Time, 0)
	for _, e := range events {
		if !e.IsPlay() {
			continue
		}
		times = append(times, NewTime(e.StartTime()))
	}
	times, err := firstByKey(ks, times, func(t Time) string { return strconv.FormatInt(t.StartTime.UnixMilli(), 10) })
	if err != nil {
		return nil, errors.Wrap(err, "deduplicating start times")
	}
	sort.Slice(times, func(i, j int) bool { return times[i].StartTime.Before(times[j].StartTime) })
	return times, nil
}
