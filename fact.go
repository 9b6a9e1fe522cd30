package datalake

import (
	"sort"
)

// songKey is what a play is matched to the catalog on.
type songKey struct {
	title    string
	artist   string
	duration float64
}

type songRef struct {
	songID   string
	artistID string
}

// catalogIndex maps each (title, artist name, duration) to the first catalog
// record carrying it.
func catalogIndex(catalog []SongRecord) map[songKey]songRef {
	idx := make(map[songKey]songRef, len(catalog))
	for _, rec := range catalog {
		k := songKey{title: rec.Title, artist: rec.ArtistName, duration: rec.Duration}
		if _, ok := idx[k]; ok {
			continue
		}
		idx[k] = songRef{songID: rec.SongID, artistID: rec.ArtistID}
	}
	return idx
}

// BuildSongplays builds the songplays fact table from the song play events,
// matching each play to the catalog on title, artist name and duration. Plays
// without a match are kept with nil SongID and ArtistID. Song play ids are
// taken from n in order of event time, events with equal times keeping their
// log order.
func BuildSongplays(events []EventRecord, catalog []SongRecord, n INexter) ([]Songplay, error) {
	plays := make([]EventRecord, 0)
	for _, e := range events {
		if e.IsPlay() {
			plays = append(plays, e)
		}
	}
	sort.SliceStable(plays, func(i, j int) bool { return plays[i].Ts < plays[j].Ts })

	idx := catalogIndex(catalog)
	songplays := make([]Songplay, len(plays))
	for i, e := range plays {
		start := e.StartTime()
		sp := Songplay{
			SongplayID: int64(n.Next()),
			StartTime:  start,
			UserID:     e.UserID,
			Level:      e.Level,
			SessionID:  e.SessionID,
			Location:   e.Location,
			UserAgent:  e.UserAgent,
			Year:       int32(start.Year()),
			Month:      int32(start.Month()),
		}
		if e.Duration != nil {
			if ref, ok := idx[songKey{title: e.Song, artist: e.Artist, duration: *e.Duration}]; ok {
				songID, artistID := ref.songID, ref.artistID
				sp.SongID, sp.ArtistID = &songID, &artistID
			}
		}
		songplays[i] = sp
	}
	return songplays, nil
}
