package datalake_test

import (
	"testing"
	"time"

	"github.com/sparkify/datalake"
	"github.com/sparkify/datalake/test"
)

func catalogFixture() []datalake.SongRecord {
	return []datalake.SongRecord{
		{SongID: "SOB", Title: "You Gotta Be", ArtistID: "AR1", Year: 1994, Duration: 246.3,
			ArtistName: "Des'ree", ArtistLocation: "London, England",
			ArtistLatitude: test.FloatPtr(51.50632), ArtistLongitude: test.FloatPtr(-0.12714)},
		{SongID: "SOA", Title: "Soul Deep", ArtistID: "AR2", Year: 1969, Duration: 148.03546,
			ArtistName: "The Box Tops", ArtistLocation: "Memphis, TN"},
		// later duplicates of an earlier song and artist
		{SongID: "SOB", Title: "You Gotta Be (remix)", ArtistID: "AR1", Duration: 300,
			ArtistName: "Desree", ArtistLocation: "Elsewhere"},
		{SongID: "", Title: "No id", ArtistID: ""},
	}
}

func TestBuildSongs(t *testing.T) {
	songs, err := datalake.BuildSongs(catalogFixture(), datalake.NewMapKeySet())
	test.ErrNil(t, err, "BuildSongs")
	test.MustBe(t, []datalake.Song{
		{SongID: "SOA", Title: "Soul Deep", ArtistID: "AR2", Year: 1969, Duration: 148.03546},
		{SongID: "SOB", Title: "You Gotta Be", ArtistID: "AR1", Year: 1994, Duration: 246.3},
	}, songs)
}

func TestBuildArtists(t *testing.T) {
	artists, err := datalake.BuildArtists(catalogFixture(), datalake.NewMapKeySet(), 5)
	test.ErrNil(t, err, "BuildArtists")
	if len(artists) != 2 {
		t.Fatalf("expected 2 artists, got %d: %#v", len(artists), artists)
	}
	a1, a2 := artists[0], artists[1]
	test.MustBe(t, "AR1", a1.ArtistID)
	test.MustBe(t, "Des'ree", a1.Name, "first record should win")
	test.MustBe(t, "London, England", a1.Location)
	if a1.Geohash == nil || *a1.Geohash != "gcpvj" {
		t.Fatalf("unexpected geohash for London: %v", a1.Geohash)
	}
	test.MustBe(t, "AR2", a2.ArtistID)
	if a2.Latitude != nil || a2.Longitude != nil || a2.Geohash != nil {
		t.Fatalf("artist without coordinates should have nil position: %#v", a2)
	}

	artists, err = datalake.BuildArtists(catalogFixture(), datalake.NewMapKeySet(), 0)
	test.ErrNil(t, err, "BuildArtists without geohash")
	if artists[0].Geohash != nil {
		t.Fatalf("geohash should be off at precision 0")
	}
}

func TestBuildUsers(t *testing.T) {
	events := []datalake.EventRecord{
		{UserID: "8", FirstName: "Kaylee", LastName: "Summers", Gender: "F", Level: "free", Page: "Home", Ts: 100},
		{UserID: "8", FirstName: "Kaylee", LastName: "Summers", Gender: "F", Level: "paid", Page: "NextSong", Ts: 300},
		{UserID: "8", FirstName: "Kaylee", LastName: "Summers", Gender: "F", Level: "free", Page: "NextSong", Ts: 200},
		{UserID: "", Page: "Home", Ts: 400},
		{UserID: "10", FirstName: "Sylvie", LastName: "Cruz", Gender: "F", Level: "free", Page: "NextSong", Ts: 50},
		// same ts, later in the log wins
		{UserID: "10", FirstName: "Sylvie", LastName: "Cruz", Gender: "F", Level: "paid", Page: "Upgrade", Ts: 50},
		{UserID: "2", FirstName: "Jizelle", LastName: "Benjamin", Gender: "F", Level: "free", Page: "Logout", Ts: 10},
	}
	users, err := datalake.BuildUsers(events, datalake.NewMapKeySet())
	test.ErrNil(t, err, "BuildUsers")
	test.MustBe(t, []datalake.User{
		{UserID: "10", FirstName: "Sylvie", LastName: "Cruz", Gender: "F", Level: "paid"},
		{UserID: "2", FirstName: "Jizelle", LastName: "Benjamin", Gender: "F", Level: "free"},
		{UserID: "8", FirstName: "Kaylee", LastName: "Summers", Gender: "F", Level: "paid"},
	}, users)
}

func TestBuildTime(t *testing.T) {
	events := []datalake.EventRecord{
		{Page: "NextSong", Ts: 1541121934796},
		{Page: "Home", Ts: 1541000000000},
		{Page: "NextSong", Ts: 1541105830796},
		{Page: "NextSong", Ts: 1541121934796},
		{Page: "NextSong", Ts: 1543622400000},
	}
	times, err := datalake.BuildTime(events, datalake.NewMapKeySet())
	test.ErrNil(t, err, "BuildTime")
	if len(times) != 3 {
		t.Fatalf("expected 3 distinct start times, got %d", len(times))
	}
	exp := []datalake.Time{
		{StartTime: time.Date(2018, 11, 1, 20, 57, 10, 796000000, time.UTC), Hour: 20, Day: 1, Week: 44, Month: 11, Year: 2018, Weekday: 4},
		{StartTime: time.Date(2018, 11, 2, 1, 25, 34, 796000000, time.UTC), Hour: 1, Day: 2, Week: 44, Month: 11, Year: 2018, Weekday: 5},
		{StartTime: time.Date(2018, 12, 1, 0, 0, 0, 0, time.UTC), Hour: 0, Day: 1, Week: 48, Month: 12, Year: 2018, Weekday: 6},
	}
	for i := range exp {
		if !times[i].StartTime.Equal(exp[i].StartTime) {
			t.Fatalf("row %d: start time %v != %v", i, times[i].StartTime, exp[i].StartTime)
		}
		times[i].StartTime = exp[i].StartTime
		test.MustBe(t, exp[i], times[i])
	}
}

func TestNewTimeSunday(t *testing.T) {
	// 2018-12-30 is a Sunday in ISO week 52 of 2018; 2018-12-31 a Monday in
	// week 1 of 2019.
	sun := datalake.NewTime(time.Date(2018, 12, 30, 23, 0, 0, 0, time.UTC))
	test.MustBe(t, int32(7), sun.Weekday)
	test.MustBe(t, int32(52), sun.Week)
	mon := datalake.NewTime(time.Date(2018, 12, 31, 1, 0, 0, 0, time.UTC))
	test.MustBe(t, int32(1), mon.Weekday)
	test.MustBe(t, int32(1), mon.Week)
	test.MustBe(t, int32(2018), mon.Year, "year is the calendar year")
	test.MustBe(t, "year=2018/month=12", mon.Partition().Path())
}

func TestNewTimeUTC(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*3600)
	tm := datalake.NewTime(time.Date(2018, 11, 30, 20, 0, 0, 0, loc))
	test.MustBe(t, int32(4), tm.Hour)
	test.MustBe(t, int32(1), tm.Day)
	test.MustBe(t, int32(12), tm.Month)
}

func TestMapKeySet(t *testing.T) {
	ks := datalake.NewMapKeySet()
	for i, exp := range []bool{true, false, true} {
		key := []string{"a", "a", "b"}[i]
		added, err := ks.Add([]byte(key))
		test.ErrNil(t, err, "Add")
		test.MustBe(t, exp, added, key)
	}
	test.MustBe(t, 2, ks.Len())
	test.ErrNil(t, ks.Close(), "Close")
	test.MustBe(t, 0, ks.Len())
}
