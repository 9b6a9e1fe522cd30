package datalake

import (
	"io"
	"time"

	"github.com/pkg/errors"
)

// PageNextSong is the page value of events which record a song being played.
const PageNextSong = "NextSong"

// EventRecord is one entry of the user activity log.
type EventRecord struct {
	UserID    string
	FirstName string
	LastName  string
	Gender    string
	Level     string

	Song     string
	Artist   string
	Duration *float64

	SessionID int64
	Location  string
	UserAgent string
	Page      string

	// Ts is the event time in milliseconds since the Unix epoch.
	Ts int64
}

// IsPlay reports whether the event is a song play.
func (e EventRecord) IsPlay() bool {
	return e.Page == PageNextSong
}

// StartTime is the event time in UTC.
func (e EventRecord) StartTime() time.Time {
	return time.UnixMilli(e.Ts).UTC()
}

// ParseEventRecord converts a decoded JSON object from the event log into an
// EventRecord. Both the snake_case names and the camelCase names written by
// the event collector are understood, and the play length may be called
// either duration or length.
func ParseEventRecord(rec interface{}) (EventRecord, error) {
	m, err := asRecord(rec)
	if err != nil {
		return EventRecord{}, err
	}
	f := &fieldReader{rec: m}
	e := EventRecord{
		UserID:    f.str("user_id", "userId"),
		FirstName: f.str("first_name", "firstName"),
		LastName:  f.str("last_name", "lastName"),
		Gender:    f.str("gender"),
		Level:     f.str("level"),
		Song:      f.str("song"),
		Artist:    f.str("artist"),
		Duration:  f.float("duration", "length"),
		SessionID: f.int("session_id", "sessionId"),
		Location:  f.str("location"),
		UserAgent: f.str("user_agent", "userAgent"),
		Page:      f.str("page"),
		Ts:        f.int("ts"),
	}
	if f.err != nil {
		return EventRecord{}, errors.Wrap(f.err, "parsing event")
	}
	return e, nil
}

// ReadEventLog drains src, parsing every record as an EventRecord. Records are
// returned in the order src produced them.
func ReadEventLog(src Source) ([]EventRecord, error) {
	events := make([]EventRecord, 0)
	for {
		rec, err := src.Record()
		if err == io.EOF {
			return events, nil
		} else if err != nil {
			return nil, errors.Wrapf(err, "reading event record %d", len(events))
		}
		event, err := ParseEventRecord(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "event record %d", len(events))
		}
		events = append(events, event)
	}
}
