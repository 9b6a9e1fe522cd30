package fake

import (
	"fmt"
	"strconv"
	"time"

	"github.com/sparkify/datalake/fake/gen"
)

// Start is when generated event logs begin.
var Start = time.Date(2018, time.November, 1, 0, 0, 0, 0, time.UTC)

var (
	otherPages = []string{"Home", "Logout", "Login", "Settings", "Help", "About", "Upgrade"}
	agents     = []string{
		"Mozilla/5.0 (Windows NT 6.1; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/36.0.1985.143 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_9_4) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/36.0.1985.125 Safari/537.36",
		"Mozilla/5.0 (Windows NT 6.1; WOW64; rv:31.0) Gecko/20100101 Firefox/31.0",
	}
	cities = []string{
		"Atlanta-Sandy Springs-Roswell, GA", "Chicago-Naperville-Elgin, IL-IN-WI",
		"San Francisco-Oakland-Hayward, CA", "Lansing-East Lansing, MI", "Waterloo-Cedar Falls, IA",
	}
)

// EventGenerator builds user activity records shaped like the log_data files,
// with camelCase keys and string user ids. Most events are song plays, most
// of which are of songs in the catalog the generator was given. Numbers are
// float64.
type EventGenerator struct {
	g       *gen.Generator
	catalog []map[string]interface{}
	users   int
}

// NewEventGenerator gets an EventGenerator whose plays are drawn from catalog
// by the given number of users.
func NewEventGenerator(seed int64, catalog []map[string]interface{}, users int) *EventGenerator {
	if users < 1 {
		users = 1
	}
	return &EventGenerator{
		g:       gen.NewGenerator(seed),
		catalog: catalog,
		users:   users,
	}
}

// Event builds the next event. Event times increase from Start.
func (e *EventGenerator) Event() map[string]interface{} {
	ts := e.g.Time(Start, 90*time.Second)
	rec := map[string]interface{}{
		"artist":        nil,
		"auth":          "Logged In",
		"firstName":     nil,
		"gender":        nil,
		"itemInSession": float64(e.g.Intn(100)),
		"lastName":      nil,
		"length":        nil,
		"level":         "free",
		"location":      nil,
		"method":        "GET",
		"page":          "NextSong",
		"registration":  nil,
		"sessionId":     float64(1 + e.g.Uint64(1000)),
		"song":          nil,
		"status":        float64(200),
		"ts":            float64(ts.UnixMilli()),
		"userAgent":     nil,
		"userId":        "",
	}
	if e.g.Intn(20) == 0 {
		rec["auth"] = "Logged Out"
		rec["page"] = "Home"
		return rec
	}

	u := e.g.Uint64(e.users) + 1
	rec["userId"] = strconv.FormatUint(u, 10)
	rec["firstName"] = fmt.Sprintf("First%d", u)
	rec["lastName"] = fmt.Sprintf("Last%d", u)
	rec["gender"] = []string{"F", "M"}[u%2]
	rec["location"] = cities[u%uint64(len(cities))]
	rec["userAgent"] = agents[u%uint64(len(agents))]
	rec["registration"] = float64(Start.Add(-time.Duration(u)*time.Hour).UnixMilli())
	if e.g.Intn(4) == 0 {
		rec["level"] = "paid"
	}

	if e.g.Intn(5) == 0 {
		rec["page"] = otherPages[e.g.Intn(len(otherPages))]
		return rec
	}
	rec["method"] = "PUT"
	if len(e.catalog) > 0 && e.g.Intn(10) < 7 {
		song := e.catalog[e.g.Uint64(len(e.catalog))]
		rec["song"] = song["title"]
		rec["artist"] = song["artist_name"]
		rec["length"] = song["duration"]
		return rec
	}
	rec["song"] = fmt.Sprintf("Unknown %s", e.g.String(8, 500))
	rec["artist"] = fmt.Sprintf("Nobody %s", e.g.String(5, 100))
	rec["length"] = e.g.Float64(60, 600, 5)
	return rec
}

// Events builds n events.
func (e *EventGenerator) Events(n int) []map[string]interface{} {
	recs := make([]map[string]interface{}, n)
	for i := range recs {
		recs[i] = e.Event()
	}
	return recs
}
