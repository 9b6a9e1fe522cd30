package fake

import (
	"time"

	"github.com/pkg/errors"
)

// Main holds the configuration for generating a data set to a directory.
type Main struct {
	Dir     string `help:"Directory to write song_data and log_data under."`
	Seed    int64  `help:"Random seed for generating data. -1 will use current nanosecond."`
	Songs   int    `help:"Number of songs in the catalog."`
	Artists int    `help:"Number of artists the songs are spread across."`
	Events  int    `help:"Number of log events to generate."`
	Users   int    `help:"Number of distinct users in the log."`
}

// NewMain returns a new Main.
func NewMain() *Main {
	return &Main{
		Dir:     "data",
		Seed:    1,
		Songs:   1000,
		Artists: 200,
		Events:  10000,
		Users:   100,
	}
}

// Run generates the data set and writes it to m.Dir.
func (m *Main) Run() error {
	if m.Dir == "" {
		return errors.New("dir is required")
	}
	if m.Songs < 1 || m.Artists < 1 || m.Users < 1 || m.Events < 0 {
		return errors.Errorf("songs, artists and users must be positive, got %d, %d, %d", m.Songs, m.Artists, m.Users)
	}
	if m.Seed == -1 {
		m.Seed = time.Now().UnixNano()
	}
	return errors.Wrap(NewDataset(m.Seed, m.Songs, m.Artists, m.Events, m.Users).WriteDir(m.Dir), "writing data set")
}
