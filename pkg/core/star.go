package core

import "time"

// Relation names one target table of the star schema.
type Relation string

// Target relations.
const (
	RelationSongs     Relation = "songs"
	RelationArtists   Relation = "artists"
	RelationTime      Relation = "time"
	RelationUsers     Relation = "users"
	RelationSongplays Relation = "songplays"
)

// Relations lists every target relation in insertion order.
var Relations = []Relation{
	RelationSongs,
	RelationArtists,
	RelationTime,
	RelationUsers,
	RelationSongplays,
}

// Song is a row of the songs dimension.
type Song struct {
	SongID   string
	Title    string
	ArtistID string
	Year     int
	Duration float64
}

// Artist is a row of the artists dimension.
type Artist struct {
	ArtistID  string
	Name      string
	Location  *string
	Latitude  *float64
	Longitude *float64
}

// TimeRow is a row of the time dimension. Every field besides StartTime
// is derived from StartTime.
type TimeRow struct {
	StartTime time.Time
	Hour      int
	Day       int
	Week      int
	Month     string
	Year      int
	Weekday   string
}

// User is a row of the users dimension. Level is the subscription tier
// recorded on the event that produced the row.
type User struct {
	UserID    string
	FirstName string
	LastName  string
	Gender    string
	Level     string
}

// SongMatch is a resolved (song_id, artist_id) pair.
type SongMatch struct {
	SongID   string
	ArtistID string
}

// Songplay is a row of the songplays fact table.
// Match is nil when the play could not be resolved against the catalog.
type Songplay struct {
	StartTime time.Time
	UserID    string
	Level     string
	Match     *SongMatch
	SessionID int64
	Location  string
	UserAgent string
}

// SongID returns the resolved song id, or nil when unresolved.
func (s *Songplay) SongID() *string {
	if s.Match == nil {
		return nil
	}
	return &s.Match.SongID
}

// ArtistID returns the resolved artist id, or nil when unresolved.
func (s *Songplay) ArtistID() *string {
	if s.Match == nil {
		return nil
	}
	return &s.Match.ArtistID
}

// RowCounts holds the number of rows per relation.
type RowCounts struct {
	Songs     int `json:"songs"`
	Artists   int `json:"artists"`
	Time      int `json:"time"`
	Users     int `json:"users"`
	Songplays int `json:"songplays"`
}

// Add accumulates other into c.
func (c *RowCounts) Add(other RowCounts) {
	c.Songs += other.Songs
	c.Artists += other.Artists
	c.Time += other.Time
	c.Users += other.Users
	c.Songplays += other.Songplays
}

// Total returns the number of rows across all relations.
func (c RowCounts) Total() int {
	return c.Songs + c.Artists + c.Time + c.Users + c.Songplays
}

// Get returns the count for a single relation.
func (c RowCounts) Get(r Relation) int {
	switch r {
	case RelationSongs:
		return c.Songs
	case RelationArtists:
		return c.Artists
	case RelationTime:
		return c.Time
	case RelationUsers:
		return c.Users
	case RelationSongplays:
		return c.Songplays
	}
	return 0
}
