package core

import (
	"bytes"
	"fmt"
	"strconv"
)

// PageNextSong is the page value of an actual play event.
const PageNextSong = "NextSong"

// SongRecord is one song-catalog entry as found in the song_data files.
type SongRecord struct {
	NumSongs        int      `json:"num_songs"`
	SongID          string   `json:"song_id"`
	Title           string   `json:"title"`
	ArtistID        string   `json:"artist_id"`
	Year            int      `json:"year"`
	Duration        float64  `json:"duration"`
	ArtistName      string   `json:"artist_name"`
	ArtistLocation  *string  `json:"artist_location"`
	ArtistLatitude  *float64 `json:"artist_latitude"`
	ArtistLongitude *float64 `json:"artist_longitude"`
}

// LogEvent is one user-activity record as found in the log_data files.
// Song, Artist and Length are null for events that are not plays.
type LogEvent struct {
	Artist        *string  `json:"artist"`
	Auth          string   `json:"auth"`
	FirstName     string   `json:"firstName"`
	Gender        string   `json:"gender"`
	ItemInSession int      `json:"itemInSession"`
	LastName      string   `json:"lastName"`
	Length        *float64 `json:"length"`
	Level         string   `json:"level"`
	Location      string   `json:"location"`
	Method        string   `json:"method"`
	Page          string   `json:"page"`
	Registration  *float64 `json:"registration"`
	SessionID     int64    `json:"sessionId"`
	Song          *string  `json:"song"`
	Status        int      `json:"status"`
	Ts            *int64   `json:"ts"`
	UserAgent     string   `json:"userAgent"`
	UserID        UserID   `json:"userId"`
}

// IsPlay reports whether the event is an actual song play.
func (e *LogEvent) IsPlay() bool {
	return e.Page == PageNextSong
}

// UserID is a user identifier that the log files encode either as a
// JSON string ("39") or as a JSON number (39). Null decodes to "".
type UserID string

// UnmarshalJSON implements json.Unmarshaler.
func (u *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*u = ""
	case len(data) > 0 && data[0] == '"':
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("invalid userId %s: %w", data, err)
		}
		*u = UserID(s)
	default:
		if _, err := strconv.ParseFloat(string(data), 64); err != nil {
			return fmt.Errorf("invalid userId %s", data)
		}
		*u = UserID(data)
	}
	return nil
}

// String returns the identifier text.
func (u UserID) String() string {
	return string(u)
}
