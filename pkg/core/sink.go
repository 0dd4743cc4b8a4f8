package core

import "context"

// RowSink accepts one row at a time for each target relation.
// Implementations return an error on constraint violations or malformed
// values; nothing is validated before the row reaches the store.
type RowSink interface {
	InsertSong(ctx context.Context, s Song) error
	InsertArtist(ctx context.Context, a Artist) error
	InsertTime(ctx context.Context, t TimeRow) error
	InsertUser(ctx context.Context, u User) error
	InsertSongplay(ctx context.Context, sp Songplay) error
}

// SongResolver finds the catalog entry a play refers to.
// A miss returns (nil, nil).
type SongResolver interface {
	LookupSong(ctx context.Context, title, artist string, duration float64) (*SongMatch, error)
}

// Sink is a RowSink that can also resolve songs.
type Sink interface {
	RowSink
	SongResolver
}
