// Package warehouse writes star-schema rows into a relational store and
// resolves plays against the loaded catalog.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapload/pkg/core"
	"github.com/leapstack-labs/leapload/pkg/dialect"
)

// Conn is the subset of *sql.DB and *sql.Tx the sink needs.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Columns lists the columns written for each relation, in insert order.
var Columns = map[core.Relation][]string{
	core.RelationSongs:     {"song_id", "title", "artist_id", "year", "duration"},
	core.RelationArtists:   {"artist_id", "name", "location", "latitude", "longitude"},
	core.RelationTime:      {"start_time", "hour", "day", "week", "month", "year", "weekday"},
	core.RelationUsers:     {"user_id", "first_name", "last_name", "gender", "level"},
	core.RelationSongplays: {"start_time", "user_id", "level", "song_id", "artist_id", "session_id", "location", "user_agent"},
}

// keys holds the conflict target of each dimension; songplays has none.
var keys = map[core.Relation]string{
	core.RelationSongs:   "song_id",
	core.RelationArtists: "artist_id",
	core.RelationTime:    "start_time",
	core.RelationUsers:   "user_id",
}

// Options configures how rows are written.
type Options struct {
	OnConflict ConflictPolicy
	Logger     *slog.Logger
}

// Sink implements core.Sink over a single connection or transaction.
type Sink struct {
	conn    Conn
	dialect *dialect.Dialect
	policy  ConflictPolicy
	logger  *slog.Logger

	insertSong     string
	insertArtist   string
	insertTime     string
	insertUser     string
	insertSongplay string
	lookupSong     string
}

// NewSink builds a sink that writes through conn using d for quoting and placeholders.
func NewSink(conn Conn, d *dialect.Dialect, opts Options) (*Sink, error) {
	if d == nil {
		return nil, dialect.ErrDialectRequired
	}
	policy := opts.OnConflict
	if policy == "" {
		policy = ConflictError
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Sink{conn: conn, dialect: d, policy: policy, logger: logger}
	s.insertSong = s.insertSQL(core.RelationSongs)
	s.insertArtist = s.insertSQL(core.RelationArtists)
	s.insertTime = s.insertSQL(core.RelationTime)
	s.insertUser = s.insertSQL(core.RelationUsers)
	s.insertSongplay = s.insertSQL(core.RelationSongplays)
	s.lookupSong = fmt.Sprintf(
		"SELECT s.song_id, s.artist_id FROM %s s JOIN %s a ON s.artist_id = a.artist_id WHERE s.title = %s AND a.name = %s AND s.duration = %s LIMIT 1",
		d.QuoteIdentifier(string(core.RelationSongs)),
		d.QuoteIdentifier(string(core.RelationArtists)),
		d.FormatPlaceholder(1), d.FormatPlaceholder(2), d.FormatPlaceholder(3),
	)
	return s, nil
}

func (s *Sink) insertSQL(rel core.Relation) string {
	columns, key := Columns[rel], keys[rel]
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.dialect.QuoteIdentifier(string(rel)),
		strings.Join(columns, ", "),
		s.dialect.Placeholders(len(columns)),
	)
	if key == "" {
		return stmt
	}
	return stmt + s.policy.clause(rel, key)
}

// InsertSong writes one songs row.
func (s *Sink) InsertSong(ctx context.Context, song core.Song) error {
	return s.exec(ctx, core.RelationSongs, s.insertSong,
		nullIfEmpty(song.SongID), song.Title, nullIfEmpty(song.ArtistID), song.Year, song.Duration)
}

// InsertArtist writes one artists row.
func (s *Sink) InsertArtist(ctx context.Context, a core.Artist) error {
	return s.exec(ctx, core.RelationArtists, s.insertArtist,
		nullIfEmpty(a.ArtistID), a.Name, deref(a.Location), deref(a.Latitude), deref(a.Longitude))
}

// InsertTime writes one time row.
func (s *Sink) InsertTime(ctx context.Context, t core.TimeRow) error {
	return s.exec(ctx, core.RelationTime, s.insertTime,
		t.StartTime, t.Hour, t.Day, t.Week, t.Month, t.Year, t.Weekday)
}

// InsertUser writes one users row.
func (s *Sink) InsertUser(ctx context.Context, u core.User) error {
	return s.exec(ctx, core.RelationUsers, s.insertUser,
		nullIfEmpty(u.UserID), u.FirstName, u.LastName, u.Gender, u.Level)
}

// InsertSongplay writes one songplays row. An unresolved play stores NULL
// for both song_id and artist_id.
func (s *Sink) InsertSongplay(ctx context.Context, sp core.Songplay) error {
	return s.exec(ctx, core.RelationSongplays, s.insertSongplay,
		sp.StartTime, nullIfEmpty(sp.UserID), sp.Level, deref(sp.SongID()), deref(sp.ArtistID()),
		sp.SessionID, sp.Location, sp.UserAgent)
}

// LookupSong returns the first catalog entry whose title, artist name and
// duration all match exactly, or nil when none does.
func (s *Sink) LookupSong(ctx context.Context, title, artist string, duration float64) (*core.SongMatch, error) {
	var songID, artistID sql.NullString
	err := s.conn.QueryRowContext(ctx, s.lookupSong, title, artist, duration).Scan(&songID, &artistID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("song lookup failed: %w", err)
	}
	if !songID.Valid || !artistID.Valid {
		return nil, nil
	}
	return &core.SongMatch{SongID: songID.String, ArtistID: artistID.String}, nil
}

func (s *Sink) exec(ctx context.Context, rel core.Relation, stmt string, args ...any) error {
	if _, err := s.conn.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", rel, err)
	}
	return nil
}

// nullIfEmpty maps a missing key to NULL so that NOT NULL and primary key
// constraints reject it.
func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

var _ core.Sink = (*Sink)(nil)
