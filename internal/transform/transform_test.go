package transform

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leapstack-labs/leapload/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogKey struct {
	title, artist string
	duration      float64
}

// fakeCatalog resolves plays from an in-memory map and counts lookups.
type fakeCatalog struct {
	entries map[catalogKey]core.SongMatch
	calls   int
	err     error
}

func (f *fakeCatalog) LookupSong(_ context.Context, title, artist string, duration float64) (*core.SongMatch, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.entries[catalogKey{title, artist, duration}]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func tsPtr(ts int64) *int64       { return &ts }

func play(ts int64, userID, level, song, artist string, length float64) core.LogEvent {
	return core.LogEvent{
		Page:      core.PageNextSong,
		Ts:        tsPtr(ts),
		UserID:    core.UserID(userID),
		FirstName: "Kaylee",
		LastName:  "Summers",
		Gender:    "F",
		Level:     level,
		Song:      strPtr(song),
		Artist:    strPtr(artist),
		Length:    floatPtr(length),
		SessionID: 139,
		Location:  "Phoenix-Mesa-Scottsdale, AZ",
		UserAgent: "Mozilla/5.0",
	}
}

func TestDeriveTime(t *testing.T) {
	tests := []struct {
		name string
		ts   int64
		want core.TimeRow
	}{
		{
			name: "sunday in november",
			ts:   1541903636796,
			want: core.TimeRow{
				StartTime: time.Date(2018, 11, 11, 2, 33, 56, 796000000, time.UTC),
				Hour:      2, Day: 11, Week: 45, Month: "November", Year: 2018, Weekday: "Sunday",
			},
		},
		{
			name: "epoch",
			ts:   0,
			want: core.TimeRow{
				StartTime: time.Unix(0, 0).UTC(),
				Hour:      0, Day: 1, Week: 1, Month: "January", Year: 1970, Weekday: "Thursday",
			},
		},
		{
			name: "iso week belongs to next year",
			ts:   1546214400000,
			want: core.TimeRow{
				StartTime: time.Date(2018, 12, 31, 0, 0, 0, 0, time.UTC),
				Hour:      0, Day: 31, Week: 1, Month: "December", Year: 2018, Weekday: "Monday",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveTime(tt.ts)
			assert.True(t, tt.want.StartTime.Equal(got.StartTime), "start time %s", got.StartTime)
			got.StartTime = tt.want.StartTime
			assert.Equal(t, tt.want, got)
			assert.Equal(t, DeriveTime(tt.ts), DeriveTime(tt.ts), "derivation must be deterministic")
		})
	}
}

func TestSong(t *testing.T) {
	rec := core.SongRecord{
		NumSongs:       1,
		SongID:         "SOUPIRU12A6D4FA1E1",
		Title:          "Der Kleine Dompfaff",
		ArtistID:       "ARJIE2Y1187B994AB7",
		Year:           0,
		Duration:       152.92036,
		ArtistName:     "Line Renaud",
		ArtistLocation: strPtr(""),
	}

	b := Song(rec)

	require.Len(t, b.Songs, 1)
	require.Len(t, b.Artists, 1)
	assert.Equal(t, core.Song{
		SongID: rec.SongID, Title: rec.Title, ArtistID: rec.ArtistID, Year: 0, Duration: 152.92036,
	}, b.Songs[0])
	assert.Equal(t, rec.ArtistID, b.Artists[0].ArtistID)
	assert.Equal(t, "Line Renaud", b.Artists[0].Name)
	assert.Equal(t, strPtr(""), b.Artists[0].Location)
	assert.Nil(t, b.Artists[0].Latitude)
	assert.Nil(t, b.Artists[0].Longitude)
	assert.Empty(t, b.Times)
	assert.Empty(t, b.Users)
	assert.Empty(t, b.Songplays)
}

func TestSongFile(t *testing.T) {
	records := []core.SongRecord{
		{SongID: "S1", ArtistID: "A1", Title: "One"},
		{SongID: "S2", ArtistID: "A1", Title: "Two"},
	}

	b := SongFile(records)

	assert.Equal(t, core.RowCounts{Songs: 2, Artists: 2}, b.Counts())
	assert.Equal(t, "S1", b.Songs[0].SongID)
	assert.Equal(t, "S2", b.Songs[1].SongID)
	assert.Equal(t, 0, SongFile(nil).Counts().Total())
}

func TestLogs_FiltersNonPlays(t *testing.T) {
	ctx := context.Background()
	events := []core.LogEvent{
		play(1541903636796, "8", "free", "Intro", "Band", 180.5),
		{Page: "Home", Ts: tsPtr(1541903640000), UserID: "8", Level: "free"},
		{Page: "Logout", UserID: "8"},
		play(1541903700000, "8", "free", "Outro", "Band", 99.0),
	}

	catalog := &fakeCatalog{}
	b, err := Logs(ctx, events, catalog)
	require.NoError(t, err)

	assert.Equal(t, core.RowCounts{Time: 2, Users: 2, Songplays: 2}, b.Counts())
	assert.Equal(t, 2, catalog.calls, "one lookup per retained event")
	assert.Equal(t, b.Times[0].StartTime, b.Songplays[0].StartTime)
	assert.Equal(t, b.Times[1].StartTime, b.Songplays[1].StartTime)
}

func TestLogs_Resolution(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{entries: map[catalogKey]core.SongMatch{
		{"Intro", "Band", 180.5}: {SongID: "S1", ArtistID: "A1"},
	}}

	tests := []struct {
		name  string
		event core.LogEvent
		want  *core.SongMatch
	}{
		{
			name:  "exact match",
			event: play(1541903636796, "8", "free", "Intro", "Band", 180.5),
			want:  &core.SongMatch{SongID: "S1", ArtistID: "A1"},
		},
		{
			name:  "duration mismatch",
			event: play(1541903636796, "8", "free", "Intro", "Band", 181.0),
		},
		{
			name:  "artist mismatch",
			event: play(1541903636796, "8", "free", "Intro", "Other", 180.5),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Logs(ctx, []core.LogEvent{tt.event}, catalog)
			require.NoError(t, err)
			require.Len(t, b.Songplays, 1, "facts are never dropped")

			sp := b.Songplays[0]
			assert.Equal(t, tt.want, sp.Match)
			if tt.want == nil {
				assert.Nil(t, sp.SongID())
				assert.Nil(t, sp.ArtistID())
			} else {
				assert.Equal(t, tt.want.SongID, *sp.SongID())
				assert.Equal(t, tt.want.ArtistID, *sp.ArtistID())
			}
		})
	}
}

func TestLogs_MissingSongFieldsSkipLookup(t *testing.T) {
	ev := play(1541903636796, "8", "free", "Intro", "Band", 180.5)
	ev.Length = nil

	catalog := &fakeCatalog{}
	b, err := Logs(context.Background(), []core.LogEvent{ev}, catalog)
	require.NoError(t, err)

	assert.Equal(t, 0, catalog.calls)
	require.Len(t, b.Songplays, 1)
	assert.Nil(t, b.Songplays[0].Match)
}

func TestLogs_UsersVerbatimPerEvent(t *testing.T) {
	events := []core.LogEvent{
		play(1541903636796, "8", "free", "A", "B", 1),
		play(1541903636796, "8", "paid", "A", "B", 1),
	}

	b, err := Logs(context.Background(), events, nil)
	require.NoError(t, err)

	require.Len(t, b.Users, 2, "repeated users are not deduplicated")
	assert.Equal(t, "free", b.Users[0].Level)
	assert.Equal(t, "paid", b.Users[1].Level)
	assert.Equal(t, "paid", b.Songplays[1].Level, "level is the value at the event")

	require.Len(t, b.Times, 2, "identical timestamps yield identical rows")
	assert.Equal(t, b.Times[0], b.Times[1])
}

func TestLogs_Errors(t *testing.T) {
	lookupErr := errors.New("connection reset")

	tests := []struct {
		name     string
		events   []core.LogEvent
		resolver core.SongResolver
		wantIs   error
	}{
		{
			name:     "play without timestamp",
			events:   []core.LogEvent{{Page: core.PageNextSong, UserID: "8"}},
			resolver: &fakeCatalog{},
			wantIs:   ErrMissingTimestamp,
		},
		{
			name:     "lookup failure propagates",
			events:   []core.LogEvent{play(1541903636796, "8", "free", "A", "B", 1)},
			resolver: &fakeCatalog{err: lookupErr},
			wantIs:   lookupErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Logs(context.Background(), tt.events, tt.resolver)
			require.Error(t, err)
			assert.Nil(t, b)
			assert.ErrorIs(t, err, tt.wantIs)
			assert.Contains(t, err.Error(), "event 1")
		})
	}
}

func TestLogs_NonPlayWithoutTimestampIsIgnored(t *testing.T) {
	b, err := Logs(context.Background(), []core.LogEvent{{Page: "Home"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Counts().Total())
}

// recordingSink captures the order rows reach the sink.
type recordingSink struct {
	order  []core.Relation
	failOn core.Relation
}

func (r *recordingSink) record(rel core.Relation) error {
	if rel == r.failOn {
		return errors.New("constraint violated")
	}
	r.order = append(r.order, rel)
	return nil
}

func (r *recordingSink) InsertSong(context.Context, core.Song) error {
	return r.record(core.RelationSongs)
}

func (r *recordingSink) InsertArtist(context.Context, core.Artist) error {
	return r.record(core.RelationArtists)
}

func (r *recordingSink) InsertTime(context.Context, core.TimeRow) error {
	return r.record(core.RelationTime)
}

func (r *recordingSink) InsertUser(context.Context, core.User) error {
	return r.record(core.RelationUsers)
}

func (r *recordingSink) InsertSongplay(context.Context, core.Songplay) error {
	return r.record(core.RelationSongplays)
}

func TestBatch_Apply(t *testing.T) {
	b := Song(core.SongRecord{SongID: "S1", ArtistID: "A1"})
	logs, err := Logs(context.Background(), []core.LogEvent{play(1541903636796, "8", "free", "A", "B", 1)}, nil)
	require.NoError(t, err)
	b.Merge(logs)
	b.Merge(nil)

	sink := &recordingSink{}
	require.NoError(t, b.Apply(context.Background(), sink))
	assert.Equal(t, core.Relations, sink.order)

	failing := &recordingSink{failOn: core.RelationUsers}
	err = b.Apply(context.Background(), failing)
	require.Error(t, err)
	assert.Equal(t, []core.Relation{core.RelationSongs, core.RelationArtists, core.RelationTime}, failing.order)
}

// catalogSink stores inserted catalog rows and resolves plays against them.
type catalogSink struct {
	recordingSink
	songs   []core.Song
	artists []core.Artist
}

func (s *catalogSink) InsertSong(_ context.Context, song core.Song) error {
	s.songs = append(s.songs, song)
	return nil
}

func (s *catalogSink) InsertArtist(_ context.Context, a core.Artist) error {
	s.artists = append(s.artists, a)
	return nil
}

func (s *catalogSink) LookupSong(_ context.Context, title, artist string, duration float64) (*core.SongMatch, error) {
	for _, song := range s.songs {
		for _, a := range s.artists {
			if a.ArtistID == song.ArtistID && song.Title == title && a.Name == artist && song.Duration == duration {
				return &core.SongMatch{SongID: song.SongID, ArtistID: a.ArtistID}, nil
			}
		}
	}
	return nil, nil
}

func TestCatalogThenLogs(t *testing.T) {
	ctx := context.Background()
	sink := &catalogSink{}

	rec := core.SongRecord{
		SongID: "S1", Title: "Test", ArtistID: "A1", Year: 2000, Duration: 180.5,
		ArtistName: "Art", ArtistLocation: strPtr("NYC"),
		ArtistLatitude: floatPtr(40.7), ArtistLongitude: floatPtr(-74.0),
	}
	require.NoError(t, Song(rec).Apply(ctx, sink))

	require.Len(t, sink.songs, 1)
	assert.Equal(t, core.Song{SongID: "S1", Title: "Test", ArtistID: "A1", Year: 2000, Duration: 180.5}, sink.songs[0])
	require.Len(t, sink.artists, 1)
	assert.Equal(t, core.Artist{
		ArtistID: "A1", Name: "Art", Location: strPtr("NYC"), Latitude: floatPtr(40.7), Longitude: floatPtr(-74.0),
	}, sink.artists[0])

	events := []core.LogEvent{
		play(1541903636796, "8", "free", "Test", "Art", 180.5),
		{Page: "Home", Ts: tsPtr(1541903640000), UserID: "8", Level: "free"},
		play(1541903700000, "8", "paid", "Test", "Art", 181.0),
	}
	b, err := Logs(ctx, events, sink)
	require.NoError(t, err)

	require.Len(t, b.Songplays, 2)
	assert.Equal(t, &core.SongMatch{SongID: "S1", ArtistID: "A1"}, b.Songplays[0].Match)
	assert.Nil(t, b.Songplays[1].SongID())
	assert.Nil(t, b.Songplays[1].ArtistID())
	assert.Equal(t, "paid", b.Songplays[1].Level)
	assert.Len(t, b.Times, 2)
	assert.Len(t, b.Users, 2)
}
