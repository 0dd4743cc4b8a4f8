package source

import (
	"strings"
	"testing"

	"github.com/leapstack-labs/leapload/internal/testutil"
	"github.com/leapstack-labs/leapload/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const songLine = `{"num_songs": 1, "artist_id": "ARD7TVE1187B99BFB1", "artist_latitude": null, "artist_longitude": null, "artist_location": "California - LA", "artist_name": "Casual", "song_id": "SOMZWCG12A8C13C480", "title": "I Didn't Mean To", "duration": 218.93179, "year": 0}`

const playLine = `{"artist":"Sydney Youngblood","auth":"Logged In","firstName":"Jacob","gender":"M","itemInSession":53,"lastName":"Klein","length":238.07955,"level":"paid","location":"Tampa-St. Petersburg-Clearwater, FL","method":"PUT","page":"NextSong","registration":1540558108796.0,"sessionId":954,"song":"Ain't No Sunshine","status":200,"ts":1543449657796,"userAgent":"Mozilla\/5.0","userId":"73"}`

const homeLine = `{"artist":null,"auth":"Logged In","firstName":"Walter","gender":"M","itemInSession":0,"lastName":"Frye","length":null,"level":"free","location":"San Francisco-Oakland-Hayward, CA","method":"GET","page":"Home","registration":1540919166796.0,"sessionId":38,"song":null,"status":200,"ts":1541105830796,"userAgent":"Mozilla\/5.0","userId":39}`

func TestReadSongs(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "song.json", songLine)

	songs, err := ReadSongs(path)
	require.NoError(t, err)
	require.Len(t, songs, 1)

	s := songs[0]
	assert.Equal(t, "SOMZWCG12A8C13C480", s.SongID)
	assert.Equal(t, "I Didn't Mean To", s.Title)
	assert.Equal(t, "Casual", s.ArtistName)
	assert.InDelta(t, 218.93179, s.Duration, 1e-9)
	require.NotNil(t, s.ArtistLocation)
	assert.Equal(t, "California - LA", *s.ArtistLocation)
	assert.Nil(t, s.ArtistLatitude)
}

func TestReadEvents(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "2018-11-29-events.json", testutil.NDJSON(playLine, "", homeLine, "   "))

	events, err := ReadEvents(path)
	require.NoError(t, err)
	require.Len(t, events, 2, "blank lines are skipped")

	play := events[0]
	assert.True(t, play.IsPlay())
	assert.Equal(t, core.UserID("73"), play.UserID)
	require.NotNil(t, play.Ts)
	assert.Equal(t, int64(1543449657796), *play.Ts)
	require.NotNil(t, play.Song)
	assert.Equal(t, "Ain't No Sunshine", *play.Song)
	assert.Equal(t, int64(954), play.SessionID)
	assert.Equal(t, "Mozilla/5.0", play.UserAgent)

	home := events[1]
	assert.False(t, home.IsPlay())
	assert.Equal(t, core.UserID("39"), home.UserID, "numeric userId decodes to text")
	assert.Nil(t, home.Song)
	assert.Nil(t, home.Length)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine string
	}{
		{name: "malformed json", input: testutil.NDJSON(playLine, "{not json"), wantLine: "line 2"},
		{name: "wrong type", input: testutil.NDJSON("", `{"userId": true}`), wantLine: "line 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode[core.LogEvent](strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantLine)
		})
	}
}

func TestReadFile_ErrorIncludesPath(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "bad.json", "[1,2")

	_, err := ReadSongs(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path+": line 1")
}

func TestDecode_NoTrailingNewline(t *testing.T) {
	got, err := Decode[core.SongRecord](strings.NewReader(songLine + "\n" + songLine))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
