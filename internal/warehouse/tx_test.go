package warehouse

import (
	"context"
	"testing"

	"github.com/leapstack-labs/leapload/internal/testutil"
	"github.com/leapstack-labs/leapload/pkg/adapters/sqlite"
	"github.com/leapstack-labs/leapload/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, withSchema bool) *sqlite.Adapter {
	t.Helper()
	ctx := context.Background()
	adp := sqlite.New(nil)
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: sqlite.MemoryPath}))
	t.Cleanup(func() { _ = adp.Close() })
	if withSchema {
		require.NoError(t, adp.Exec(ctx, testutil.StarSchemaDDL))
	}
	return adp
}

func countRows(t *testing.T, adp *sqlite.Adapter, query string) int {
	t.Helper()
	var n int
	require.NoError(t, adp.DB.QueryRowContext(context.Background(), query).Scan(&n))
	return n
}

func TestCheckTables(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, CheckTables(ctx, openStore(t, true)))

	err := CheckTables(ctx, openStore(t, false))
	var missing *MissingTablesError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, core.Relations, missing.Tables)
	assert.Contains(t, err.Error(), "songs, artists, time, users, songplays")
}

func TestTx_CommitAndRollback(t *testing.T) {
	ctx := context.Background()
	adp := openStore(t, true)

	tx, err := Begin(ctx, adp, Options{})
	require.NoError(t, err)
	require.NoError(t, tx.InsertArtist(ctx, core.Artist{ArtistID: "A1", Name: "Band"}))
	require.NoError(t, tx.InsertSong(ctx, core.Song{SongID: "S1", Title: "Intro", ArtistID: "A1", Duration: 180.5}))

	// Uncommitted rows are visible to lookups in the same transaction.
	match, err := tx.LookupSong(ctx, "Intro", "Band", 180.5)
	require.NoError(t, err)
	assert.Equal(t, &core.SongMatch{SongID: "S1", ArtistID: "A1"}, match)
	require.NoError(t, tx.Commit())
	assert.NoError(t, tx.Rollback(), "rollback after commit is a no-op")

	tx, err = Begin(ctx, adp, Options{})
	require.NoError(t, err)
	require.NoError(t, tx.InsertUser(ctx, core.User{UserID: "8", Level: "free"}))
	require.NoError(t, tx.Rollback())

	assert.Equal(t, 1, countRows(t, adp, `SELECT COUNT(*) FROM songs`))
	assert.Equal(t, 0, countRows(t, adp, `SELECT COUNT(*) FROM users`))
}

func TestTx_ConflictPolicies(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		policy    ConflictPolicy
		wantErr   bool
		wantLevel string
	}{
		{name: "error rejects duplicate user", policy: ConflictError, wantErr: true},
		{name: "ignore keeps first level", policy: ConflictIgnore, wantLevel: "free"},
		{name: "update keeps latest level", policy: ConflictUpdate, wantLevel: "paid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adp := openStore(t, true)
			tx, err := Begin(ctx, adp, Options{OnConflict: tt.policy})
			require.NoError(t, err)
			defer func() { _ = tx.Rollback() }()

			require.NoError(t, tx.InsertUser(ctx, core.User{UserID: "8", Level: "free"}))
			err = tx.InsertUser(ctx, core.User{UserID: "8", Level: "paid"})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NoError(t, tx.Commit())

			var level string
			require.NoError(t, adp.DB.QueryRowContext(ctx, `SELECT level FROM users WHERE user_id = '8'`).Scan(&level))
			assert.Equal(t, tt.wantLevel, level)
			assert.Equal(t, 1, countRows(t, adp, `SELECT COUNT(*) FROM users`))
		})
	}
}

func TestTx_MissingKeyViolatesConstraint(t *testing.T) {
	ctx := context.Background()
	adp := openStore(t, true)

	tx, err := Begin(ctx, adp, Options{})
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	err = tx.InsertSongplay(ctx, core.Songplay{Level: "free", SessionID: 1})
	require.Error(t, err, "songplay without user_id must be rejected by the store")
}

func TestMissingColumns(t *testing.T) {
	ctx := context.Background()
	adp := openStore(t, true)

	for _, rel := range core.Relations {
		meta, err := adp.GetTableMetadata(ctx, string(rel))
		require.NoError(t, err)
		assert.Empty(t, MissingColumns(meta, rel), "relation %s", rel)
	}

	partial := &core.TableMetadata{Name: "users", Columns: []core.Column{{Name: "USER_ID"}, {Name: "level"}}}
	assert.Equal(t, []string{"first_name", "last_name", "gender"}, MissingColumns(partial, core.RelationUsers))
}
