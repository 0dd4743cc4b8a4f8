package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapload/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_Connect(t *testing.T) {
	tests := []struct {
		name      string
		setupPath func(t *testing.T) string
		params    map[string]any
		verify    func(t *testing.T, path string)
		wantErr   bool
	}{
		{
			name: "in-memory",
			setupPath: func(_ *testing.T) string {
				return ":memory:"
			},
		},
		{
			name: "file-based",
			setupPath: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "sparkify.duckdb")
			},
			verify: func(t *testing.T, path string) {
				_, err := os.Stat(path)
				assert.False(t, os.IsNotExist(err), "database file was not created")
			},
		},
		{
			name: "with session settings",
			setupPath: func(_ *testing.T) string {
				return ":memory:"
			},
			params: map[string]any{
				"settings": map[string]any{"memory_limit": "256MB"},
			},
		},
		{
			name: "invalid params",
			setupPath: func(_ *testing.T) string {
				return ":memory:"
			},
			params:  map[string]any{"bogus": true},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(nil)

			dbPath := tt.setupPath(t)
			err := adp.Connect(ctx, core.AdapterConfig{Path: dbPath, Params: tt.params})
			if tt.wantErr {
				require.Error(t, err)
				assert.False(t, adp.IsConnected())
				return
			}
			require.NoError(t, err)
			defer func() { _ = adp.Close() }()

			if tt.verify != nil {
				tt.verify(t, dbPath)
			}
		})
	}
}

func TestAdapter_NotConnected(t *testing.T) {
	tests := []struct {
		name      string
		operation func(ctx context.Context, adp *Adapter) error
	}{
		{
			name: "exec without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				return adp.Exec(ctx, "SELECT 1")
			},
		},
		{
			name: "query without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				_, err := adp.Query(ctx, "SELECT 1")
				return err
			},
		},
		{
			name: "metadata without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				_, err := adp.GetTableMetadata(ctx, "songs")
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.operation(context.Background(), New(nil))
			assert.Error(t, err, "expected error when operating without connection")
		})
	}
}

func TestAdapter_Close(t *testing.T) {
	tests := []struct {
		name    string
		connect bool
	}{
		{"close without connect", false},
		{"close after connect", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(nil)

			if tt.connect {
				require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: ":memory:"}))
			}

			assert.NoError(t, adp.Close())
		})
	}
}

func TestAdapter_TransactionWithPlaceholders(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: ":memory:"}))
	defer func() { _ = adp.Close() }()

	require.NoError(t, adp.Exec(ctx, `CREATE TABLE users (user_id VARCHAR PRIMARY KEY, level VARCHAR)`))

	tx, err := adp.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, "INSERT INTO users VALUES ("+adp.Dialect().Placeholders(2)+")", "8", "free")
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	rows, err := adp.Query(ctx, `SELECT COUNT(*) FROM users`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var count int
	require.True(t, rows.Next())
	require.NoError(t, rows.Scan(&count))
	assert.Equal(t, 0, count, "rolled back insert must not be visible")
}

func TestAdapter_GetTableMetadata(t *testing.T) {
	tests := []struct {
		name        string
		setupTable  func(t *testing.T, ctx context.Context, adp *Adapter)
		tableName   string
		wantErr     bool
		wantColumns int
		wantRows    int64
		checkFunc   func(t *testing.T, meta *core.TableMetadata)
	}{
		{
			name: "existing table with data",
			setupTable: func(t *testing.T, ctx context.Context, adp *Adapter) {
				require.NoError(t, adp.Exec(ctx, `
					CREATE TABLE songs (
						song_id VARCHAR NOT NULL,
						title VARCHAR,
						artist_id VARCHAR,
						year INTEGER,
						duration DOUBLE
					)
				`))
				require.NoError(t, adp.Exec(ctx, `
					INSERT INTO songs VALUES
						('S1', 'Intro', 'A1', 2001, 180.5),
						('S2', 'Outro', 'A1', 0, 99.0)
				`))
			},
			tableName:   "songs",
			wantColumns: 5,
			wantRows:    2,
			checkFunc: func(t *testing.T, meta *core.TableMetadata) {
				assert.Equal(t, "songs", meta.Name)
				assert.Equal(t, "main", meta.Schema)

				expectedColumns := map[string]string{
					"song_id":   "VARCHAR",
					"title":     "VARCHAR",
					"artist_id": "VARCHAR",
					"year":      "INTEGER",
					"duration":  "DOUBLE",
				}

				for _, col := range meta.Columns {
					expectedType, ok := expectedColumns[col.Name]
					if !ok {
						t.Errorf("unexpected column: %s", col.Name)
						continue
					}
					assert.Equal(t, expectedType, col.Type, "column %s", col.Name)
				}
				assert.False(t, meta.Columns[0].Nullable, "song_id is NOT NULL")
			},
		},
		{
			name:      "nonexistent table",
			tableName: "nonexistent_table",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(nil)

			require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: ":memory:"}))
			defer func() { _ = adp.Close() }()

			if tt.setupTable != nil {
				tt.setupTable(t, ctx, adp)
			}

			metadata, err := adp.GetTableMetadata(ctx, tt.tableName)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Len(t, metadata.Columns, tt.wantColumns)
			assert.Equal(t, tt.wantRows, metadata.RowCount)
			if tt.checkFunc != nil {
				tt.checkFunc(t, metadata)
			}
		})
	}
}
