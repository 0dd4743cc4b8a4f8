// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapload/internal/cli/output"
	inttestutil "github.com/leapstack-labs/leapload/internal/testutil"
	"github.com/leapstack-labs/leapload/pkg/adapters/sqlite"
	"github.com/leapstack-labs/leapload/pkg/core"
)

// Sample input records. The catalog song matches the first play exactly.
const (
	CatalogRecord = `{"num_songs": 1, "song_id": "SOUPIRU12A6D4FA1E1", "title": "Der Kleine Dompfaff", "artist_id": "ARJIE2Y1187B994AB7", "year": 0, "duration": 152.92036, "artist_name": "Line Renaud", "artist_location": "", "artist_latitude": null, "artist_longitude": null}`

	PlayEvent  = `{"artist":"Line Renaud","auth":"Logged In","firstName":"Lily","gender":"F","itemInSession":0,"lastName":"Koch","length":152.92036,"level":"paid","location":"Chicago-Naperville-Elgin, IL-IN-WI","method":"PUT","page":"NextSong","registration":1541048010796.0,"sessionId":818,"song":"Der Kleine Dompfaff","status":200,"ts":1542837407796,"userAgent":"Mozilla/5.0","userId":"15"}`
	OtherPlay  = `{"artist":"Muse","auth":"Logged In","firstName":"Lily","gender":"F","itemInSession":1,"lastName":"Koch","length":209.50159,"level":"paid","location":"Chicago-Naperville-Elgin, IL-IN-WI","method":"PUT","page":"NextSong","registration":1541048010796.0,"sessionId":818,"song":"Supermassive Black Hole","status":200,"ts":1542837616796,"userAgent":"Mozilla/5.0","userId":"15"}`
	HomeEvent  = `{"artist":null,"auth":"Logged In","firstName":"Lily","gender":"F","itemInSession":2,"lastName":"Koch","length":null,"level":"paid","location":"Chicago-Naperville-Elgin, IL-IN-WI","method":"GET","page":"Home","registration":1541048010796.0,"sessionId":818,"song":null,"status":200,"ts":1542837700796,"userAgent":"Mozilla/5.0","userId":"15"}`
	testConfig = `song_data: data/song_data
log_data: data/log_data
state_path: .leapload/state.db
target:
  type: sqlite
  database: sparkify.db
`
)

// SetupTestProject creates a temporary project with a leapload.yaml, one
// catalog file, one log file and a SQLite target holding the star schema.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	inttestutil.WriteFile(t, tmpDir, "leapload.yaml", testConfig)
	inttestutil.WriteFile(t, tmpDir, "data/song_data/A/A/A/TRAAAAK128F9318786.json", CatalogRecord)
	inttestutil.WriteFile(t, tmpDir, "data/log_data/2018/11/2018-11-21-events.json",
		inttestutil.NDJSON(PlayEvent, HomeEvent, OtherPlay))

	ctx := context.Background()
	adp := sqlite.New(nil)
	if err := adp.Connect(ctx, core.AdapterConfig{Path: filepath.Join(tmpDir, "sparkify.db")}); err != nil {
		t.Fatalf("failed to open target database: %v", err)
	}
	defer func() { _ = adp.Close() }()
	if err := adp.Exec(ctx, inttestutil.StarSchemaDDL); err != nil {
		t.Fatalf("failed to create star schema: %v", err)
	}

	return tmpDir
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererText creates a new test renderer in text mode (simulated TTY).
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the combined stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if fenceCount := strings.Count(md, "```"); fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
