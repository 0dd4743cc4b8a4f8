package source

import (
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapload/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	b := testutil.WriteFile(t, root, "A/B/C/TRABCEI128F424C983.json", "{}")
	a := testutil.WriteFile(t, root, "A/A/A/TRAAAAW128F429D538.json", "{}")
	upper := testutil.WriteFile(t, root, "A/B/Z.JSON", "{}")
	testutil.WriteFile(t, root, "A/notes.txt", "ignored")
	testutil.WriteFile(t, root, ".ipynb_checkpoints/readme.md", "ignored")

	tests := []struct {
		name string
		ext  string
		want []string
	}{
		{name: "default extension", ext: "", want: []string{a, b, upper}},
		{name: "extension without dot", ext: "json", want: []string{a, b, upper}},
		{name: "other extension", ext: ".txt", want: []string{filepath.Join(root, "A", "notes.txt")}},
		{name: "no matches", ext: ".csv", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Discover(root, tt.ext)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			for _, p := range got {
				assert.True(t, filepath.IsAbs(p), "path %s is not absolute", p)
			}
		})
	}
}

func TestDiscover_Errors(t *testing.T) {
	root := t.TempDir()
	file := testutil.WriteFile(t, root, "log.json", "{}")

	_, err := Discover(file, "")
	assert.ErrorIs(t, err, ErrNotDirectory)

	_, err = Discover(filepath.Join(root, "missing"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}
