package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/leapstack-labs/leapload/pkg/core"
)

// Decode reads newline-delimited JSON from r, one value per line.
// Blank lines are skipped. Errors carry the 1-based line number.
func Decode[T any](r io.Reader) ([]T, error) {
	br := bufio.NewReader(r)
	var out []T
	for lineNo := 1; ; lineNo++ {
		line, err := br.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			var v T
			if uerr := json.Unmarshal(trimmed, &v); uerr != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, uerr)
			}
			out = append(out, v)
		}

		if errors.Is(err, io.EOF) {
			return out, nil
		}
	}
}

// ReadFile decodes every record of the NDJSON file at path.
func ReadFile[T any](path string) ([]T, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from Discover
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	records, err := Decode[T](f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ReadSongs decodes a song catalog file.
func ReadSongs(path string) ([]core.SongRecord, error) {
	return ReadFile[core.SongRecord](path)
}

// ReadEvents decodes an activity log file.
func ReadEvents(path string) ([]core.LogEvent, error) {
	return ReadFile[core.LogEvent](path)
}
