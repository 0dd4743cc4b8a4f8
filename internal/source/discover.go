// Package source finds and decodes the newline-delimited JSON input files.
package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExtension is the input file extension used when none is configured.
const DefaultExtension = ".json"

// ErrNotDirectory is returned when a data root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Discover walks root recursively and returns the absolute paths of all
// regular files with the given extension, in lexical order.
// The extension match is case-insensitive and a leading dot is optional.
func Discover(root, ext string) ([]string, error) {
	if ext == "" {
		ext = DefaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("data root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data root %s: %w", root, ErrNotDirectory)
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}
