// Package discover finds input volumes by file-name filters.
package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mrsinham/slicemovie/internal/volume"
)

// DefaultFilters select preprocessed T1w and BOLD NIfTI files.
var DefaultFilters = []string{"T1w", "preproc", "bold", "nii.gz"}

// NoInputFilesError is returned when discovery matches nothing.
type NoInputFilesError struct {
	Root    string
	Filters []string
}

func (e *NoInputFilesError) Error() string {
	return fmt.Sprintf("no files found in %s matching filters %v", e.Root, e.Filters)
}

// Matches reports whether the base name of path contains every filter and
// none of the excludes.
func Matches(path string, filters, exclude []string) bool {
	name := filepath.Base(path)
	for _, f := range filters {
		if !strings.Contains(name, f) {
			return false
		}
	}
	for _, x := range exclude {
		if x != "" && strings.Contains(name, x) {
			return false
		}
	}
	return true
}

// Find returns the sorted paths of regular files under root whose base name
// matches the filters. Without recursive only the top directory is scanned.
func Find(root string, filters, exclude []string, recursive bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data directory %s is not a directory", root)
	}

	var found []string
	if !recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", root, err)
		}
		for _, e := range entries {
			if e.Type().IsRegular() && Matches(e.Name(), filters, exclude) {
				found = append(found, filepath.Join(root, e.Name()))
			}
		}
		sort.Strings(found)
		return found, nil
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() && Matches(path, filters, exclude) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(found)
	return found, nil
}

// Resolve returns the input list for a run. A data path naming a supported
// volume file is used as is; a directory is searched with Find. A file of
// any other type yields no inputs.
func Resolve(dataPath string, filters, exclude []string, recursive bool) ([]string, error) {
	if info, err := os.Stat(dataPath); err == nil && info.Mode().IsRegular() {
		if volume.IsSupported(dataPath) {
			return []string{dataPath}, nil
		}
		return nil, &NoInputFilesError{Root: dataPath, Filters: filters}
	}
	paths, err := Find(dataPath, filters, exclude, recursive)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, &NoInputFilesError{Root: dataPath, Filters: filters}
	}
	return paths, nil
}

// SplitList parses a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
