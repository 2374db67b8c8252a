// Package locator finds the directory holding the DICOM series to load.
package locator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Extension is the file suffix, compared case-insensitively, that marks
// a DICOM slice.
const Extension = ".dcm"

// NotFoundError is returned when no candidate directory holds a DICOM file.
type NotFoundError struct {
	// Candidates are the resolved paths that were probed, in order
	Candidates []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not find a DICOM directory with %s files in expected locations: %s",
		Extension, strings.Join(e.Candidates, ", "))
}

// ExitCode implements the exit status contract of the command.
func (e *NotFoundError) ExitCode() int { return 1 }

// Resolve joins every candidate onto baseDir. Absolute candidates are kept.
// An empty baseDir means the process working directory.
func Resolve(baseDir string, candidates []string) ([]string, error) {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "get working directory")
		}
		baseDir = wd
	}

	resolved := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if filepath.IsAbs(c) {
			resolved = append(resolved, filepath.Clean(c))
			continue
		}
		resolved = append(resolved, filepath.Join(baseDir, c))
	}
	return resolved, nil
}

// Locate returns the first candidate directory, resolved against baseDir,
// that contains at least one DICOM file.
func Locate(baseDir string, candidates []string) (string, error) {
	resolved, err := Resolve(baseDir, candidates)
	if err != nil {
		return "", err
	}

	for _, dir := range resolved {
		if HasDICOMFiles(dir) {
			return dir, nil
		}
	}

	return "", &NotFoundError{Candidates: resolved}
}

// HasDICOMFiles reports whether dir is a readable directory with at least
// one DICOM file in it. Subdirectories are not searched.
func HasDICOMFiles(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if IsDICOMName(entry.Name()) {
			return true
		}
	}
	return false
}

// IsDICOMName reports whether name carries the DICOM extension.
func IsDICOMName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), Extension)
}

// ListDICOMFiles returns the DICOM file paths in dir, sorted by name.
func ListDICOMFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read directory %s", dir)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !IsDICOMName(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}
