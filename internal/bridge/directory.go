package bridge

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// sourceBoundary records where one source file's lines begin within a
// directory session's synthetic concatenation.
type sourceBoundary struct {
	startLine int
	name      string
}

// spoolDirectory implements SPEC_FULL.md §5's "directory-as-virtual-file
// opening": every non-directory entry directly inside dir whose name does
// not start with "." (non-recursive, path-sorted; empty files add no
// lines) is concatenated into one spool file, each file's lines
// tagged with a synthetic source_file decoration via the returned resolver.
// Grounded on app/fileloader/directory.go's directory-listing idiom,
// generalized from "list files for the open dialog" to "concatenate files
// into one session".
func spoolDirectory(dir string) (spoolPath string, boundaries []sourceBoundary, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	if len(names) == 0 {
		return "", nil, fmt.Errorf("directory %s contains no files to open", dir)
	}

	spool, err := os.CreateTemp("", "loglayer-dir-*.log")
	if err != nil {
		return "", nil, fmt.Errorf("create spool file: %w", err)
	}
	spoolPath = spool.Name()

	var lineCount int
	for _, name := range names {
		full := filepath.Join(dir, name)
		data, readErr := os.ReadFile(full)
		if readErr != nil {
			spool.Close()
			os.Remove(spoolPath)
			return "", nil, fmt.Errorf("read %s: %w", full, readErr)
		}
		if len(data) == 0 {
			continue
		}

		boundaries = append(boundaries, sourceBoundary{startLine: lineCount, name: name})

		if _, writeErr := spool.Write(data); writeErr != nil {
			spool.Close()
			os.Remove(spoolPath)
			return "", nil, fmt.Errorf("write spool file: %w", writeErr)
		}
		if data[len(data)-1] != '\n' {
			if _, writeErr := spool.Write([]byte{'\n'}); writeErr != nil {
				spool.Close()
				os.Remove(spoolPath)
				return "", nil, fmt.Errorf("write spool file: %w", writeErr)
			}
		}
		lineCount += bytes.Count(data, []byte{'\n'})
		if data[len(data)-1] != '\n' {
			lineCount++
		}
	}

	if err := spool.Close(); err != nil {
		os.Remove(spoolPath)
		return "", nil, fmt.Errorf("finalize spool file: %w", err)
	}
	if len(boundaries) == 0 {
		os.Remove(spoolPath)
		return "", nil, fmt.Errorf("directory %s contains no non-empty files to open", dir)
	}
	return spoolPath, boundaries, nil
}

// resolveSource returns a physical-index -> source-file-name lookup closure
// over a sorted (by startLine) boundary list.
func resolveSource(boundaries []sourceBoundary) func(phys int) string {
	return func(phys int) string {
		pos := sort.Search(len(boundaries), func(i int) bool { return boundaries[i].startLine > phys })
		if pos == 0 {
			return ""
		}
		return boundaries[pos-1].name
	}
}

