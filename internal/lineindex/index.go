package lineindex

import (
	"bytes"
	"context"
)

// ProgressFunc reports index-build progress as a fraction in [0, 1]. May be
// nil, and implementations should skip reporting for small files.
type ProgressFunc func(fraction float64)

// progressMinBytes is the size below which progress reporting is skipped
// entirely (the scan finishes before a UI could usefully render it).
const progressMinBytes = 8 * 1024 * 1024

// progressStep controls how often (in bytes scanned) a progress callback
// fires for large files.
const progressStep = 4 * 1024 * 1024

// Index is the physical_line -> byte_offset table for a mapped file.
//
// Invariants (spec.md §3): Offsets[0] == 0 when the file is non-empty,
// strictly increasing, and Offsets[i] is the byte position of the first
// byte of line i. An empty file yields an empty table.
type Index struct {
	Offsets []int64
	Size    int64
}

// LineCount returns the number of lines in the index.
func (ix *Index) LineCount() int {
	return len(ix.Offsets)
}

// Span returns the half-open byte range [start, end) of physical line phys.
// end is the file size for the final line.
func (ix *Index) Span(phys int) (start, end int64) {
	start = ix.Offsets[phys]
	if phys+1 < len(ix.Offsets) {
		end = ix.Offsets[phys+1]
	} else {
		end = ix.Size
	}
	return start, end
}

// Build scans data for LF bytes and returns the offset table.
//
// Grounded on go-git's storage/filesystem/mmap/scan.go: a tight
// bytes.IndexByte loop over the mapped region rather than a bufio.Scanner,
// since the input is already fully resident in memory. Cancellable between
// chunks; on cancellation the partial table is discarded (spec.md §4.1).
func Build(ctx context.Context, data []byte, progress ProgressFunc) (*Index, error) {
	size := int64(len(data))
	if size == 0 {
		return &Index{Offsets: nil, Size: 0}, nil
	}

	report := progress
	if report == nil || size < progressMinBytes {
		report = func(float64) {}
	}

	offsets := make([]int64, 0, estimateLineCount(size))
	offsets = append(offsets, 0)

	var scanned int64
	nextReportAt := int64(progressStep)
	nextCheckAt := 0
	pos := 0
	for {
		if pos >= nextCheckAt {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			nextCheckAt = pos + 4096
		}

		idx := bytes.IndexByte(data[pos:], '\n')
		if idx < 0 {
			break
		}
		lineStart := int64(pos + idx + 1)
		if lineStart != size {
			offsets = append(offsets, lineStart)
		}
		pos += idx + 1
		scanned = int64(pos)
		if scanned >= nextReportAt {
			report(float64(scanned) / float64(size))
			nextReportAt += progressStep
		}
	}

	report(1.0)
	return &Index{Offsets: offsets, Size: size}, nil
}

// estimateLineCount guesses a starting capacity for the offsets slice,
// assuming an average 80-byte line, to avoid repeated reallocation on large
// files.
func estimateLineCount(size int64) int {
	const avgLineLen = 80
	n := size / avgLineLen
	if n < 16 {
		n = 16
	}
	return int(n)
}
