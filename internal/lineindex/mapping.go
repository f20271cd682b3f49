// Package lineindex memory-maps a log file and builds the physical-line to
// byte-offset table the rest of the engine navigates by.
package lineindex

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// Mapping is a read-only view over an opened file's bytes. Implementations
// may be a real mmap or, on platforms/files where that isn't available, a
// plain in-memory byte slice; callers must treat both identically and must
// never see the raw mapping directly (Design Notes: "avoid exposing the raw
// mapping to callers").
type Mapping interface {
	// Bytes returns the mapped region. Safe to call concurrently. Returns
	// nil if the mapping has been closed.
	Bytes() []byte
	// Closed reports whether Close has been called. A mapping of an empty
	// file holds no bytes and may report true before Close.
	Closed() bool
	Close() error
}

// Open maps path read-only. Files with an ".xz" suffix are transparently
// decompressed to a spool file in the OS temp directory first, then that
// spool file is mapped; the spool file is removed on Close.
func Open(path string) (Mapping, error) {
	if strings.EqualFold(filepath.Ext(path), ".xz") {
		return openXZ(path)
	}
	return openFile(path)
}

func openXZ(path string) (Mapping, error) {
	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	zr, err := xz.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("open xz stream %s: %w", path, err)
	}

	spool, err := os.CreateTemp("", "loglayer-spool-*.log")
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}
	spoolPath := spool.Name()

	if _, err := io.Copy(spool, zr); err != nil {
		spool.Close()
		os.Remove(spoolPath)
		return nil, fmt.Errorf("decompress %s: %w", path, err)
	}
	if err := spool.Close(); err != nil {
		os.Remove(spoolPath)
		return nil, fmt.Errorf("finalize spool file: %w", err)
	}

	m, err := openFile(spoolPath)
	if err != nil {
		os.Remove(spoolPath)
		return nil, err
	}
	return &spoolMapping{Mapping: m, spoolPath: spoolPath}, nil
}

// spoolMapping deletes its backing temp file on Close, after the underlying
// mapping has released the file descriptor.
type spoolMapping struct {
	Mapping
	spoolPath string
}

func (s *spoolMapping) Close() error {
	err := s.Mapping.Close()
	os.Remove(s.spoolPath)
	return err
}
