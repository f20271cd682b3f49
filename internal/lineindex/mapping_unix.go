//go:build darwin || linux

package lineindex

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// unixMapping wraps a POSIX mmap of a file opened read-only.
//
// Grounded on go-git's storage/filesystem/mmap/files.go: map the whole file
// PROT_READ/MAP_SHARED, keep the backing *os.File alive until Close.
type unixMapping struct {
	data []byte
	f    *os.File
}

func openFile(path string) (Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("stat %s: %w", path, err), f.Close())
	}

	if info.Size() == 0 {
		// mmap of a zero-length file fails on some platforms; treat it as an
		// always-empty mapping instead.
		f.Close()
		return &unixMapping{data: nil}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("mmap %s: %w", path, err), f.Close())
	}

	return &unixMapping{data: data, f: f}, nil
}

func (m *unixMapping) Bytes() []byte {
	return m.data
}

func (m *unixMapping) Closed() bool {
	return m.data == nil && m.f == nil
}

func (m *unixMapping) Close() error {
	if m.f == nil {
		return nil
	}
	var data []byte
	data, m.data = m.data, nil
	f := m.f
	m.f = nil
	if data == nil {
		return f.Close()
	}
	return errors.Join(unix.Munmap(data), f.Close())
}
