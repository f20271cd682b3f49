//go:build !darwin && !linux

package lineindex

import (
	"fmt"
	"os"
)

// otherMapping is the non-POSIX fallback: the file is read fully into memory
// instead of mapped. Callers are agnostic to the difference; the "mmap
// closed" defensiveness in the session/workers applies here just the same.
type otherMapping struct {
	data []byte
}

func openFile(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &otherMapping{data: data}, nil
}

func (m *otherMapping) Bytes() []byte {
	return m.data
}

func (m *otherMapping) Closed() bool {
	return m.data == nil
}

func (m *otherMapping) Close() error {
	m.data = nil
	return nil
}
