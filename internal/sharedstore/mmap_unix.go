//go:build unix

package sharedstore

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mapping is the platform seam between the byte-layout logic in store.go
// and the raw syscalls needed to back it with shared memory.
type mapping struct {
	data []byte
}

// mapFile mmaps the first size bytes of f shared between processes,
// grounded on joshuapare-hivekit/hive/loader_unix.go's Mmap/Munmap/Msync
// call sequence.
func mapFile(f *os.File, size int64) (*mapping, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("sharedstore: mmap: %w", err)
	}
	return &mapping{data: data}, nil
}

func (m *mapping) Bytes() []byte { return m.data }

func (m *mapping) Sync() error {
	if err := unix.Msync(m.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("sharedstore: msync: %w", err)
	}
	return nil
}

func (m *mapping) Close() error {
	if err := unix.Munmap(m.data); err != nil {
		return fmt.Errorf("sharedstore: munmap: %w", err)
	}
	return nil
}
