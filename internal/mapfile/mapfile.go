// Package mapfile provides writable memory-mapped views of regular files.
//
// scrub patches buffers strictly in place, so mapping a file read-write and
// mutating the mapping is the natural way to run the patcher against a file
// without ever copying or resizing its contents.
package mapfile

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const maxInt = int64(^uint(0) >> 1)

var (
	// ErrEmptyFile indicates the file has no bytes to map.
	ErrEmptyFile = errors.New("mapfile: empty file")

	// ErrClosed indicates the mapping has already been closed.
	//
	// This is a programming error.
	ErrClosed = errors.New("mapfile: closed")

	errFileTooLarge = errors.New("mapfile: file too large to map")
)

// File is a writable memory-mapped view of a regular file. Writes to Data
// land in the file; Sync flushes them, Close unmaps. The view never grows
// or shrinks the file.
type File struct {
	f    *os.File
	data []byte
}

// Open maps path read-write, shared. The file must be non-empty: an empty
// mapping is useless to the patcher and mmap rejects zero lengths anyway.
func Open(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()

		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	size := info.Size()
	if size == 0 {
		_ = f.Close()

		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	if size > maxInt {
		_ = f.Close()

		return nil, fmt.Errorf("%w: %s (%d bytes)", errFileTooLarge, path, size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()

		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}

	return &File{f: f, data: data}, nil
}

// Data returns the mapped bytes. Valid until Close.
func (m *File) Data() []byte { return m.data }

// Sync flushes modified pages back to the file.
func (m *File) Sync() error {
	if m.data == nil {
		return ErrClosed
	}

	if err := unix.Msync(m.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("msync: %w", err)
	}

	return nil
}

// Close unmaps the view and closes the underlying file. Mutations made
// through Data before Close remain visible in the file (MAP_SHARED), even
// without an explicit Sync.
func (m *File) Close() error {
	if m.data == nil {
		return nil
	}

	unmapErr := unix.Munmap(m.data)
	m.data = nil

	closeErr := m.f.Close()
	if unmapErr != nil {
		return fmt.Errorf("munmap: %w", unmapErr)
	}

	return closeErr
}
