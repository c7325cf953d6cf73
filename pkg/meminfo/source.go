package meminfo

import (
	"bytes"
	"io"
	"os"
	"sync"
)

// DefaultPath is the kernel memory-info table.
const DefaultPath = "/proc/meminfo"

// Source yields a fresh read of a memory-info blob on every Open.
type Source interface {
	Open() (io.ReadCloser, error)
}

// File reads a memory-info table from the filesystem.
type File struct {
	Path string
}

// NewFile returns a Source for path, or /proc/meminfo when path is empty.
func NewFile(path string) *File {
	if path == "" {
		path = DefaultPath
	}
	return &File{Path: path}
}

// Open opens the file.
func (f *File) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}

// String returns the file path.
func (f *File) String() string {
	return f.Path
}

// Static serves an in-memory blob that can be swapped between reads.
type Static struct {
	mu   sync.RWMutex
	data []byte
	err  error
}

// NewStatic returns a Static source serving text.
func NewStatic(text string) *Static {
	return &Static{data: []byte(text)}
}

// Set replaces the blob served by subsequent reads and clears any failure.
func (s *Static) Set(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = []byte(text)
	s.err = nil
}

// Fail makes subsequent reads return err until Set is called. A nil err restores reads.
func (s *Static) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Open returns a reader over the current blob.
func (s *Static) Open() (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

// Read opens src and parses it with the given matchers.
func Read(src Source, report, internal Matcher) (Pass, error) {
	rc, err := src.Open()
	if err != nil {
		return Pass{}, err
	}
	defer rc.Close()
	return Parse(rc, report, internal)
}
