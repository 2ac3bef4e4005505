// Package source reads a referenced asset into one contiguous buffer.
//
// Every failure wraps core.ErrUnreadableSource. Sources never retry.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ankit-chaubey/shotmeta/core"
)

// Source resolves an opaque reference to the bytes of an image.
type Source interface {
	Read(ctx context.Context, ref string) ([]byte, error)
}

func unreadable(ref string, err error) error {
	return fmt.Errorf("%s: %v: %w", ref, err, core.ErrUnreadableSource)
}

// File reads local files. References are file paths.
type File struct {
	// MaxBytes rejects larger files; zero means no limit.
	MaxBytes int64
}

func (s File) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, unreadable(path, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, unreadable(path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, unreadable(path, err)
	}
	if info.IsDir() {
		return nil, unreadable(path, fmt.Errorf("is a directory"))
	}
	size := info.Size()
	if s.MaxBytes > 0 && size > s.MaxBytes {
		return nil, unreadable(path, fmt.Errorf("file is %d bytes, limit is %d", size, s.MaxBytes))
	}

	buf := make([]byte, size)
	n, err := io.ReadFull(f, buf)
	if err != nil {
		return nil, unreadable(path, fmt.Errorf("short read (%d of %d bytes): %v", n, size, err))
	}
	return buf, nil
}

// Memory serves buffers registered under a reference. It is safe for
// concurrent use.
type Memory struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{items: map[string][]byte{}}
}

// Put registers b under ref, replacing any earlier buffer.
func (m *Memory) Put(ref string, b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[ref] = append([]byte(nil), b...)
}

func (m *Memory) Read(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, unreadable(ref, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.items[ref]
	if !ok {
		return nil, unreadable(ref, os.ErrNotExist)
	}
	return append([]byte(nil), b...), nil
}

// Bytes is a single buffer returned for any reference.
type Bytes []byte

func (b Bytes) Read(ctx context.Context, ref string) ([]byte, error) {
	if len(b) == 0 {
		return nil, unreadable(ref, fmt.Errorf("empty buffer"))
	}
	return b, nil
}
