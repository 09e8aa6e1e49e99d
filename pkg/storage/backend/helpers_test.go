// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"sync"
	"testing"

	"github.com/LeeDigitalWorks/zapobj/pkg/types"

	"github.com/stretchr/testify/require"
)

func testID(t *testing.T) types.ObjectID {
	t.Helper()

	var b [20]byte
	_, err := rand.Read(b[:])
	require.NoError(t, err)
	return types.ObjectID(hex.EncodeToString(b[:]))
}

func newTestFS(t *testing.T, opts ...Option) (*FS, string) {
	t.Helper()

	dir := t.TempDir()
	b, err := NewFSBackend(dir, types.ObjectTypeBlocks, opts...)
	require.NoError(t, err)
	return b, dir
}

// recordingFlusher counts flushes and can be told to fail.
type recordingFlusher struct {
	mu      sync.Mutex
	files   int
	dirs    []string
	fileErr error
	dirErr  error
	inner   Flusher
}

func (f *recordingFlusher) FlushFile(file *os.File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files++
	if f.fileErr != nil {
		return f.fileErr
	}
	return f.inner.FlushFile(file)
}

func (f *recordingFlusher) FlushDir(dir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dirs = append(f.dirs, dir)
	if f.dirErr != nil {
		return f.dirErr
	}
	return f.inner.FlushDir(dir)
}

var errInjected = errors.New("injected failure")

// failingOpener opens directories with os.Open except those marked to fail,
// which works regardless of the privileges the tests run with.
type failingOpener struct {
	mu    sync.Mutex
	fails map[string]error
}

func newFailingOpener() *failingOpener {
	return &failingOpener{fails: make(map[string]error)}
}

func (o *failingOpener) fail(dir string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fails[dir] = &fs.PathError{Op: "open", Path: dir, Err: fs.ErrPermission}
}

func (o *failingOpener) clear(dir string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.fails, dir)
}

func (o *failingOpener) open(name string) (*os.File, error) {
	o.mu.Lock()
	err := o.fails[name]
	o.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return os.Open(name)
}

func withOpener(o *failingOpener) Option {
	return func(b *FS) {
		b.openDir = o.open
	}
}

// distinctPrefixIDs returns n IDs in n different fanout directories.
func distinctPrefixIDs(t *testing.T, n int) []types.ObjectID {
	t.Helper()

	seen := make(map[string]bool)
	var ids []types.ObjectID
	for len(ids) < n {
		id := testID(t)
		if seen[id.Prefix()] {
			continue
		}
		seen[id.Prefix()] = true
		ids = append(ids, id)
	}
	return ids
}
