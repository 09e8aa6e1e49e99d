// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/LeeDigitalWorks/zapobj/pkg/types"

	"github.com/google/uuid"
)

// tempMarker separates the final file name from the random suffix of a
// temporary file. Such names never parse as object IDs, so readers and
// Foreach ignore them.
const tempMarker = ".tmp-"

func tempPath(p string) string {
	return p + tempMarker + uuid.NewString()
}

// IsTempName reports whether a file name belongs to an in-flight or
// abandoned write.
func IsTempName(name string) bool {
	return strings.Contains(name, tempMarker)
}

// Write stores data under id. The object is built in a temporary file in
// the final directory and renamed into place, so the final path only ever
// holds complete content. With durable set, the file data is flushed
// before the rename and the directory after it.
//
// A temporary file left behind by a failed write is removed later by the
// temp file sweeper.
func (b *FS) Write(storeID string, version types.Version, id types.ObjectID, data []byte, durable bool) error {
	start := time.Now()
	err := b.write(storeID, version, id, data, durable)
	n := len(data)
	if err != nil {
		n = 0
	}
	observe(b.objectType, opWrite, start, n, err)
	if err != nil {
		b.log.Error().Err(err).
			Str("op", opWrite).
			Str("store_id", storeID).
			Int("version", int(version)).
			Str("object_id", id.String()).
			Bool("durable", durable).
			Msg("failed to write object")
	}
	return err
}

func (b *FS) write(storeID string, version types.Version, id types.ObjectID, data []byte, durable bool) error {
	if err := validate(storeID, version, id); err != nil {
		return err
	}

	p := b.ObjectPath(storeID, version, id)
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, b.dirPerm); err != nil {
		return &types.OpError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp := tempPath(p)
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, b.filePerm)
	if err != nil {
		return &types.OpError{Op: "create", Path: tmp, Err: classify(err)}
	}
	closed := false
	defer func() {
		if !closed {
			_ = f.Close()
		}
	}()

	n, err := f.Write(data)
	switch {
	case err == nil && n != len(data):
		err = types.ErrPartialWrite
	case err != nil && n != len(data):
		err = fmt.Errorf("%w (%d of %d bytes): %w", types.ErrPartialWrite, n, len(data), err)
	}
	if err != nil {
		return &types.OpError{Op: "write", Path: tmp, Err: classify(err)}
	}

	if durable {
		if err := b.flusher.FlushFile(f); err != nil {
			return &types.OpError{Op: "flush", Path: tmp, Err: err}
		}
	}

	// Some filesystems (NFS) only report write errors on close.
	closed = true
	if err := f.Close(); err != nil {
		return &types.OpError{Op: "close", Path: tmp, Err: classify(err)}
	}

	if !durable {
		return b.replace(tmp, p)
	}

	if err := os.Rename(tmp, p); err != nil {
		return &types.OpError{Op: "rename", Path: p, Err: err}
	}
	if err := b.flusher.FlushDir(dir); err != nil {
		return &types.OpError{Op: "flush", Path: dir, Err: err}
	}
	return nil
}

// replace moves tmp over p without any flush. The rename replaces an
// existing file atomically on every supported platform, so the usual
// remove-then-rename sequence of an unflushed write is only the fallback:
// the old entry is removed first only when the direct rename fails while
// p exists, which opens a short window in which the object looks absent.
func (b *FS) replace(tmp, p string) error {
	err := os.Rename(tmp, p)
	if err == nil {
		return nil
	}
	if !pathExists(p) {
		return &types.OpError{Op: "rename", Path: p, Err: err}
	}

	if rmErr := os.Remove(p); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
		b.log.Warn().Err(rmErr).Str("path", p).Msg("failed to remove existing object before rename")
	}
	if err := os.Rename(tmp, p); err != nil {
		return &types.OpError{Op: "rename", Path: p, Err: err}
	}
	return nil
}

// classify maps a full disk onto ErrNoSpace, keeping the original cause.
func classify(err error) error {
	if errors.Is(err, syscall.ENOSPC) {
		return fmt.Errorf("%w: %w", types.ErrNoSpace, err)
	}
	return err
}
