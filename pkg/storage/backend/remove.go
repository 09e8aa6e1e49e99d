// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/LeeDigitalWorks/zapobj/pkg/types"
)

// RemoveStore deletes the per-store tree of storeID. Legacy objects are
// never touched. If a fanout directory cannot be opened the removal stops
// with an error and the store may be partially deleted; calling
// RemoveStore again resumes the cleanup.
func (b *FS) RemoveStore(storeID string) error {
	start := time.Now()
	err := b.removeStore(storeID)
	observe(b.objectType, opRemoveStore, start, 0, err)
	if err != nil {
		b.log.Error().Err(err).Str("op", opRemoveStore).Str("store_id", storeID).Msg("failed to remove store")
	}
	return err
}

func (b *FS) removeStore(storeID string) error {
	if err := types.ValidateStoreID(storeID); err != nil {
		return err
	}

	root := filepath.Join(b.storeRoot, storeID)
	var abortErr error
	err := b.scanDir(root, func(top fs.DirEntry) bool {
		p := filepath.Join(root, top.Name())
		if !top.IsDir() {
			_ = os.Remove(p)
			return true
		}
		if err := b.removeFiles(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return true // removed concurrently
			}
			abortErr = &types.OpError{Op: "open", Path: p, Err: err}
			return false
		}
		_ = os.Remove(p)
		return true
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &types.OpError{Op: "open", Path: root, Err: err}
	}
	if abortErr != nil {
		return abortErr
	}

	if err := os.Remove(root); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &types.OpError{Op: "rmdir", Path: root, Err: err}
	}
	return nil
}

// removeFiles unlinks every entry of dir, ignoring individual failures.
// Nothing but object and temp files belongs in a fanout directory, so any
// subdirectory is removed with its contents.
func (b *FS) removeFiles(dir string) error {
	return b.scanDir(dir, func(e fs.DirEntry) bool {
		p := filepath.Join(dir, e.Name())
		if e.IsDir() {
			_ = os.RemoveAll(p)
			return true
		}
		_ = os.Remove(p)
		return true
	})
}
