// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"errors"
	"io"
	"io/fs"
	"iter"
	"path/filepath"
	"time"

	"github.com/LeeDigitalWorks/zapobj/pkg/types"
)

// readDirBatch bounds how many directory entries are held in memory at
// once while walking a fanout tree.
const readDirBatch = 256

// scanDir calls fn for the entries of dir, in directory order, until fn
// returns false.
func (b *FS) scanDir(dir string, fn func(fs.DirEntry) bool) error {
	d, err := b.openDir(dir)
	if err != nil {
		return err
	}
	defer d.Close()

	for {
		entries, err := d.ReadDir(readDirBatch)
		for _, e := range entries {
			if !fn(e) {
				return nil
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Foreach walks the fanout tree of a store and calls visit for every
// object file. Temporary files and anything else that does not form an
// object ID are skipped. Unreadable fanout directories are logged and
// skipped; a missing store is simply empty.
func (b *FS) Foreach(storeID string, version types.Version, visit types.VisitFunc) {
	start := time.Now()
	defer observe(b.objectType, opForeach, start, 0, nil)

	if version.PerStore() {
		if err := types.ValidateStoreID(storeID); err != nil {
			b.log.Warn().Err(err).Str("op", opForeach).Msg("refusing to iterate invalid store")
			return
		}
	}

	root := b.StoreDir(storeID, version)
	stopped := false
	err := b.scanDir(root, func(top fs.DirEntry) bool {
		if !top.IsDir() || !types.IsFanoutDir(top.Name()) {
			return true
		}
		dir := filepath.Join(root, top.Name())
		err := b.scanDir(dir, func(e fs.DirEntry) bool {
			id, ok := types.ObjectIDFromPath(top.Name(), e.Name())
			if !ok || !e.Type().IsRegular() {
				return true
			}
			if visit(storeID, version, id) == types.IterStop {
				stopped = true
				return false
			}
			return true
		})
		if err != nil {
			b.log.Warn().Err(err).Str("op", opForeach).Str("path", dir).Msg("failed to open object dir")
		}
		return !stopped
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		b.log.Warn().Err(err).Str("op", opForeach).Str("path", root).Msg("failed to open store dir")
	}
}

// Objects returns the IDs of a store as a sequence. Breaking out of the
// range loop stops the walk; ranging again starts a fresh walk.
func Objects(b types.ObjectBackend, storeID string, version types.Version) iter.Seq[types.ObjectID] {
	return func(yield func(types.ObjectID) bool) {
		b.Foreach(storeID, version, func(_ string, _ types.Version, id types.ObjectID) types.IterAction {
			if !yield(id) {
				return types.IterStop
			}
			return types.IterContinue
		})
	}
}
