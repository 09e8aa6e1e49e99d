// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"path/filepath"

	"github.com/LeeDigitalWorks/zapobj/pkg/types"
)

// StoreDir returns the directory holding the fanout tree of a store. The
// legacy layout ignores storeID.
func (b *FS) StoreDir(storeID string, version types.Version) string {
	if version.PerStore() {
		return filepath.Join(b.storeRoot, storeID)
	}
	return b.legacyRoot
}

// ObjectPath maps an object to its file. It does no I/O; id must be valid.
func (b *FS) ObjectPath(storeID string, version types.Version, id types.ObjectID) string {
	return filepath.Join(b.StoreDir(storeID, version), id.Prefix(), id.Suffix())
}
