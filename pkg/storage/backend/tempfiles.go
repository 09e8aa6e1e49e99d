// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/LeeDigitalWorks/zapobj/pkg/types"
)

// TempFile is a temporary file of an in-flight or abandoned write.
type TempFile struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// ForeachTempFile calls fn for every temporary file in the fanout
// directories of both layouts until fn returns false.
func (b *FS) ForeachTempFile(fn func(TempFile) bool) {
	if !b.scanTempFiles(b.legacyRoot, fn) {
		return
	}
	err := b.scanDir(b.storeRoot, func(e fs.DirEntry) bool {
		if !e.IsDir() {
			return true
		}
		return b.scanTempFiles(filepath.Join(b.storeRoot, e.Name()), fn)
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		b.log.Warn().Err(err).Str("path", b.storeRoot).Msg("failed to scan stores for temp files")
	}
}

// scanTempFiles returns false once fn asked to stop.
func (b *FS) scanTempFiles(root string, fn func(TempFile) bool) bool {
	cont := true
	err := b.scanDir(root, func(top fs.DirEntry) bool {
		if !top.IsDir() || !types.IsFanoutDir(top.Name()) {
			return true
		}
		dir := filepath.Join(root, top.Name())
		err := b.scanDir(dir, func(e fs.DirEntry) bool {
			if !IsTempName(e.Name()) || !e.Type().IsRegular() {
				return true
			}
			info, err := e.Info()
			if err != nil {
				return true // renamed or removed meanwhile
			}
			cont = fn(TempFile{
				Path:    filepath.Join(dir, e.Name()),
				Size:    info.Size(),
				ModTime: info.ModTime(),
			})
			return cont
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			b.log.Warn().Err(err).Str("path", dir).Msg("failed to scan object dir for temp files")
		}
		return cont
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		b.log.Warn().Err(err).Str("path", root).Msg("failed to scan for temp files")
	}
	return cont
}
