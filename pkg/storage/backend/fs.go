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
	"time"

	"github.com/LeeDigitalWorks/zapobj/pkg/logger"
	"github.com/LeeDigitalWorks/zapobj/pkg/types"

	"github.com/rs/zerolog"
)

const (
	// StorageDirName is the directory under the top-level dir holding the
	// per-store layout of every object type.
	StorageDirName = "storage"

	DefaultDirPerm  fs.FileMode = 0o755
	DefaultFilePerm fs.FileMode = 0o644
)

func init() {
	Register(types.BackendTypeFS, NewFS)
}

// FS stores objects as files in a two-level fanout tree:
//
//	<dir>/<objectType>/<id[0:2]>/<id[2:]>                    version 0
//	<dir>/storage/<objectType>/<storeID>/<id[0:2]>/<id[2:]>  version > 0
//
// FS holds no locks. Writers build each object in a private temporary
// file next to its final path and rename it into place, so concurrent
// writers and readers never see partial content.
type FS struct {
	objectType string
	legacyRoot string
	storeRoot  string

	dirPerm  fs.FileMode
	filePerm fs.FileMode
	fallback types.ReadFallback
	flusher  Flusher
	log      zerolog.Logger

	// openDir opens directories for enumeration and removal.
	openDir func(name string) (*os.File, error)
}

// Option configures an FS backend.
type Option func(*FS)

// WithFlusher replaces the platform flusher.
func WithFlusher(f Flusher) Option {
	return func(b *FS) {
		b.flusher = f
	}
}

// WithReadFallback selects the read fallback policy.
func WithReadFallback(p types.ReadFallback) Option {
	return func(b *FS) {
		b.fallback = p
	}
}

// WithPerm sets permission bits for created directories and object files.
func WithPerm(dir, file fs.FileMode) Option {
	return func(b *FS) {
		if dir != 0 {
			b.dirPerm = dir
		}
		if file != 0 {
			b.filePerm = file
		}
	}
}

// NewFS creates a filesystem backend from config
func NewFS(cfg types.BackendConfig) (types.ObjectBackend, error) {
	return NewFSBackend(cfg.Dir, cfg.ObjectType,
		WithReadFallback(cfg.ReadFallback),
		WithPerm(cfg.DirPerm, cfg.FilePerm))
}

// NewFSBackend creates the legacy and per-store roots for objectType under
// dir. No backend is returned if either root cannot be created.
func NewFSBackend(dir, objectType string, opts ...Option) (*FS, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir required for fs backend")
	}
	if objectType == "" || objectType == StorageDirName || objectType == "." || objectType == ".." ||
		strings.ContainsAny(objectType, `/\`) {
		return nil, fmt.Errorf("invalid object type %q", objectType)
	}

	b := &FS{
		objectType: objectType,
		legacyRoot: filepath.Join(dir, objectType),
		storeRoot:  filepath.Join(dir, StorageDirName, objectType),
		dirPerm:    DefaultDirPerm,
		filePerm:   DefaultFilePerm,
		fallback:   types.ReadFallbackNone,
		flusher:    DefaultFlusher(),
		openDir:    os.Open,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.fallback == "" {
		b.fallback = types.ReadFallbackNone
	}
	b.log = logger.With().
		Str("component", "fs_backend").
		Str("object_type", objectType).
		Logger()

	for _, root := range []string{b.legacyRoot, b.storeRoot} {
		if err := os.MkdirAll(root, b.dirPerm); err != nil {
			b.log.Error().Err(err).Str("path", root).Msg("objects dir does not exist and cannot be created")
			return nil, &types.OpError{Op: "mkdir", Path: root, Err: err}
		}
	}

	return b, nil
}

func (b *FS) Type() types.BackendType {
	return types.BackendTypeFS
}

// ObjectType returns the object type this backend serves.
func (b *FS) ObjectType() string {
	return b.objectType
}

// LegacyRoot returns the root of the version 0 layout.
func (b *FS) LegacyRoot() string {
	return b.legacyRoot
}

// StoreRoot returns the parent of all per-store roots.
func (b *FS) StoreRoot() string {
	return b.storeRoot
}

func (b *FS) Read(storeID string, version types.Version, id types.ObjectID) ([]byte, error) {
	start := time.Now()
	data, err := b.read(storeID, version, id)
	observe(b.objectType, opRead, start, len(data), err)
	return data, err
}

func (b *FS) read(storeID string, version types.Version, id types.ObjectID) ([]byte, error) {
	if err := validate(storeID, version, id); err != nil {
		return nil, err
	}

	p := b.ObjectPath(storeID, version, id)
	data, err := readObject(p)
	if errors.Is(err, types.ErrNotFound) && b.fallback == types.ReadFallbackVersion1 &&
		version != types.VersionStore && types.ValidateStoreID(storeID) == nil {
		p = b.ObjectPath(storeID, types.VersionStore, id)
		data, err = readObject(p)
	}
	if err != nil {
		ev := b.log.Error()
		if errors.Is(err, types.ErrNotFound) {
			ev = b.log.Debug()
		}
		ev.Err(err).
			Str("op", opRead).
			Str("store_id", storeID).
			Int("version", int(version)).
			Str("object_id", id.String()).
			Msg("failed to read object")
		return nil, err
	}
	return data, nil
}

func readObject(p string) ([]byte, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &types.OpError{Op: "read", Path: p, Err: types.ErrNotFound}
		}
		return nil, &types.OpError{Op: "read", Path: p, Err: err}
	}
	return data, nil
}

// Exists only stats the object file; any stat failure counts as absent.
func (b *FS) Exists(storeID string, version types.Version, id types.ObjectID) bool {
	start := time.Now()
	ok := validate(storeID, version, id) == nil && pathExists(b.ObjectPath(storeID, version, id))
	observe(b.objectType, opExists, start, 0, nil)
	return ok
}

func pathExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// Size returns the stored size of an object.
func (b *FS) Size(storeID string, version types.Version, id types.ObjectID) (int64, error) {
	if err := validate(storeID, version, id); err != nil {
		return 0, err
	}
	p := b.ObjectPath(storeID, version, id)
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, &types.OpError{Op: "stat", Path: p, Err: types.ErrNotFound}
		}
		return 0, &types.OpError{Op: "stat", Path: p, Err: err}
	}
	return info.Size(), nil
}

// Delete unlinks the object file. Missing files are already deleted.
func (b *FS) Delete(storeID string, version types.Version, id types.ObjectID) {
	start := time.Now()
	defer observe(b.objectType, opDelete, start, 0, nil)

	if err := validate(storeID, version, id); err != nil {
		b.log.Warn().Err(err).Str("op", opDelete).Msg("ignoring delete of invalid object")
		return
	}
	p := b.ObjectPath(storeID, version, id)
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		b.log.Warn().Err(err).Str("op", opDelete).Str("path", p).Msg("failed to delete object")
	}
}

func (b *FS) Close() error {
	return nil
}

func validate(storeID string, version types.Version, id types.ObjectID) error {
	if !id.Valid() {
		return fmt.Errorf("%w: %q", types.ErrInvalidObjectID, string(id))
	}
	if version.PerStore() {
		return types.ValidateStoreID(storeID)
	}
	return nil
}
