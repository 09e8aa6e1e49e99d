// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package types

import "io/fs"

// BackendType identifies an ObjectBackend implementation
type BackendType string

const (
	BackendTypeFS BackendType = "fs" // Local filesystem fanout tree
)

// Well-known object types. Each object type gets its own backend so that
// several object stores can share one top-level directory.
const (
	ObjectTypeCommits = "commits"
	ObjectTypeFS      = "fs"
	ObjectTypeBlocks  = "blocks"
)

// IterAction tells Foreach whether to keep going.
type IterAction int

const (
	IterContinue IterAction = iota
	IterStop
)

// VisitFunc is called by Foreach for every object found.
type VisitFunc func(storeID string, version Version, id ObjectID) IterAction

// ObjectBackend persists immutable objects keyed by (store, version, id).
// Implementations: FS (local filesystem), Memory (tests).
type ObjectBackend interface {
	// Type returns the backend implementation type
	Type() BackendType

	// Read returns the full content of an object. Missing objects yield
	// an error matching ErrNotFound.
	Read(storeID string, version Version, id ObjectID) ([]byte, error)

	// Write stores data under id. When durable is set the object and its
	// directory entry are flushed to stable storage before returning.
	Write(storeID string, version Version, id ObjectID, data []byte, durable bool) error

	// Exists reports whether the object is present. Probe failures count
	// as absent.
	Exists(storeID string, version Version, id ObjectID) bool

	// Delete removes the object if present. It never fails.
	Delete(storeID string, version Version, id ObjectID)

	// Foreach calls visit for every object of a store until visit
	// returns IterStop. Concurrent mutations may or may not be observed.
	Foreach(storeID string, version Version, visit VisitFunc)

	// RemoveStore deletes every per-store object of storeID.
	RemoveStore(storeID string) error

	// Close releases any resources
	Close() error
}

// ReadFallback selects what Read does when the requested layout misses.
type ReadFallback string

const (
	ReadFallbackNone     ReadFallback = "none"
	ReadFallbackVersion1 ReadFallback = "version1" // retry the version 1 path, for layout migration
)

// BackendConfig contains configuration for creating an object backend
type BackendConfig struct {
	Type BackendType `json:"type"`

	// Dir is the top-level directory shared by all object types.
	Dir string `json:"dir"`

	// ObjectType scopes the backend, e.g. "commits", "fs" or "blocks".
	ObjectType string `json:"object_type"`

	ReadFallback ReadFallback `json:"read_fallback,omitempty"`

	// Zero values mean the backend defaults (0755 / 0644).
	DirPerm  fs.FileMode `json:"dir_perm,omitempty"`
	FilePerm fs.FileMode `json:"file_perm,omitempty"`
}
