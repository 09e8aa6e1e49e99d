// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"fmt"
	"strings"
)

const (
	// ObjectIDLen is the length of a hex-encoded SHA-1 object digest.
	ObjectIDLen = 40

	// FanoutLen is the number of leading ID characters used as the
	// directory name. The remaining characters form the file name.
	FanoutLen = 2
)

// ObjectID names an immutable object by the hex digest of its content.
type ObjectID string

// ParseObjectID validates s and returns it as an ObjectID.
func ParseObjectID(s string) (ObjectID, error) {
	id := ObjectID(s)
	if !id.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidObjectID, s)
	}
	return id, nil
}

func (id ObjectID) String() string {
	return string(id)
}

// Valid reports whether id is exactly ObjectIDLen lowercase hex characters.
func (id ObjectID) Valid() bool {
	return len(id) == ObjectIDLen && isLowerHex(string(id))
}

// Prefix returns the directory component of the fanout layout.
func (id ObjectID) Prefix() string {
	return string(id[:FanoutLen])
}

// Suffix returns the file name component of the fanout layout.
func (id ObjectID) Suffix() string {
	return string(id[FanoutLen:])
}

// ObjectIDFromPath rebuilds an ObjectID from a fanout directory name and
// a file name. ok is false when the pair is not a canonical object entry,
// e.g. a temporary file left next to the final path.
func ObjectIDFromPath(dir, name string) (id ObjectID, ok bool) {
	if len(dir) != FanoutLen || len(name) != ObjectIDLen-FanoutLen {
		return "", false
	}
	id = ObjectID(dir + name)
	return id, isLowerHex(string(id))
}

// IsFanoutDir reports whether name can be a first-level fanout directory.
func IsFanoutDir(name string) bool {
	return len(name) == FanoutLen && isLowerHex(name)
}

func isLowerHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Version selects the on-disk layout. Zero (and, for robustness, any
// negative value) is the legacy flat layout shared by all stores.
type Version int

const (
	VersionLegacy Version = 0
	VersionStore  Version = 1
)

// PerStore reports whether objects of this version live under a
// per-store root.
func (v Version) PerStore() bool {
	return v > 0
}

// ValidateStoreID checks that storeID is usable as a single path element.
func ValidateStoreID(storeID string) error {
	if storeID == "" || storeID == "." || storeID == ".." ||
		strings.ContainsAny(storeID, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidStoreID, storeID)
	}
	return nil
}
