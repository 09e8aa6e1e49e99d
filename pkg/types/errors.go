// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrNotFound is returned by Read when the object file does not exist.
	// It matches fs.ErrNotExist as well.
	ErrNotFound = fmt.Errorf("object not found: %w", fs.ErrNotExist)

	// ErrPartialWrite is returned when fewer bytes than requested reached
	// the temporary file.
	ErrPartialWrite = errors.New("partial write")

	// ErrNoSpace is returned when the filesystem is out of space.
	ErrNoSpace = errors.New("no space left on device")

	ErrInvalidObjectID = errors.New("invalid object id")
	ErrInvalidStoreID  = errors.New("invalid store id")
)

// OpError records a failed filesystem step of a backend operation.
type OpError struct {
	Op   string // "mkdir", "create", "write", "flush", "close", "rename", ...
	Path string
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means the object does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
