// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import "os"

// Flusher forces written data to stable storage. FlushFile covers a file's
// contents, FlushDir covers a directory's entries so that a rename into
// it survives a crash. Filesystems that do not implement a flush are not
// an error: implementations report success for them.
type Flusher interface {
	FlushFile(f *os.File) error
	FlushDir(dir string) error
}

// DefaultFlusher returns the flusher for the current platform.
func DefaultFlusher() Flusher {
	return platformFlusher{}
}
