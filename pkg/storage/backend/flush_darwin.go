// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin

package backend

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

type platformFlusher struct{}

// FlushFile issues F_FULLFSYNC. Plain fsync on macOS only pushes data to
// the drive, not through the drive's cache.
func (platformFlusher) FlushFile(f *os.File) error {
	fd := f.Fd()
	_, err := unix.FcntlInt(fd, unix.F_FULLFSYNC, 0)
	if errors.Is(err, unix.ENOTSUP) || errors.Is(err, unix.EINVAL) || errors.Is(err, unix.ENOTTY) {
		err = unix.Fsync(int(fd))
		if errors.Is(err, unix.ENOTSUP) || errors.Is(err, unix.EINVAL) {
			return nil
		}
	}
	return err
}

// FlushDir is a no-op: APFS and HFS+ keep renames durable on their own.
func (platformFlusher) FlushDir(dir string) error {
	return nil
}
