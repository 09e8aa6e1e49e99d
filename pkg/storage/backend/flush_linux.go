// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package backend

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

type platformFlusher struct{}

// FlushFile uses fdatasync: the file is new, so the only metadata needed
// to read it back (its size) is flushed along with the data.
func (platformFlusher) FlushFile(f *os.File) error {
	return ignoreUnsupported(unix.Fdatasync(int(f.Fd())))
}

func (platformFlusher) FlushDir(dir string) error {
	fd, err := unix.Open(dir, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return &os.PathError{Op: "open", Path: dir, Err: err}
	}
	defer unix.Close(fd)

	if err := ignoreUnsupported(unix.Fsync(fd)); err != nil {
		return &os.PathError{Op: "fsync", Path: dir, Err: err}
	}
	return nil
}

// Some filesystems (tmpfs variants, FUSE, NFS setups) reject fsync with
// EINVAL or EOPNOTSUPP.
func ignoreUnsupported(err error) error {
	if errors.Is(err, unix.EINVAL) || errors.Is(err, unix.ENOTSUP) || errors.Is(err, unix.EOPNOTSUPP) {
		return nil
	}
	return err
}
