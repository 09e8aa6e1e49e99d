// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForeachTempFile_BothLayouts(t *testing.T) {
	t.Parallel()

	b, _ := newTestFS(t)
	legacy := b.ObjectPath("", 0, testID(t))
	perStore := b.ObjectPath("S", 1, testID(t))
	for _, p := range []string{legacy, perStore} {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(tempPath(p), []byte("abc"), 0o644))
	}
	// Real objects are not temp files
	require.NoError(t, b.Write("S", 1, testID(t), []byte("object"), true))

	found := tempFiles(b)
	require.Len(t, found, 2)
	for _, tf := range found {
		assert.Equal(t, int64(3), tf.Size)
		assert.False(t, tf.ModTime.IsZero())
	}
}

func TestForeachTempFile_Stop(t *testing.T) {
	t.Parallel()

	b, _ := newTestFS(t)
	for i := 0; i < 3; i++ {
		p := b.ObjectPath("S", 1, testID(t))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(tempPath(p), nil, 0o644))
	}

	n := 0
	b.ForeachTempFile(func(TempFile) bool {
		n++
		return false
	})
	assert.Equal(t, 1, n)
}
