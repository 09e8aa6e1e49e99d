// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LeeDigitalWorks/zapobj/pkg/types"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testStore = "repo1"
	testID    = "ab3f000000000000000000000000000000000001"
	otherID   = "cd00000000000000000000000000000000000002"
)

// resetFlags restores every flag in the tree to its default so that runs
// do not leak state into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

// =============================================================================
// Object commands
// =============================================================================

func TestObjectCommands(t *testing.T) {
	dataDir := t.TempDir()
	common := []string{"--data_dir", dataDir, "--config_dir", t.TempDir()}

	input := filepath.Join(t.TempDir(), "input")
	require.NoError(t, os.WriteFile(input, []byte("hello"), 0o644))

	_, err := run(t, nil, append([]string{"put", testStore, "1", testID, input}, common...)...)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dataDir, "storage", "blocks", testStore, "ab", testID[2:]))

	out, err := run(t, nil, append([]string{"get", testStore, "1", testID}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	output := filepath.Join(t.TempDir(), "output")
	_, err = run(t, nil, append([]string{"get", testStore, "1", testID, "-o", output}, common...)...)
	require.NoError(t, err)
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	_, err = run(t, nil, append([]string{"exists", testStore, "1", testID}, common...)...)
	assert.NoError(t, err)

	_, err = run(t, nil, append([]string{"rm", testStore, "1", testID}, common...)...)
	require.NoError(t, err)

	_, err = run(t, nil, append([]string{"exists", testStore, "1", testID}, common...)...)
	var exitErr *exitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.code)

	_, err = run(t, nil, append([]string{"get", testStore, "1", testID}, common...)...)
	assert.True(t, types.IsNotFound(err))

	// Deleting again is not an error.
	_, err = run(t, nil, append([]string{"rm", testStore, "1", testID}, common...)...)
	assert.NoError(t, err)
}

func TestPutFromStdinLegacy(t *testing.T) {
	dataDir := t.TempDir()
	common := []string{"--data_dir", dataDir, "--config_dir", t.TempDir(), "--object_type", "commits"}

	_, err := run(t, strings.NewReader("legacy"),
		append([]string{"put", "ignored", "0", testID, "--durable=false"}, common...)...)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dataDir, "commits", "ab", testID[2:]))

	out, err := run(t, nil, append([]string{"get", "ignored", "0", testID}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "legacy", out)
}

func TestObjectCommandsRejectBadArgs(t *testing.T) {
	common := []string{"--data_dir", t.TempDir(), "--config_dir", t.TempDir()}

	_, err := run(t, nil, append([]string{"get", testStore, "x", testID}, common...)...)
	assert.ErrorContains(t, err, "invalid version")

	_, err = run(t, nil, append([]string{"get", testStore, "1", "XYZ"}, common...)...)
	assert.ErrorIs(t, err, types.ErrInvalidObjectID)

	_, err = run(t, nil, append([]string{"get", testStore, "1"}, common...)...)
	assert.Error(t, err)
}

// =============================================================================
// Store commands
// =============================================================================

func TestStoreCommands(t *testing.T) {
	dataDir := t.TempDir()
	common := []string{"--data_dir", dataDir, "--config_dir", t.TempDir()}

	_, err := run(t, strings.NewReader("hello"), append([]string{"put", testStore, "1", testID}, common...)...)
	require.NoError(t, err)
	_, err = run(t, strings.NewReader("world!"), append([]string{"put", testStore, "1", otherID}, common...)...)
	require.NoError(t, err)

	out, err := run(t, nil, append([]string{"ls", testStore, "1"}, common...)...)
	require.NoError(t, err)
	lines := strings.Fields(out)
	assert.ElementsMatch(t, []string{testID, otherID}, lines)

	out, err = run(t, nil, append([]string{"ls", testStore, "1", "--limit", "1"}, common...)...)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(out), 1)

	out, err = run(t, nil, append([]string{"du", testStore, "1"}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "2 objects, 11 B\n", out)

	_, err = run(t, nil, append([]string{"rmstore", testStore}, common...)...)
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(dataDir, "storage", "blocks", testStore))

	out, err = run(t, nil, append([]string{"ls", testStore, "1"}, common...)...)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = run(t, nil, append([]string{"rmstore", ".."}, common...)...)
	assert.ErrorIs(t, err, types.ErrInvalidStoreID)
}

// =============================================================================
// Sweep
// =============================================================================

func TestSweepCommand(t *testing.T) {
	dataDir := t.TempDir()
	common := []string{"--data_dir", dataDir, "--config_dir", t.TempDir()}

	_, err := run(t, strings.NewReader("x"), append([]string{"put", testStore, "1", testID}, common...)...)
	require.NoError(t, err)

	tmp := filepath.Join(dataDir, "storage", "blocks", testStore, "ab", testID[2:]+".tmp-abandoned")
	require.NoError(t, os.WriteFile(tmp, []byte("partial"), 0o644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(tmp, old, old))

	out, err := run(t, nil, append([]string{"sweep"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "removed 1 of 1 temp files")
	assert.NoFileExists(t, tmp)

	out, err = run(t, nil, append([]string{"get", testStore, "1", testID}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "x", out)
}

// =============================================================================
// Configuration
// =============================================================================

func TestParsePerm(t *testing.T) {
	tests := []struct {
		in   string
		want fs.FileMode
		ok   bool
	}{
		{"", 0o700, true},
		{"0755", 0o755, true},
		{"0o750", 0o750, true},
		{"493", 0o755, true},
		{"0", 0, false},
		{"01000", 0, false},
		{"rwx", 0, false},
	}
	for _, tt := range tests {
		got, err := parsePerm(tt.in, 0o700)
		if !tt.ok {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestLoadStorageOptsFromConfig(t *testing.T) {
	configDir := t.TempDir()
	dataDir := t.TempDir()
	config := "data_dir: " + dataDir + "\n" +
		"object_types: [commits, fs, blocks]\n" +
		"read_fallback: version1\n" +
		"file_perm: \"0600\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "zapobj.yaml"), []byte(config), 0o644))

	t.Cleanup(func() {
		for _, key := range []string{"object_types", "read_fallback", "file_perm"} {
			viper.Set(key, nil)
		}
		viper.Set("read_fallback", string(types.ReadFallbackNone))
	})

	var opts StorageOpts
	var optsErr error
	probe := &cobra.Command{
		Use: "probe",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, optsErr = loadStorageOpts(cmd)
			return optsErr
		},
	}
	rootCmd.AddCommand(probe)
	t.Cleanup(func() { rootCmd.RemoveCommand(probe) })

	_, err := run(t, nil, "probe", "--config_dir", configDir, "--data_dir", dataDir)
	require.NoError(t, err)

	assert.Equal(t, dataDir, opts.DataDir)
	assert.Equal(t, []string{"commits", "fs", "blocks"}, opts.ObjectTypes)
	assert.Equal(t, types.ReadFallbackVersion1, opts.ReadFallback)
	assert.Equal(t, fs.FileMode(0o600), opts.FilePerm)
	assert.Equal(t, fs.FileMode(0o755), opts.DirPerm)

	mgr, err := openManager(opts)
	require.NoError(t, err)
	defer mgr.Close()
	assert.Equal(t, []string{"blocks", "commits", "fs"}, mgr.List())
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, nil, "version", "--config_dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "zapobj "+Version)
}
