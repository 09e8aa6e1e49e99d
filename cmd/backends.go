// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io/fs"
	"strconv"

	"github.com/LeeDigitalWorks/zapobj/pkg/storage/backend"
	"github.com/LeeDigitalWorks/zapobj/pkg/types"
	"github.com/LeeDigitalWorks/zapobj/pkg/utils"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// StorageOpts holds configuration shared by every command that opens
// backends.
type StorageOpts struct {
	DataDir      string
	ObjectTypes  []string
	ReadFallback types.ReadFallback
	DirPerm      fs.FileMode
	FilePerm     fs.FileMode
}

// loadStorageOpts resolves storage settings from flags, env and the config
// file. An explicit --object_type narrows the object types to that one.
func loadStorageOpts(cmd *cobra.Command) (StorageOpts, error) {
	f := NewFlagLoader(cmd)

	dataDir := f.String("data_dir")
	if dataDir == "" {
		return StorageOpts{}, fmt.Errorf("data_dir is required")
	}

	opts := StorageOpts{
		DataDir:      utils.ResolvePath(dataDir),
		ReadFallback: types.ReadFallback(f.String("read_fallback")),
	}

	switch opts.ReadFallback {
	case types.ReadFallbackNone, types.ReadFallbackVersion1:
	default:
		return StorageOpts{}, fmt.Errorf("invalid read_fallback %q", opts.ReadFallback)
	}

	objectType := f.String("object_type")
	opts.ObjectTypes = viper.GetStringSlice("object_types")
	if cmd.Flags().Changed("object_type") || len(opts.ObjectTypes) == 0 {
		opts.ObjectTypes = []string{objectType}
	}

	var err error
	if opts.DirPerm, err = parsePerm(viper.GetString("dir_perm"), backend.DefaultDirPerm); err != nil {
		return StorageOpts{}, err
	}
	if opts.FilePerm, err = parsePerm(viper.GetString("file_perm"), backend.DefaultFilePerm); err != nil {
		return StorageOpts{}, err
	}
	return opts, nil
}

// parsePerm accepts "0755", "0o755" or the decimal value a YAML parser
// produces for an unquoted 0755.
func parsePerm(s string, def fs.FileMode) (fs.FileMode, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil || v == 0 || v > 0o777 {
		return 0, fmt.Errorf("invalid permission %q", s)
	}
	return fs.FileMode(v), nil
}

// BackendConfig returns the filesystem backend config of objectType.
func (o StorageOpts) BackendConfig(objectType string) types.BackendConfig {
	return types.BackendConfig{
		Type:         types.BackendTypeFS,
		Dir:          o.DataDir,
		ObjectType:   objectType,
		ReadFallback: o.ReadFallback,
		DirPerm:      o.DirPerm,
		FilePerm:     o.FilePerm,
	}
}

// openManager opens a backend for every configured object type.
func openManager(opts StorageOpts) (*backend.Manager, error) {
	mgr := backend.NewManager()
	for _, objectType := range opts.ObjectTypes {
		if err := mgr.Add(opts.BackendConfig(objectType)); err != nil {
			mgr.Close()
			return nil, err
		}
	}
	return mgr, nil
}

// openBackend opens the backend selected by --object_type. The returned
// close function releases it.
func openBackend(cmd *cobra.Command) (types.ObjectBackend, func(), error) {
	opts, err := loadStorageOpts(cmd)
	if err != nil {
		return nil, nil, err
	}
	objectType := NewFlagLoader(cmd).String("object_type")
	b, err := backend.New(opts.BackendConfig(objectType))
	if err != nil {
		return nil, nil, err
	}
	return b, func() { b.Close() }, nil
}

// parseVersion parses a layout version argument.
func parseVersion(s string) (types.Version, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q", s)
	}
	return types.Version(v), nil
}

// parseObjectArgs parses STORE VERSION ID.
func parseObjectArgs(args []string) (string, types.Version, types.ObjectID, error) {
	version, err := parseVersion(args[1])
	if err != nil {
		return "", 0, "", err
	}
	id, err := types.ParseObjectID(args[2])
	if err != nil {
		return "", 0, "", err
	}
	return args[0], version, id, nil
}
