// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/LeeDigitalWorks/zapobj/pkg/storage/backend"
	"github.com/LeeDigitalWorks/zapobj/pkg/types"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls STORE VERSION",
	Short: "List the object IDs of a store",
	Args:  cobra.ExactArgs(2),
	RunE:  runLs,
}

var duCmd = &cobra.Command{
	Use:   "du STORE VERSION",
	Short: "Report the object count and total size of a store",
	Args:  cobra.ExactArgs(2),
	RunE:  runDu,
}

var rmstoreCmd = &cobra.Command{
	Use:   "rmstore STORE",
	Short: "Remove every per-store object of STORE",
	Args:  cobra.ExactArgs(1),
	RunE:  runRmstore,
}

func init() {
	rootCmd.AddCommand(lsCmd, duCmd, rmstoreCmd)

	lsCmd.Flags().Int("limit", 0, "Stop after this many objects (0 lists all)")
}

func runLs(cmd *cobra.Command, args []string) error {
	version, err := parseVersion(args[1])
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	b, closeFn, err := openBackend(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	out := cmd.OutOrStdout()
	n := 0
	for id := range backend.Objects(b, args[0], version) {
		fmt.Fprintln(out, id)
		n++
		if limit > 0 && n >= limit {
			break
		}
	}
	return nil
}

type objectSizer interface {
	Size(storeID string, version types.Version, id types.ObjectID) (int64, error)
}

func runDu(cmd *cobra.Command, args []string) error {
	storeID := args[0]
	version, err := parseVersion(args[1])
	if err != nil {
		return err
	}

	b, closeFn, err := openBackend(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	var count, total int64
	for id := range backend.Objects(b, storeID, version) {
		var size int64
		if s, ok := b.(objectSizer); ok {
			size, err = s.Size(storeID, version, id)
		} else {
			var data []byte
			data, err = b.Read(storeID, version, id)
			size = int64(len(data))
		}
		if err != nil {
			// removed since it was listed
			if types.IsNotFound(err) {
				continue
			}
			return err
		}
		count++
		total += size
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s objects, %s\n",
		humanize.Comma(count), humanize.IBytes(uint64(total)))
	return nil
}

func runRmstore(cmd *cobra.Command, args []string) error {
	b, closeFn, err := openBackend(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	return b.RemoveStore(args[0])
}
