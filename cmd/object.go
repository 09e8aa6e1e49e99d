// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

var putCmd = &cobra.Command{
	Use:   "put STORE VERSION ID [FILE]",
	Short: "Store an object, reading FILE or stdin",
	Args:  cobra.RangeArgs(3, 4),
	RunE:  runPut,
}

var getCmd = &cobra.Command{
	Use:   "get STORE VERSION ID",
	Short: "Print the contents of an object",
	Args:  cobra.ExactArgs(3),
	RunE:  runGet,
}

var existsCmd = &cobra.Command{
	Use:   "exists STORE VERSION ID",
	Short: "Exit with status 0 if the object exists and 1 otherwise",
	Args:  cobra.ExactArgs(3),
	RunE:  runExists,
}

var rmCmd = &cobra.Command{
	Use:   "rm STORE VERSION ID",
	Short: "Delete an object; deleting a missing object succeeds",
	Args:  cobra.ExactArgs(3),
	RunE:  runRm,
}

func init() {
	rootCmd.AddCommand(putCmd, getCmd, existsCmd, rmCmd)

	putCmd.Flags().Bool("durable", true, "Flush the object and its directory before returning")
	getCmd.Flags().StringP("output", "o", "", "Write the object to this file instead of stdout")
}

func runPut(cmd *cobra.Command, args []string) error {
	storeID, version, id, err := parseObjectArgs(args)
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if len(args) == 4 && args[3] != "-" {
		f, err := os.Open(args[3])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}

	b, closeFn, err := openBackend(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	return b.Write(storeID, version, id, data, NewFlagLoader(cmd).Bool("durable"))
}

func runGet(cmd *cobra.Command, args []string) error {
	storeID, version, id, err := parseObjectArgs(args)
	if err != nil {
		return err
	}

	b, closeFn, err := openBackend(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	data, err := b.Read(storeID, version, id)
	if err != nil {
		return err
	}

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		return os.WriteFile(output, data, 0o644)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runExists(cmd *cobra.Command, args []string) error {
	storeID, version, id, err := parseObjectArgs(args)
	if err != nil {
		return err
	}

	b, closeFn, err := openBackend(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	if !b.Exists(storeID, version, id) {
		return &exitError{code: 1}
	}
	return nil
}

func runRm(cmd *cobra.Command, args []string) error {
	storeID, version, id, err := parseObjectArgs(args)
	if err != nil {
		return err
	}

	b, closeFn, err := openBackend(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	b.Delete(storeID, version, id)
	return nil
}
