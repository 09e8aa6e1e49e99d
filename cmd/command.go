// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/LeeDigitalWorks/zapobj/pkg/logger"
	"github.com/LeeDigitalWorks/zapobj/pkg/types"
	"github.com/LeeDigitalWorks/zapobj/pkg/utils"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "zapobj",
	Short: "zapobj - a local object store",
	Long: `zapobj stores immutable, content-addressed objects in a fanout
directory tree on a local filesystem. Objects are grouped by object type
(commits, fs, blocks) and, for layout versions above zero, by store.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initialize,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&utils.ConfigurationFileDirectory, "config_dir", ".", "Directory for configuration files")
	pf.String("data_dir", "/var/lib/zapobj", "Top-level data directory")
	pf.String("object_type", types.ObjectTypeBlocks, "Object type to operate on (commits, fs, blocks)")
	pf.String("log_level", "warn", "Log level (debug, info, warn, error, fatal)")
	viper.BindPFlags(pf)

	viper.SetDefault("durable", true)
	viper.SetDefault("read_fallback", string(types.ReadFallbackNone))
	viper.SetDefault("sweep_interval", 10*time.Minute)
	viper.SetDefault("sweep_grace_period", time.Hour)
	viper.SetDefault("debug_port", 8065)
}

// initialize loads the config file and applies the log level before any
// subcommand runs.
func initialize(cmd *cobra.Command, args []string) error {
	utils.LoadConfiguration("zapobj", false)
	return logger.SetLevelString(NewFlagLoader(cmd).String("log_level"))
}

// exitError ends the process with a status code without printing an error.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}

	sentry.CaptureException(err)
	fmt.Fprintln(os.Stderr, "Error:", err)
	return 1
}
