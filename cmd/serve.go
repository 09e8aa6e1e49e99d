// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LeeDigitalWorks/zapobj/pkg/debug"
	"github.com/LeeDigitalWorks/zapobj/pkg/logger"
	"github.com/LeeDigitalWorks/zapobj/pkg/storage/gc"
	"github.com/LeeDigitalWorks/zapobj/pkg/utils"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove stale temporary files left by interrupted writes",
	Args:  cobra.NoArgs,
	RunE:  runSweep,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the temp file sweeper and the debug HTTP server",
	Long: `serve opens a backend for every configured object type, sweeps stale
temporary files on an interval and serves /metrics, /health, /ready and
/debug/pprof on the debug port until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(sweepCmd, serveCmd)

	sweepCmd.Flags().Duration("grace_period", gc.DefaultGracePeriod, "Only remove temp files older than this")

	f := serveCmd.Flags()
	f.String("ip", "", "IP address the debug server binds to (all interfaces when empty)")
	f.Int("debug_port", 8065, "Debug HTTP port (metrics, pprof)")
	f.Duration("sweep_interval", 10*time.Minute, "Interval between temp file sweeps (0 disables)")
	f.Duration("sweep_grace_period", gc.DefaultGracePeriod, "Only remove temp files older than this")
}

func runSweep(cmd *cobra.Command, args []string) error {
	opts, err := loadStorageOpts(cmd)
	if err != nil {
		return err
	}
	mgr, err := openManager(opts)
	if err != nil {
		return err
	}
	defer mgr.Close()

	gracePeriod := NewFlagLoader(cmd).DurationKey("grace_period", "sweep_grace_period")
	stats := gc.NewSweeper(gc.SweeperConfig{Manager: mgr}).RunWithGracePeriod(gracePeriod)

	fmt.Fprintf(cmd.OutOrStdout(), "removed %d of %d temp files (%d failed), reclaimed %s\n",
		stats.Removed, stats.Scanned, stats.Failed, humanize.IBytes(uint64(stats.BytesReclaimed)))
	if stats.Failed > 0 {
		return fmt.Errorf("failed to remove %d temp files", stats.Failed)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	opts, err := loadStorageOpts(cmd)
	if err != nil {
		return err
	}
	mgr, err := openManager(opts)
	if err != nil {
		return err
	}
	defer mgr.Close()

	f := NewFlagLoader(cmd)
	sweeper := gc.NewSweeper(gc.SweeperConfig{
		Manager:     mgr,
		Interval:    f.Duration("sweep_interval"),
		GracePeriod: f.Duration("sweep_grace_period"),
	})

	ip, _ := cmd.Flags().GetString("ip")
	debugServer, err := startHTTPServer(debug.GetMux(), ip, f.Int("debug_port"))
	if err != nil {
		return err
	}

	sweeper.Start()
	debug.SetReady()
	logger.Info().
		Str("data_dir", opts.DataDir).
		Strs("object_types", mgr.List()).
		Msg("zapobj serving")

	waitForShutdown()

	debug.SetNotReady()
	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return debugServer.Shutdown(ctx)
}

func startHTTPServer(handler http.Handler, ip string, port int) (*http.Server, error) {
	addr := utils.JoinHostPort(ip, port)
	listener, err := utils.NewListener(addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	httpServer := &http.Server{Handler: handler}
	go func() {
		logger.Info().Str("http_addr", listener.Addr().String()).Msg("Starting debug HTTP server")
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("failed to serve debug HTTP")
		}
	}()
	return httpServer, nil
}

func waitForShutdown() {
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM)
	<-stopChan
	signal.Stop(stopChan)
}
