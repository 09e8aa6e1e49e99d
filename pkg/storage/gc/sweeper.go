// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package gc removes temporary files abandoned by interrupted object
// writes.
package gc

import (
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/LeeDigitalWorks/zapobj/pkg/debug"
	"github.com/LeeDigitalWorks/zapobj/pkg/logger"
	"github.com/LeeDigitalWorks/zapobj/pkg/storage/backend"
	"github.com/LeeDigitalWorks/zapobj/pkg/utils"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	sweepFilesRemoved = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zapobj",
		Subsystem: "gc",
		Name:      "temp_files_removed_total",
		Help:      "Total number of stale temporary files removed",
	})

	sweepBytesReclaimed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zapobj",
		Subsystem: "gc",
		Name:      "bytes_reclaimed_total",
		Help:      "Total bytes reclaimed by removing stale temporary files",
	})

	sweepRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zapobj",
		Subsystem: "gc",
		Name:      "runs_total",
		Help:      "Total number of sweeper runs",
	})
)

func init() {
	debug.Registry().MustRegister(
		sweepFilesRemoved,
		sweepBytesReclaimed,
		sweepRunsTotal,
	)
}

// DefaultGracePeriod is how old a temporary file must be before it is
// considered abandoned. Writes in flight are far younger.
const DefaultGracePeriod = time.Hour

const sweepJitter = 0.1

// TempFileScanner is implemented by backends that can leave temporary
// files behind, such as *backend.FS.
type TempFileScanner interface {
	ForeachTempFile(fn func(backend.TempFile) bool)
}

// SweepStats summarizes a sweeper run.
type SweepStats struct {
	Scanned        int
	Removed        int
	Skipped        int // younger than the grace period
	Failed         int
	BytesReclaimed int64
}

// Sweeper periodically deletes stale temporary files from every backend
// of a manager.
type Sweeper struct {
	manager     *backend.Manager
	interval    time.Duration
	gracePeriod time.Duration
	now         func() time.Time

	stopCh    chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// SweeperConfig holds configuration for Sweeper
type SweeperConfig struct {
	Manager     *backend.Manager
	Interval    time.Duration // 0 disables the background loop
	GracePeriod time.Duration // 0 means use DefaultGracePeriod
}

// NewSweeper creates a new temp file sweeper
func NewSweeper(cfg SweeperConfig) *Sweeper {
	gracePeriod := cfg.GracePeriod
	if gracePeriod == 0 {
		gracePeriod = DefaultGracePeriod
	}

	return &Sweeper{
		manager:     cfg.Manager,
		interval:    cfg.Interval,
		gracePeriod: gracePeriod,
		now:         time.Now,
		stopCh:      make(chan struct{}),
	}
}

// Start runs the sweep loop in a goroutine. Only the first call has an
// effect.
func (s *Sweeper) Start() {
	if s.interval <= 0 {
		return
	}
	s.startOnce.Do(s.start)
}

func (s *Sweeper) start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		timer := time.NewTimer(utils.Jitter(s.interval, sweepJitter))
		defer timer.Stop()
		for {
			select {
			case <-timer.C:
				s.Run()
				timer.Reset(utils.Jitter(s.interval, sweepJitter))
			case <-s.stopCh:
				return
			}
		}
	}()
}

// Stop signals the sweep loop to exit and waits for it
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
}

// Run performs a single sweep
func (s *Sweeper) Run() SweepStats {
	return s.RunWithGracePeriod(s.gracePeriod)
}

// RunWithGracePeriod performs a single sweep with a specific grace period.
// A grace period of zero removes every temporary file, including those of
// writes still in flight; use it only on a quiesced store.
func (s *Sweeper) RunWithGracePeriod(gracePeriod time.Duration) SweepStats {
	sweepRunsTotal.Inc()
	start := s.now()
	cutoff := start.Add(-gracePeriod)

	var stats SweepStats
	for _, objectType := range s.manager.List() {
		b, ok := s.manager.Get(objectType)
		if !ok {
			continue
		}
		scanner, ok := b.(TempFileScanner)
		if !ok {
			continue
		}
		scanner.ForeachTempFile(func(tf backend.TempFile) bool {
			if s.stopping() {
				return false
			}
			stats.Scanned++
			if tf.ModTime.After(cutoff) {
				stats.Skipped++
				return true
			}
			if err := os.Remove(tf.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				stats.Failed++
				logger.Warn().Err(err).Str("path", tf.Path).Msg("gc: failed to remove temp file")
				return true
			}
			stats.Removed++
			stats.BytesReclaimed += tf.Size
			return true
		})
	}

	sweepFilesRemoved.Add(float64(stats.Removed))
	sweepBytesReclaimed.Add(float64(stats.BytesReclaimed))

	if stats.Removed > 0 || stats.Failed > 0 {
		logger.Info().
			Int("removed", stats.Removed).
			Int("skipped", stats.Skipped).
			Int("failed", stats.Failed).
			Str("reclaimed", humanize.IBytes(uint64(stats.BytesReclaimed))).
			Dur("duration", time.Since(start)).
			Msg("gc: temp file sweep completed")
	}
	return stats
}

func (s *Sweeper) stopping() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}
