// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"errors"
	"time"

	"github.com/LeeDigitalWorks/zapobj/pkg/debug"
	"github.com/LeeDigitalWorks/zapobj/pkg/types"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	opRead        = "read"
	opWrite       = "write"
	opExists      = "exists"
	opDelete      = "delete"
	opForeach     = "foreach"
	opRemoveStore = "remove_store"
)

var (
	// ObjectOperations counts backend operations by outcome
	ObjectOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zapobj",
		Subsystem: "backend",
		Name:      "operations_total",
		Help:      "Total number of object backend operations",
	}, []string{"object_type", "op", "result"}) // result: "ok", "not_found", "error"

	// ObjectBytes counts payload bytes moved by read and write
	ObjectBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zapobj",
		Subsystem: "backend",
		Name:      "bytes_total",
		Help:      "Total object payload bytes read or written",
	}, []string{"object_type", "op"})

	// ObjectOperationDuration tracks latency per operation
	ObjectOperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "zapobj",
		Subsystem: "backend",
		Name:      "operation_duration_seconds",
		Help:      "Object backend operation latency",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100us .. ~26s
	}, []string{"object_type", "op"})
)

func init() {
	debug.Registry().MustRegister(
		ObjectOperations,
		ObjectBytes,
		ObjectOperationDuration,
	)
}

func observe(objectType, op string, start time.Time, n int, err error) {
	result := "ok"
	switch {
	case errors.Is(err, types.ErrNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	ObjectOperations.WithLabelValues(objectType, op, result).Inc()
	ObjectOperationDuration.WithLabelValues(objectType, op).Observe(time.Since(start).Seconds())
	if n > 0 {
		ObjectBytes.WithLabelValues(objectType, op).Add(float64(n))
	}
}
