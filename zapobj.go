// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/LeeDigitalWorks/zapobj/cmd"

	"github.com/getsentry/sentry-go"
)

func main() {
	// DSN comes from SENTRY_DSN; without one the client is a no-op.
	err := sentry.Init(sentry.ClientOptions{
		SampleRate: 0.1,
		Release:    "zapobj@" + cmd.Version,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "sentry.Init: %v\n", err)
	}

	code := cmd.Execute()

	// Flush buffered events before the program terminates.
	sentry.Flush(2 * time.Second)
	os.Exit(code)
}
