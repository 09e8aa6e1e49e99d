// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"net"
	"strconv"
	"strings"
)

// NewListener opens a TCP listener on addr.
func NewListener(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}

// JoinHostPort is net.JoinHostPort that also accepts an already bracketed
// IPv6 host.
func JoinHostPort(host string, port int) string {
	portStr := strconv.Itoa(port)
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		return host + ":" + portStr
	}
	return net.JoinHostPort(host, portStr)
}
