// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// midasctl - Midas Controller Client
//
// A CLI tool for reading, writing and monitoring Midas ink-delivery
// controllers over a serial line or a WebSocket bridge.

package main

import (
	"os"

	"github.com/Thermoquad/midasctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
