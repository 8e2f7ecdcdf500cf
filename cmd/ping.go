// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/midasctl/pkg/midas"
)

var (
	pingCount    int
	pingInterval time.Duration
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Measure controller round trip time",
	Long: `Send repeated firmware version queries to one controller and report the
round trip time of each reply.

This is useful for verifying:
  - The serial or WebSocket link is up
  - Baud rate and node address are right
  - The controller answers reliably

Exit codes:
  0 - All pings successful
  1 - One or more pings failed/timed out
  2 - Connection error`,
	Args: cobra.NoArgs,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVarP(&pingCount, "count", "c", 3, "Number of pings to send")
	pingCmd.Flags().DurationVar(&pingInterval, "interval", 100*time.Millisecond, "Delay between pings")
}

func runPing(cmd *cobra.Command, args []string) error {
	if pingCount < 1 {
		return fmt.Errorf("invalid count %d", pingCount)
	}

	s, err := openSession(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer s.Close()

	fmt.Printf("midasctl - Ping\n")
	fmt.Printf("Connection: %s\n", s.connInfo)
	fmt.Printf("Node: %s\n", s.node)
	fmt.Printf("Timeout: %v per ping\n", settings.Serial.Timeout)
	fmt.Printf("Count: %d pings\n\n", pingCount)

	sent := 0
pings:
	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, pingCount)
		sent++

		start := time.Now()
		res, err := s.device.Command(s.node, midas.ParamFirmwareVersion.Code, midas.OpGet, "")
		rtt := time.Since(start)

		if err != nil {
			fmt.Printf("FAILED: %v\n", err)
		} else {
			fmt.Printf("reply from %s, firmware=%s, rtt=%v\n", s.node, res.Payload, rtt.Round(time.Millisecond))
		}

		if i < pingCount {
			select {
			case <-cmd.Context().Done():
				break pings
			case <-time.After(pingInterval):
			}
		}
	}

	snap := s.stats.Snapshot()
	received := snap.Values

	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d pings sent, %d replies received, %.0f%% loss\n",
		sent, received, float64(uint64(sent)-received)/float64(sent)*100)
	if snap.Replies() > 0 {
		fmt.Printf("rtt min/avg/max = %v/%v/%v\n",
			snap.MinRTT.Round(time.Millisecond), snap.AverageRTT().Round(time.Millisecond), snap.MaxRTT.Round(time.Millisecond))
	}

	if received < uint64(sent) {
		s.Close()
		os.Exit(1)
	}
	return nil
}
