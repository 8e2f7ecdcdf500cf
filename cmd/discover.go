// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/midasctl/pkg/midas"
)

var (
	discoverFirst int
	discoverLast  int
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find the controllers sharing a line",
	Long: `Probe node addresses with the system type query and list the controllers
that answer.

Each node gets one query and is skipped when it stays silent for the reply
timeout, so a full scan of fifteen empty addresses takes fifteen timeouts.
Lower --timeout to scan faster.

Examples:
  midasctl discover --port /dev/ttyUSB0
  midasctl discover --port /dev/ttyUSB0 --first 1 --last 4 --timeout 200ms

Exit codes:
  0 - Discovery successful (at least one controller found)
  1 - Discovery failed (no controller answered)
  2 - Connection error`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)
	discoverCmd.Flags().IntVar(&discoverFirst, "first", 1, "First node address to probe")
	discoverCmd.Flags().IntVar(&discoverLast, "last", int(midas.NodeMax), "Last node address to probe")
}

type discoveredNode struct {
	node       midas.NodeID
	systemType string
	firmware   string
}

// probeNode reports whether a controller answered at node. Device level
// errors still prove a controller is present.
func probeNode(d *midas.Device, node midas.NodeID) (discoveredNode, bool) {
	found := discoveredNode{node: node}

	systemType, err := d.Read(node, midas.ParamSystemType)
	if errors.Is(err, midas.ErrTransport) || errors.Is(err, midas.ErrBadReply) {
		return found, false
	}
	found.systemType = systemType

	if fw, err := d.Read(node, midas.ParamFirmwareVersion); err == nil {
		found.firmware = fw
	}
	return found, true
}

func runDiscover(cmd *cobra.Command, args []string) error {
	if discoverFirst < 1 || discoverLast > int(midas.NodeMax) || discoverFirst > discoverLast {
		return fmt.Errorf("%w: probe range %d-%d (valid 1-%d)", midas.ErrInvalidNode, discoverFirst, discoverLast, midas.NodeMax)
	}

	s, err := openSession(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer s.Close()

	fmt.Printf("midasctl - Controller Discovery\n")
	fmt.Printf("Connection: %s\n", s.connInfo)
	fmt.Printf("Nodes: %d-%d\n", discoverFirst, discoverLast)
	fmt.Printf("Timeout: %v per node\n\n", settings.Serial.Timeout)

	var nodes []discoveredNode
scan:
	for n := discoverFirst; n <= discoverLast; n++ {
		select {
		case <-cmd.Context().Done():
			fmt.Printf("\nInterrupted\n")
			break scan
		default:
		}

		node := midas.NodeID(n)
		fmt.Printf("Node %-5s ", node)

		found, ok := probeNode(s.device, node)
		if !ok {
			fmt.Printf("%s\n", headerStyle.Render("no reply"))
			if !s.device.IsOpen() {
				fmt.Fprintf(os.Stderr, "Connection lost\n")
				s.Close()
				os.Exit(2)
			}
			continue
		}

		nodes = append(nodes, found)
		fmt.Printf("%s type=%s firmware=%s\n", valueStyle.Render("FOUND"), found.systemType, found.firmware)
	}

	fmt.Printf("\n--- Discovery summary ---\n")
	fmt.Printf("Controllers found: %d\n", len(nodes))

	if len(nodes) == 0 {
		fmt.Printf("No controllers answered. Check connection, baud rate and network IDs.\n")
		s.Close()
		os.Exit(1)
	}

	return nil
}
