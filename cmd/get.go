// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/midasctl/pkg/midas"
)

var getRaw bool

var getCmd = &cobra.Command{
	Use:   "get <name>...",
	Short: "Read parameters from the controller",
	Long: `Read one or more parameters and print their values.

Bit masks are decoded into flag names, enumerations into their meaning and the
last error code into its description. Use --raw for the reply text only.

Examples:
  midasctl get tank_temperature --port /dev/ttyUSB0
  midasctl get status_word alarms --node 3 --port /dev/ttyUSB0`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().BoolVar(&getRaw, "raw", false, "Print reply text without decoding")
}

// lookupParams resolves names before any connection is opened.
func lookupParams(names []string) ([]*midas.Parameter, error) {
	params := make([]*midas.Parameter, 0, len(names))
	for _, name := range names {
		p, ok := midas.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q (see 'midasctl params')", midas.ErrUnknownParam, name)
		}
		params = append(params, p)
	}
	return params, nil
}

func runGet(cmd *cobra.Command, args []string) error {
	params, err := lookupParams(args)
	if err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	failed := 0
	for _, p := range params {
		value, err := s.device.Read(s.node, p)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s: %s\n", p.Name, errorStyle.Render(err.Error()))
			continue
		}
		if !getRaw {
			value = midas.FormatValue(p, value)
		}
		fmt.Fprintf(out, "%s = %s\n", p.Name, value)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d reads failed", failed, len(params))
	}
	return nil
}
