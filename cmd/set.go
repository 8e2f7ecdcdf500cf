// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/midasctl/pkg/midas"
)

// ErrNotConfirmed is returned when the controller did not accept a value.
var ErrNotConfirmed = errors.New("not confirmed by controller")

var setCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Write a parameter and read it back",
	Long: `Write a parameter. The value is checked against the parameter's valid range
before anything is sent. Once the controller confirms the write, readable
parameters are read back and the actual value is printed.

Examples:
  midasctl set tank_temperature 45 --port /dev/ttyUSB0
  midasctl set purge 1 --node 2 --port /dev/ttyUSB0`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

func init() {
	rootCmd.AddCommand(setCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
	params, err := lookupParams(args[:1])
	if err != nil {
		return err
	}
	p, value := params[0], args[1]

	if !p.Access.CanSet() {
		return fmt.Errorf("%w: %s is read-only", midas.ErrAccess, p.Name)
	}
	if err := p.Domain.Validate(value); err != nil {
		return fmt.Errorf("%s: %w", p.Name, err)
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	ok, err := s.device.Write(s.node, p, value)
	switch {
	case !ok && err != nil:
		return err
	case !ok:
		return fmt.Errorf("%s=%s: %w", p.Name, value, ErrNotConfirmed)
	case err != nil:
		fmt.Fprintf(out, "%s set to %s\n", p.Name, midas.FormatValue(p, value))
		return err
	}

	fmt.Fprintf(out, "%s set to %s\n", p.Name, midas.FormatValue(p, value))
	if st := s.device.State(s.node, p); st.HasActual() {
		fmt.Fprintf(out, "%s = %s\n", p.Name, midas.FormatValue(p, st.Actual))
	}
	return nil
}
