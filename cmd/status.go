// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/midasctl/pkg/midas"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show controller status, alarms and last error",
	Long: `Read the status word, active alarms, last error and identity of one
controller and print them decoded.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var clearAlarmsCmd = &cobra.Command{
	Use:   "clear-alarms",
	Short: "Reset all active alarms",
	Long: `Write 0 to the alarm byte and print the alarms still active afterwards.
Alarms whose cause persists are raised again by the controller.`,
	Args: cobra.NoArgs,
	RunE: runClearAlarms,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(clearAlarmsCmd)
}

type statusLine struct {
	label string
	read  func(midas.NodeID) (string, error)
}

func flagList(read func(midas.NodeID) ([]string, error)) func(midas.NodeID) (string, error) {
	return func(node midas.NodeID) (string, error) {
		names, err := read(node)
		if err != nil {
			return "", err
		}
		if len(names) == 0 {
			return "none", nil
		}
		return strings.Join(names, ", "), nil
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	d := s.device
	lines := []statusLine{
		{"Firmware", d.System.FirmwareVersion},
		{"Serial number", d.System.SerialNumber},
		{"System type", d.System.SystemType},
		{"Status", flagList(func(n midas.NodeID) ([]string, error) {
			raw, err := d.Status.StatusWord(n)
			if err != nil {
				return nil, err
			}
			return midas.ParamStatusWord.Domain.FlagNames(raw)
		})},
		{"Alarms", flagList(d.Status.ActiveAlarms)},
		{"Last error", d.Status.LastError},
		{"Running hours", d.Status.RunningHours},
		{"Fill cycles", d.Status.FillCycles},
	}

	var content strings.Builder
	failed := 0
	for _, line := range lines {
		value, err := line.read(s.node)
		rendered := valueStyle.Render(value)
		if err != nil {
			failed++
			rendered = errorStyle.Render(err.Error())
		}
		content.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render(fmt.Sprintf("%-14s", line.label+":")), rendered))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("MIDAS node %s", s.node)))
	fmt.Fprintln(out, headerStyle.Render(s.connInfo))
	fmt.Fprintln(out, boxStyle.Render(strings.TrimRight(content.String(), "\n")))

	if failed == len(lines) {
		return fmt.Errorf("controller did not answer")
	}
	return nil
}

func runClearAlarms(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ok, err := s.device.Status.ClearAlarms(s.node)
	if !ok {
		if err != nil {
			return err
		}
		return fmt.Errorf("alarm reset: %w", ErrNotConfirmed)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Alarms cleared")
	if err != nil {
		return err
	}

	st := s.device.State(s.node, midas.ParamAlarms)
	if names, ferr := midas.ParamAlarms.Domain.FlagNames(st.Actual); ferr == nil && len(names) > 0 {
		fmt.Fprintf(out, "Still active: %s\n", warningStyle.Render(strings.Join(names, ", ")))
	}
	return nil
}
