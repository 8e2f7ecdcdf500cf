// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	monitorInterval time.Duration
	monitorParams   []string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive TUI for watching and tuning a controller",
	Long: `Poll a set of parameters on one controller and show their actual and
demand values in a terminal UI.

Features:
  - Periodic polling with decoded values
  - Inline setter: type name=value and press Enter
  - Exchange statistics
  - Event log of writes and failed commands

Keys:
  Tab    switch between the parameter table and the setter
  Enter  on a table row, start a setter for that parameter
  r      poll now
  p      pause or resume polling
  q      quit

The parameter list and interval default to the monitor section of the config
file.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 0, "Polling interval (default from config, 1s)")
	monitorCmd.Flags().StringSliceVar(&monitorParams, "params", nil, "Parameters to poll (default from config)")
}

// tuiHook forwards log entries to the TUI event log.
type tuiHook struct {
	p *tea.Program
}

func (h *tuiHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.ErrorLevel, logrus.WarnLevel, logrus.InfoLevel}
}

func (h *tuiHook) Fire(entry *logrus.Entry) error {
	msg := entry.Message
	if err, ok := entry.Data[logrus.ErrorKey].(error); ok {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	h.p.Send(logEventMsg{
		timestamp: entry.Time,
		message:   msg,
		isError:   entry.Level <= logrus.WarnLevel,
	})
	return nil
}

func runMonitor(cmd *cobra.Command, args []string) error {
	interval := settings.Monitor.Interval
	if monitorInterval > 0 {
		interval = monitorInterval
	}
	names := settings.Monitor.Parameters
	if len(monitorParams) > 0 {
		names = monitorParams
	}
	params, err := lookupParams(names)
	if err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	m := newMonitorModel(s, params, interval)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))

	// Log output would tear the alternate screen
	logger.SetOutput(io.Discard)
	logger.AddHook(&tuiHook{p: p})

	if _, err := p.Run(); err != nil && cmd.Context().Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
