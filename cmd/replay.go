// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/midasctl/internal/capture"
	"github.com/Thermoquad/midasctl/pkg/midas"
)

var (
	replayFrames bool
	replayStats  bool
	replayErrors bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Display a recorded exchange capture",
	Long: `Print the exchanges of a capture written with --record, one line per
command, in the same format the commands log them.

No connection is opened.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVar(&replayFrames, "frames", false, "Also print raw request and reply frames")
	replayCmd.Flags().BoolVar(&replayStats, "stats", true, "Print a statistics summary at the end")
	replayCmd.Flags().BoolVar(&replayErrors, "errors-only", false, "Only print failed exchanges")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := capture.NewReader(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	header := r.Header()
	fmt.Fprintf(out, "midasctl - Capture Replay\n")
	fmt.Fprintf(out, "Connection: %s\n", header.Port)
	fmt.Fprintf(out, "Started: %s\n\n", time.Unix(0, header.Started).Format("2006-01-02 15:04:05"))

	stats := midas.NewStatistics()
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			fmt.Fprintln(out, warningStyle.Render("capture ends with a partial record"))
			break
		}
		if err != nil {
			return err
		}

		e := rec.Exchange()
		stats.Observe(e)

		if replayErrors && !e.Outcome.Failed() {
			continue
		}
		fmt.Fprint(out, midas.FormatExchange(e))
		if replayFrames {
			fmt.Fprintf(out, "    >> %s\n", midas.FormatFrame(e.Request))
			if len(e.Reply) > 0 {
				fmt.Fprintf(out, "    << %s\n", midas.FormatFrame(e.Reply))
			}
		}
	}

	if replayStats {
		fmt.Fprintf(out, "\n%s", replaySummary(stats))
	}
	return nil
}

// replaySummary reports counters only; rates depend on wall clock time and
// mean nothing for a capture.
func replaySummary(s *midas.Statistics) string {
	snap := s.Snapshot()
	result := fmt.Sprintf("Exchanges: %d  Values: %d  Confirmed: %d  Unconfirmed: %d  Errors: %d\n",
		snap.TotalExchanges, snap.Values, snap.Confirmed, snap.NotConfirmed, snap.Errors())
	if snap.Replies() > 0 {
		result += fmt.Sprintf("RTT min/avg/max: %v/%v/%v\n",
			snap.MinRTT.Round(time.Millisecond), snap.AverageRTT().Round(time.Millisecond), snap.MaxRTT.Round(time.Millisecond))
	}
	return result
}
