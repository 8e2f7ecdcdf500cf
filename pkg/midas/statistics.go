// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midas

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Statistics tracks exchange outcomes and round trip times. It is safe for
// concurrent use and can be registered directly as an Observer.
type Statistics struct {
	mu sync.Mutex

	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalExchanges    uint64
	Values            uint64
	Confirmed         uint64
	NotConfirmed      uint64
	MalformedCommands uint64
	MissingData       uint64
	BadReplies        uint64
	Timeouts          uint64
	PortErrors        uint64

	// Round trip times of exchanges that got a reply
	TotalRTT time.Duration
	MinRTT   time.Duration
	MaxRTT   time.Duration

	// Rates (calculated)
	ExchangeRate float64 // exchanges/sec
	ErrorRate    float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Observe updates the counters from one exchange
func (s *Statistics) Observe(e Exchange) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TotalExchanges++
	s.LastUpdateTime = time.Now()

	switch e.Outcome {
	case OutcomeValue:
		s.Values++
	case OutcomeConfirmed:
		s.Confirmed++
	case OutcomeNotConfirmed:
		s.NotConfirmed++
	case OutcomeMalformedCommand:
		s.MalformedCommands++
	case OutcomeMissingData:
		s.MissingData++
	case OutcomeBadReply:
		s.BadReplies++
	case OutcomeTransportFailure:
		if errors.Is(e.Err, ErrTimeout) {
			s.Timeouts++
		} else {
			s.PortErrors++
		}
		return
	}

	s.TotalRTT += e.Elapsed
	if s.MinRTT == 0 || e.Elapsed < s.MinRTT {
		s.MinRTT = e.Elapsed
	}
	if e.Elapsed > s.MaxRTT {
		s.MaxRTT = e.Elapsed
	}
}

// Errors returns the number of exchanges that produced no usable result
func (s *Statistics) Errors() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors()
}

// Replies returns the number of exchanges that got a reply frame
func (s *Statistics) Replies() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replies()
}

// AverageRTT returns the mean round trip time of answered exchanges
func (s *Statistics) AverageRTT() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.averageRTT()
}

func (s *Statistics) errors() uint64 {
	return s.MalformedCommands + s.MissingData + s.BadReplies + s.Timeouts + s.PortErrors
}

func (s *Statistics) replies() uint64 {
	return s.TotalExchanges - s.Timeouts - s.PortErrors
}

func (s *Statistics) averageRTT() time.Duration {
	replies := s.replies()
	if replies == 0 {
		return 0
	}
	return s.TotalRTT / time.Duration(replies)
}

// Snapshot returns a copy of the counters with rates calculated
func (s *Statistics) Snapshot() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calculateRates()
	return Statistics{
		StartTime:         s.StartTime,
		LastUpdateTime:    s.LastUpdateTime,
		TotalExchanges:    s.TotalExchanges,
		Values:            s.Values,
		Confirmed:         s.Confirmed,
		NotConfirmed:      s.NotConfirmed,
		MalformedCommands: s.MalformedCommands,
		MissingData:       s.MissingData,
		BadReplies:        s.BadReplies,
		Timeouts:          s.Timeouts,
		PortErrors:        s.PortErrors,
		TotalRTT:          s.TotalRTT,
		MinRTT:            s.MinRTT,
		MaxRTT:            s.MaxRTT,
		ExchangeRate:      s.ExchangeRate,
		ErrorRate:         s.ErrorRate,
	}
}

func (s *Statistics) calculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.ExchangeRate = float64(s.TotalExchanges) / elapsed
		s.ErrorRate = float64(s.errors()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	snap := s.Snapshot()

	percent := func(n uint64) float64 {
		if snap.TotalExchanges == 0 {
			return 0
		}
		return float64(n) * 100.0 / float64(snap.TotalExchanges)
	}

	elapsed := time.Since(snap.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Exchanges: %8d\n", snap.TotalExchanges)
	result += fmt.Sprintf("Values:          %8d (%.1f%%)\n", snap.Values, percent(snap.Values))
	result += fmt.Sprintf("Confirmed Sets:  %8d (%.1f%%)\n", snap.Confirmed, percent(snap.Confirmed))

	if snap.NotConfirmed > 0 {
		result += fmt.Sprintf("Unconfirmed:     %8d (%.1f%%)\n", snap.NotConfirmed, percent(snap.NotConfirmed))
	}
	if snap.MalformedCommands > 0 {
		result += fmt.Sprintf("Bad Commands:    %8d (%.1f%%)\n", snap.MalformedCommands, percent(snap.MalformedCommands))
	}
	if snap.MissingData > 0 {
		result += fmt.Sprintf("Missing Data:    %8d (%.1f%%)\n", snap.MissingData, percent(snap.MissingData))
	}
	if snap.BadReplies > 0 {
		result += fmt.Sprintf("Bad Replies:     %8d (%.1f%%)\n", snap.BadReplies, percent(snap.BadReplies))
	}
	if snap.Timeouts > 0 {
		result += fmt.Sprintf("Timeouts:        %8d (%.1f%%)\n", snap.Timeouts, percent(snap.Timeouts))
	}
	if snap.PortErrors > 0 {
		result += fmt.Sprintf("Port Errors:     %8d (%.1f%%)\n", snap.PortErrors, percent(snap.PortErrors))
	}

	if snap.Replies() > 0 {
		result += fmt.Sprintf("RTT min/avg/max: %v/%v/%v\n",
			snap.MinRTT.Round(time.Millisecond), snap.AverageRTT().Round(time.Millisecond), snap.MaxRTT.Round(time.Millisecond))
	}
	result += fmt.Sprintf("Exchange Rate:   %8.1f cmds/sec\n", snap.ExchangeRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", snap.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = now
	s.LastUpdateTime = now
	s.TotalExchanges = 0
	s.Values = 0
	s.Confirmed = 0
	s.NotConfirmed = 0
	s.MalformedCommands = 0
	s.MissingData = 0
	s.BadReplies = 0
	s.Timeouts = 0
	s.PortErrors = 0
	s.TotalRTT = 0
	s.MinRTT = 0
	s.MaxRTT = 0
	s.ExchangeRate = 0
	s.ErrorRate = 0
}
