// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/midasctl/pkg/midas"
)

// Focus states
const (
	focusTable = iota
	focusInput
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// Event log entry
type errorLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for information
}

// monitorModel is the Bubble Tea model for the monitor TUI
type monitorModel struct {
	session  *session
	params   []*midas.Parameter
	interval time.Duration

	// Poll state
	readErrs map[string]error
	lastPoll time.Time
	polling  bool
	paused   bool
	started  time.Time

	// Event log
	errorLog      []errorLogEntry
	maxLogEntries int

	// Controls
	table        table.Model
	input        textinput.Model
	focusedField int

	// UI state
	width    int
	height   int
	quitting bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type pollTickMsg time.Time

type pollResultMsg struct {
	errs map[string]error
	at   time.Time
}

type writeResultMsg struct {
	param *midas.Parameter
	value string
	ok    bool
	err   error
}

type logEventMsg struct {
	timestamp time.Time
	message   string
	isError   bool
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func newMonitorModel(s *session, params []*midas.Parameter, interval time.Duration) monitorModel {
	ti := textinput.New()
	ti.Placeholder = "tank_temperature=45"
	ti.Prompt = "set> "
	ti.CharLimit = 64
	ti.Width = 40

	t := table.New(
		table.WithColumns(monitorColumns(80)),
		table.WithFocused(true),
		table.WithHeight(len(params)+1),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("12"))
	t.SetStyles(styles)

	m := monitorModel{
		session:       s,
		params:        params,
		interval:      interval,
		readErrs:      make(map[string]error),
		started:       time.Now(),
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: 100,
		table:         t,
		input:         ti,
		focusedField:  focusTable,
		polling:       true,
		width:         80,
		height:        24,
	}
	m.updateRows()
	return m
}

func monitorColumns(width int) []table.Column {
	valueWidth := (width - 28 - 10) / 2
	if valueWidth < 16 {
		valueWidth = 16
	}
	return []table.Column{
		{Title: "Parameter", Width: 28},
		{Title: "Actual", Width: valueWidth},
		{Title: "Demand", Width: valueWidth},
		{Title: "Age", Width: 6},
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m monitorModel) Init() tea.Cmd {
	return m.pollCmd()
}

// pollCmd reads every monitored parameter. Device calls block, so this
// runs as a command outside the update loop.
func (m monitorModel) pollCmd() tea.Cmd {
	d, node, params := m.session.device, m.session.node, m.params
	return func() tea.Msg {
		errs := make(map[string]error)
		for _, p := range params {
			if !p.Access.CanGet() {
				continue
			}
			if _, err := d.Read(node, p); err != nil {
				errs[p.Name] = err
			}
			if !d.IsOpen() {
				break
			}
		}
		return pollResultMsg{errs: errs, at: time.Now()}
	}
}

func (m monitorModel) writeCmd(p *midas.Parameter, value string) tea.Cmd {
	d, node := m.session.device, m.session.node
	return func() tea.Msg {
		ok, err := d.Write(node, p, value)
		return writeResultMsg{param: p, value: value, ok: ok, err: err}
	}
}

func pollTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return pollTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(monitorColumns(m.width - 4))
		m.updateRows()

	case pollTickMsg:
		if m.paused || m.polling {
			return m, nil
		}
		m.polling = true
		return m, m.pollCmd()

	case pollResultMsg:
		m.polling = false
		m.lastPoll = msg.at
		for name, err := range msg.errs {
			if m.readErrs[name] == nil {
				m.addLogEntry(fmt.Sprintf("%s: %v", name, err), true)
			}
		}
		m.readErrs = msg.errs
		m.updateRows()
		if !m.session.device.IsOpen() {
			m.addLogEntry("Connection closed", true)
			return m, nil
		}
		if m.paused {
			return m, nil
		}
		return m, pollTickCmd(m.interval)

	case writeResultMsg:
		switch {
		case msg.ok && msg.err != nil:
			m.addLogEntry(fmt.Sprintf("%s=%s confirmed, readback failed: %v", msg.param.Name, msg.value, msg.err), true)
		case msg.ok:
			m.addLogEntry(fmt.Sprintf("%s=%s confirmed", msg.param.Name, msg.value), false)
		case msg.err != nil:
			m.addLogEntry(fmt.Sprintf("%s=%s failed: %v", msg.param.Name, msg.value, msg.err), true)
		default:
			m.addLogEntry(fmt.Sprintf("%s=%s not confirmed", msg.param.Name, msg.value), true)
		}
		m.updateRows()

	case logEventMsg:
		m.errorLog = append(m.errorLog, errorLogEntry(msg))
		m.trimLog()
	}

	return m, nil
}

func (m monitorModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab", "shift+tab":
		m.toggleFocus()
		return m, nil
	}

	if m.focusedField == focusInput {
		switch msg.String() {
		case "esc":
			m.input.SetValue("")
			m.toggleFocus()
			return m, nil
		case "enter":
			return m.submitAssignment()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "p":
		m.paused = !m.paused
		if m.paused {
			m.addLogEntry("Polling paused", false)
			return m, nil
		}
		m.addLogEntry("Polling resumed", false)
		if !m.polling {
			m.polling = true
			return m, m.pollCmd()
		}
		return m, nil

	case "r":
		if !m.polling {
			m.polling = true
			return m, m.pollCmd()
		}
		return m, nil

	case "enter":
		if row := m.table.SelectedRow(); row != nil {
			m.input.SetValue(row[0] + "=")
			m.input.CursorEnd()
			m.toggleFocus()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *monitorModel) toggleFocus() {
	if m.focusedField == focusTable {
		m.focusedField = focusInput
		m.table.Blur()
		m.input.Focus()
		return
	}
	m.focusedField = focusTable
	m.input.Blur()
	m.table.Focus()
}

func (m monitorModel) submitAssignment() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	p, value, err := parseAssignment(text)
	if err != nil {
		m.addLogEntry(err.Error(), true)
		return m, nil
	}

	m.input.SetValue("")
	m.addLogEntry(fmt.Sprintf("Writing %s=%s", p.Name, value), false)
	return m, m.writeCmd(p, value)
}

// parseAssignment parses "name=value" and checks the value before anything
// is sent.
func parseAssignment(text string) (*midas.Parameter, string, error) {
	name, value, found := strings.Cut(text, "=")
	name, value = strings.TrimSpace(name), strings.TrimSpace(value)
	if !found || name == "" {
		return nil, "", errors.New("expected name=value")
	}

	p, ok := midas.Lookup(name)
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", midas.ErrUnknownParam, name)
	}
	if !p.Access.CanSet() {
		return nil, "", fmt.Errorf("%w: %s is read-only", midas.ErrAccess, p.Name)
	}
	if err := p.Domain.Validate(value); err != nil {
		return nil, "", fmt.Errorf("%s: %w", p.Name, err)
	}
	return p, value, nil
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	// Header
	helpText := "q=quit Tab=switch r=poll p=pause"
	s.WriteString(titleStyle.Render("MIDAS MONITOR"))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | node %s | %s", m.session.connInfo, m.session.node, helpText)))
	s.WriteString("\n")

	status := valueStyle.Render(fmt.Sprintf("every %v", m.interval))
	if m.paused {
		status = warningStyle.Render("PAUSED")
	}
	if !m.session.device.IsOpen() {
		status = errorStyle.Render("DISCONNECTED")
	}
	s.WriteString(fmt.Sprintf(" %s %s  %s %s\n\n",
		labelStyle.Render("Polling:"), status,
		labelStyle.Render("Session:"), valueStyle.Render(formatUptime(uint64(time.Since(m.started).Milliseconds())))))

	// Parameter table
	tableStyle := boxStyle
	if m.focusedField == focusTable {
		tableStyle = focusedBoxStyle
	}
	s.WriteString(tableStyle.Render(m.table.View()))
	s.WriteString("\n")

	// Setter
	inputStyle := boxStyle.Width(m.width - 4)
	if m.focusedField == focusInput {
		inputStyle = focusedBoxStyle.Width(m.width - 4)
	}
	s.WriteString(inputStyle.Render(m.input.View()))
	s.WriteString("\n")

	s.WriteString(m.renderStatisticsBar())
	s.WriteString("\n")
	s.WriteString(m.renderEventLog())

	return s.String()
}

//////////////////////////////////////////////////////////////
// View Helpers
//////////////////////////////////////////////////////////////

func (m monitorModel) renderStatisticsBar() string {
	snap := m.session.stats.Snapshot()

	var errorPercent float64
	if snap.TotalExchanges > 0 {
		errorPercent = float64(snap.Errors()) * 100.0 / float64(snap.TotalExchanges)
	}

	content := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s",
		labelStyle.Render("Exchanges:"), valueStyle.Render(fmt.Sprintf("%d", snap.TotalExchanges)),
		labelStyle.Render("Errors:"), func() string {
			if errorPercent > 0 {
				return errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", snap.Errors(), errorPercent))
			}
			return valueStyle.Render("0")
		}(),
		labelStyle.Render("Rate:"), valueStyle.Render(fmt.Sprintf("%.1f cmd/s", snap.ExchangeRate)),
		labelStyle.Render("RTT:"), valueStyle.Render(snap.AverageRTT().Round(time.Millisecond).String()),
	)

	return boxStyle.Width(m.width - 4).Render(content)
}

func (m monitorModel) renderEventLog() string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("EVENTS"))
	s.WriteString("\n")

	logHeight := m.height - len(m.params) - 16
	if logHeight < 3 {
		logHeight = 3
	}
	startIdx := len(m.errorLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.errorLog) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.errorLog); i++ {
			entry := m.errorLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			icon := "i"
			style := warningStyle
			if entry.isError {
				icon = "x"
				style = errorStyle
			}
			s.WriteString(fmt.Sprintf("%s %s %s\n",
				headerStyle.Render(timestamp),
				style.Render(icon),
				entry.message))
		}
	}

	return boxStyle.Width(m.width - 4).Render(strings.TrimRight(s.String(), "\n"))
}

//////////////////////////////////////////////////////////////
// Helpers
//////////////////////////////////////////////////////////////

func (m *monitorModel) updateRows() {
	states := m.session.device.States(m.session.node)
	rows := make([]table.Row, 0, len(m.params))

	for _, p := range m.params {
		st := states[p.Name]

		actual := "-"
		switch {
		case m.readErrs[p.Name] != nil:
			actual = "error"
		case !p.Access.CanGet():
			actual = "(set only)"
		case st.HasActual():
			actual = midas.FormatValue(p, st.Actual)
		}

		demand := "-"
		if st.HasDemand() {
			demand = midas.FormatValue(p, st.Demand)
		}

		age := ""
		if st.HasActual() {
			age = time.Since(st.ActualAt).Round(time.Second).String()
		}

		rows = append(rows, table.Row{p.Name, actual, demand, age})
	}
	m.table.SetRows(rows)
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	m.errorLog = append(m.errorLog, errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	m.trimLog()
}

func (m *monitorModel) trimLog() {
	if len(m.errorLog) > m.maxLogEntries {
		m.errorLog = m.errorLog[len(m.errorLog)-m.maxLogEntries:]
	}
}

// formatUptime formats a duration in milliseconds to human-friendly string
func formatUptime(ms uint64) string {
	if ms == 0 {
		return "0 seconds"
	}

	seconds := ms / 1000
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	seconds %= 60
	minutes %= 60
	hours %= 24

	plural := func(n uint64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	parts := []string{}
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}
