package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run workloads repeatedly and show a live dashboard",
	RunE: func(cmd *cobra.Command, _ []string) error {
		applyWorkloadFlags(cmd)
		if err := cfg.Validate(); err != nil {
			return err
		}

		h, err := newHost(context.Background(), cfg, log)
		if err != nil {
			return err
		}
		defer h.close()

		if !term.IsTerminal(int(os.Stdout.Fd())) {
			// no dashboard without a terminal; behave like run
			sum, err := h.runBatch(context.Background(), h.workloadOptions())
			if err != nil {
				return err
			}
			printSummary(sum)
			return nil
		}

		p := tea.NewProgram(newWatchModel(h, watchInterval), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

func init() {
	addWorkloadFlags(watchCmd)
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 2*time.Second, "Delay between workload batches")
	rootCmd.AddCommand(watchCmd)
}

type watchModel struct {
	err      error
	host     *host
	last     *Summary
	spinner  spinner.Model
	interval time.Duration
	batches  int
	running  bool
	paused   bool
}

type batchDoneMsg struct {
	err error
	sum Summary
}

type tickMsg time.Time

func newWatchModel(h *host, interval time.Duration) *watchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	return &watchModel{host: h, spinner: s, interval: interval}
}

func (m *watchModel) Init() tea.Cmd {
	m.running = true
	return tea.Batch(m.spinner.Tick, m.runBatch)
}

func (m *watchModel) runBatch() tea.Msg {
	sum, err := m.host.runBatch(context.Background(), m.host.workloadOptions())
	return batchDoneMsg{sum: sum, err: err}
}

func (m *watchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "p":
			m.paused = !m.paused
			if !m.paused && !m.running {
				m.running = true
				return m, m.runBatch
			}
		case "r":
			if !m.running {
				m.running = true
				return m, m.runBatch
			}
		}

	case batchDoneMsg:
		m.running = false
		m.batches++
		m.err = msg.err
		if msg.err == nil {
			m.last = &msg.sum
		}
		return m, m.tick()

	case tickMsg:
		if m.paused || m.running {
			return m, nil
		}
		m.running = true
		return m, m.runBatch

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *watchModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Layout Host"))
	b.WriteString(" ")
	b.WriteString(m.host.cfg.Engine.Kind)
	b.WriteString(" engine\n\n")

	status := "idle"
	switch {
	case m.running:
		status = m.spinner.View() + " running"
	case m.paused:
		status = "paused"
	}
	row(&b, "status", status)
	row(&b, "batches", fmt.Sprint(m.batches))
	row(&b, "pending deferred", fmt.Sprint(m.host.d.Pending()))

	if m.last != nil {
		var pages, explicit, abandoned, swept int
		for _, rep := range m.last.Reports {
			pages += rep.Pages
			explicit += rep.ExplicitPages
			abandoned += rep.AbandonedPages
			swept += rep.After.Pages + rep.After.BreakRecords
		}
		b.WriteString("\n")
		row(&b, "contexts", fmt.Sprint(len(m.last.Reports)))
		row(&b, "pages", fmt.Sprint(pages))
		row(&b, "closed explicitly", fmt.Sprint(explicit))
		row(&b, "abandoned", fmt.Sprint(abandoned))
		row(&b, "deferred executed", fmt.Sprint(m.last.DeferredExecuted))
		row(&b, "deferred dropped", fmt.Sprint(m.last.DeferredDropped))
		row(&b, "left for sweep", fmt.Sprint(swept))
		row(&b, "elapsed", m.last.Elapsed.Round(time.Microsecond).String())
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("r run now • p pause • q quit"))
	return b.String()
}

func row(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-18s", label)))
	b.WriteString(valueStyle.Render(value))
	b.WriteString("\n")
}
