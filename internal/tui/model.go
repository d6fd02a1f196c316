package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"media-library/internal/compress"
)

type Model struct {
	title    string
	updates  <-chan compress.Progress
	cancel   func()
	spinner  spinner.Model
	started  time.Time
	width    int
	current  int
	total    int
	skipped  int
	fileName string

	cancelling bool
	quitting   bool
}

type doneMsg struct{}

type progressMsg compress.Progress

// NewModel returns a model reading from updates. cancel is called once when
// the user presses Ctrl-C or q.
func NewModel(title string, updates <-chan compress.Progress, cancel func()) Model {
	return Model{
		title:   title,
		updates: updates,
		cancel:  cancel,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(barStyle)),
		started: time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(listenForUpdates(m.updates), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.current = msg.Current
		m.total = msg.Total
		m.fileName = msg.FileName
		if msg.Skipped {
			m.skipped++
		}
		return m, listenForUpdates(m.updates)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.cancelling {
				m.cancelling = true
				if m.cancel != nil {
					m.cancel()
				}
			}
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	ratio := 0.0
	if m.total > 0 {
		ratio = float64(m.current) / float64(m.total)
		if ratio > 1 {
			ratio = 1
		}
	}

	file := m.fileName
	if file == "" {
		file = "resolving files..."
	}
	elapsed := time.Since(m.started).Round(time.Second)

	lines := []string{
		titleStyle.Render(m.title),
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", m.current, m.total)) + dimStyle.Render(fmt.Sprintf("  skipped:%d", m.skipped)),
		m.spinner.View() + " " + labelStyle.Render(file),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
		barStyle.Render(renderBar(barWidth, ratio)),
	}
	if m.cancelling {
		lines = append(lines, warnStyle.Render("Cancelling, waiting for the current file..."))
	} else {
		lines = append(lines, dimStyle.Render("ctrl+c to cancel"))
	}

	return strings.Join(lines, "\n")
}

func listenForUpdates(updates <-chan compress.Progress) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return progressMsg(update)
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}
