package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gerunddev/duomark/internal/diff"
	"github.com/gerunddev/duomark/internal/doctree"
	"github.com/gerunddev/duomark/internal/state"
	"github.com/gerunddev/duomark/internal/styles"
	dsync "github.com/gerunddev/duomark/internal/sync"
)

// maxHistory is the number of sync attempts kept in the event table
const maxHistory = 8

// Pair is the editor pair the dashboard watches
type Pair interface {
	Snapshot() state.Snapshot
	Flush() bool
	// Normalize rewrites the text from the current tree
	Normalize()
}

// EventMsg carries a finished sync attempt and the document after it
type EventMsg struct {
	Event    dsync.Event
	Snapshot state.Snapshot
	Tree     *doctree.Node
	Markdown string
	At       time.Time
}

// PreviewMsg is sent when the rendered preview is ready
type PreviewMsg struct {
	Content string
}

// TickMsg triggers a periodic refresh of the sync state
type TickMsg time.Time

type historyRow struct {
	at       time.Time
	dir      state.Direction
	kind     state.Outcome
	duration time.Duration
	err      error
}

// WatchModel is the Bubble Tea model for the watch dashboard
type WatchModel struct {
	pair    Pair
	path    string
	style   string
	spinner spinner.Model
	preview viewport.Model
	events  table.Model

	snapshot    state.Snapshot
	tree        *doctree.Node
	markdown    string
	rendered    string
	showOutline bool
	history     []historyRow
	width       int
	height      int
}

// NewWatchModel creates a dashboard for pair editing path. style is a
// glamour style name used for the preview.
func NewWatchModel(pair Pair, path, style string, tree *doctree.Node, markdown string) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SpinnerStyle

	vp := viewport.New(80, 16)
	vp.Style = styles.PaneStyle

	columns := []table.Column{
		{Title: "Time", Width: 10},
		{Title: "Direction", Width: 14},
		{Title: "Result", Width: 14},
		{Title: "Took", Width: 10},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(maxHistory+1),
		table.WithWidth(56),
	)
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(styles.Border)).
		BorderBottom(true).
		Bold(false)
	ts.Selected = lipgloss.NewStyle()
	t.SetStyles(ts)

	m := WatchModel{
		pair:     pair,
		path:     path,
		style:    style,
		spinner:  s,
		preview:  vp,
		events:   t,
		snapshot: pair.Snapshot(),
		tree:     tree,
		markdown: markdown,
	}
	m.setPreview()
	return m
}

func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.render(), tick())
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.preview.Width = msg.Width - 2
		m.preview.Height = max(msg.Height-maxHistory-12, 5)
		return m, m.render()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "t":
			m.showOutline = !m.showOutline
			m.setPreview()
			return m, nil
		case "f":
			m.pair.Flush()
			m.snapshot = m.pair.Snapshot()
			return m, nil
		case "n":
			m.pair.Normalize()
			m.snapshot = m.pair.Snapshot()
			return m, nil
		case "up", "k", "down", "j", "pgup", "pgdown":
			m.preview, cmd = m.preview.Update(msg)
			return m, cmd
		}

	case EventMsg:
		m.snapshot = msg.Snapshot
		if msg.Tree != nil {
			m.tree = msg.Tree
			m.markdown = msg.Markdown
		}
		m.record(msg)
		return m, m.render()

	case PreviewMsg:
		m.rendered = msg.Content
		m.setPreview()
		return m, nil

	case TickMsg:
		m.snapshot = m.pair.Snapshot()
		return m, tick()

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m WatchModel) View() string {
	var b strings.Builder

	// Title
	b.WriteString(styles.TitleStyle.Render("duomark"))
	b.WriteString(" ")
	b.WriteString(styles.DimStyle.Render(filepath.Base(m.path)))
	b.WriteString("\n\n")

	// Preview pane
	label := "Preview"
	if m.showOutline {
		label = "Document Tree"
	}
	b.WriteString(styles.LabelStyle.Render(label))
	b.WriteString("\n")
	b.WriteString(m.preview.View())
	b.WriteString("\n")

	// Sync state
	snap := m.snapshot
	b.WriteString(styles.LabelStyle.Render("Sync"))
	if !snap.Idle() {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  linear → tree: %s  %s\n", styles.Phase(snap.ToTree.Phase), counters(snap.ToTree)))
	b.WriteString(fmt.Sprintf("  tree → linear: %s  %s\n", styles.Phase(snap.ToLinear.Phase), counters(snap.ToLinear)))
	if snap.TextHash != "" {
		b.WriteString(fmt.Sprintf("  in sync at:    %s\n", styles.ValueStyle.Render(shortHash(snap.TextHash))))
	}
	if last := lastError(m.history); last != nil {
		b.WriteString("  " + styles.ErrorStyle.Render("✗ "+last.Error()) + "\n")
	}
	b.WriteString("\n")

	// Event history
	b.WriteString(styles.LabelStyle.Render("Recent Syncs"))
	b.WriteString("\n")
	if len(m.history) == 0 {
		b.WriteString(styles.HelpStyle.Render("  Waiting for edits"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.events.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	// Help
	b.WriteString(styles.HelpStyle.Render("↑/k ↓/j scroll • t tree/preview • f flush • n normalize • q quit"))
	b.WriteString("\n")

	return b.String()
}

// record adds an attempt to the history table, newest first
func (m *WatchModel) record(msg EventMsg) {
	at := msg.At
	if at.IsZero() {
		at = time.Now()
	}
	row := historyRow{
		at:       at,
		dir:      msg.Event.Direction,
		kind:     msg.Event.Kind,
		duration: msg.Event.Duration,
		err:      msg.Event.Err,
	}
	m.history = append([]historyRow{row}, m.history...)
	if len(m.history) > maxHistory {
		m.history = m.history[:maxHistory]
	}

	rows := make([]table.Row, 0, len(m.history))
	for _, h := range m.history {
		rows = append(rows, table.Row{
			h.at.Format(time.TimeOnly),
			h.dir.String(),
			string(h.kind),
			h.duration.Round(time.Microsecond).String(),
		})
	}
	m.events.SetRows(rows)
}

func (m *WatchModel) setPreview() {
	switch {
	case m.showOutline:
		m.preview.SetContent(doctree.Outline(m.tree))
	case m.rendered != "":
		m.preview.SetContent(m.rendered)
	default:
		m.preview.SetContent(m.markdown)
	}
}

// render returns a command that renders the current markdown with glamour
func (m WatchModel) render() tea.Cmd {
	markdown, style, width := m.markdown, m.style, m.preview.Width-4
	return func() tea.Msg {
		return PreviewMsg{Content: diff.RenderMarkdown(markdown, style, width)}
	}
}

// tick returns a command that sends a TickMsg after a short delay
func tick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func counters(d state.DirectionState) string {
	parts := []string{
		styles.SuccessStyle.Render(fmt.Sprintf("%d applied", d.Applied)),
		styles.InfoStyle.Render(fmt.Sprintf("%d unchanged", d.Unchanged)),
		styles.DimStyle.Render(fmt.Sprintf("%d skipped", d.Skipped)),
	}
	failed := fmt.Sprintf("%d failed", d.Failed)
	if d.Failed > 0 {
		parts = append(parts, styles.ErrorStyle.Render(failed))
	} else {
		parts = append(parts, styles.DimStyle.Render(failed))
	}
	return strings.Join(parts, styles.DimStyle.Render(" · "))
}

func lastError(history []historyRow) error {
	if len(history) == 0 {
		return nil
	}
	return history[0].err
}

func shortHash(h string) string {
	h = strings.TrimPrefix(h, "sha256:")
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
