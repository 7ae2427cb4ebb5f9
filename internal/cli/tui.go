package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/flowmap/pkg/snapshot"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// VersionListModel - Interactive version selection
// =============================================================================

// VersionListModel is the bubbletea model for interactive version selection.
type VersionListModel struct {
	Versions []snapshot.Summary
	Cursor   int
	Selected *snapshot.Summary
	Height   int
	Offset   int

	now func() time.Time
}

// NewVersionListModel creates a new version list model.
func NewVersionListModel(versions []snapshot.Summary) VersionListModel {
	return VersionListModel{
		Versions: versions,
		Height:   15,
		now:      time.Now,
	}
}

func (m VersionListModel) Init() tea.Cmd {
	return nil
}

func (m VersionListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Versions)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Versions) == 0 {
				return m, tea.Quit
			}
			v := m.Versions[m.Cursor]
			m.Selected = &v
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m VersionListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Version"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	if len(m.Versions) == 0 {
		b.WriteString(listDimStyle.Render("  no saved versions"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Versions))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		v := m.Versions[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			v.Name,
			strconv.Itoa(v.NodeCount),
			strconv.Itoa(v.EdgeCount),
			formatRelativeTime(v.CreatedAt, m.clock()),
			shortID(v.ID),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Name", "Systems", "Connections", "Saved", "ID").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				if col == 5 {
					return lipgloss.NewStyle().Foreground(colorGray).Bold(true)
				}
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col == 4 || col == 5 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Versions))))

	return b.String()
}

func (m VersionListModel) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}

// =============================================================================
// Helpers
// =============================================================================

func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}

// shortID abbreviates a version UUID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
