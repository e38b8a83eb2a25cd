package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/gastrodon/pkg/frame"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// FrameModel - Interactive result browsing
// =============================================================================

// FrameModel is the bubbletea model for paging through a result frame.
// Enter selects the current row and quits.
type FrameModel struct {
	Title    string
	Header   []string
	Rows     [][]string
	Cursor   int
	Selected int
	Height   int
	Offset   int
	Detail   bool
}

// NewFrameModel creates a browser over f.
func NewFrameModel(title string, f *frame.Frame) FrameModel {
	return FrameModel{
		Title:    title,
		Header:   f.Header(),
		Rows:     f.Strings(),
		Selected: -1,
		Height:   15,
	}
}

func (m FrameModel) Init() tea.Cmd {
	return nil
}

func (m FrameModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "pgdown", " ":
			m.Cursor = min(m.Cursor+m.Height, max(len(m.Rows)-1, 0))
			m.Offset = max(min(m.Offset+m.Height, len(m.Rows)-m.Height), 0)
		case "pgup":
			m.Cursor = max(m.Cursor-m.Height, 0)
			m.Offset = max(m.Offset-m.Height, 0)
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			m.Cursor = max(len(m.Rows)-1, 0)
			m.Offset = max(len(m.Rows)-m.Height, 0)
		case "tab":
			m.Detail = !m.Detail
		case "enter":
			if len(m.Rows) == 0 {
				return m, nil
			}
			m.Selected = m.Cursor
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m FrameModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  pgup/pgdn page  tab detail  ⏎ select  q quit"))
	b.WriteString("\n\n")

	if len(m.Rows) == 0 {
		b.WriteString(listDimStyle.Render("  no results"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Rows))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, append([]string{cursor}, m.Rows[i]...))
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(append([]string{""}, m.Header...)...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n")

	if m.Detail {
		b.WriteString("\n")
		b.WriteString(m.detailView())
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))

	return b.String()
}

// detailView lists every column of the current row, untruncated.
func (m FrameModel) detailView() string {
	var b strings.Builder
	row := m.Rows[m.Cursor]
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	for i, name := range m.Header {
		b.WriteString(keyStyle.Render(name))
		b.WriteString(" ")
		b.WriteString(StyleValue.Render(row[i]))
		b.WriteString("\n")
	}
	return b.String()
}

// SelectedRow returns the row chosen with enter, if any.
func (m FrameModel) SelectedRow() (map[string]string, bool) {
	if m.Selected < 0 || m.Selected >= len(m.Rows) {
		return nil, false
	}
	out := make(map[string]string, len(m.Header))
	for i, name := range m.Header {
		out[name] = m.Rows[m.Selected][i]
	}
	return out, true
}
