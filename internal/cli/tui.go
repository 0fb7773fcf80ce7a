package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/safemeridian/chaincfg/pkg/dag"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// PackageListModel is the bubbletea model for browsing a resolved
// dependency graph. Packages are listed in sorted order; selecting one
// quits the program and leaves the node in Selected.
type PackageListModel struct {
	graph    *dag.Graph
	ids      []string
	Cursor   int
	Offset   int
	Height   int
	Selected *dag.Node
}

// NewPackageListModel creates a package list over the given graph.
func NewPackageListModel(g *dag.Graph) PackageListModel {
	return PackageListModel{
		graph:  g,
		ids:    g.SortedIDs(),
		Height: 15,
	}
}

func (m PackageListModel) Init() tea.Cmd {
	return nil
}

func (m PackageListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.ids)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if n, ok := m.graph.Node(m.ids[m.Cursor]); ok {
				m.Selected = n
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m PackageListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Resolved Packages"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.ids) {
		end = len(m.ids)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		n, ok := m.graph.Node(m.ids[i])
		if !ok {
			continue
		}

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		version := metaString(n.Meta, dag.MetaVersion)
		if version == "" {
			version = "—"
		}
		license := metaString(n.Meta, dag.MetaLicense)
		if license == "" {
			license = "—"
		}

		rows = append(rows, []string{
			cursor,
			n.ID,
			version,
			fmt.Sprintf("%d", n.Depth),
			fmt.Sprintf("%d", m.graph.OutDegree(n.ID)),
			license,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Package", "Version", "Depth", "Deps", "License").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}

			idx := m.Offset + row
			base := lipgloss.NewStyle()
			if idx == m.Cursor {
				return base.Foreground(colorCyan).Bold(true)
			}
			if col >= 3 {
				return base.Foreground(colorDim)
			}
			return base.Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.ids))))

	return b.String()
}
