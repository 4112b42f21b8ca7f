package cli

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/quillribbon/pkg/pipeline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listErrorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// browseCommand creates the browse command for exploring the scene tree.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [archive.zip]",
		Short: "Explore the scene tree of an archive interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.inspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			m := NewSceneBrowserModel(filepath.Base(args[0]), s)
			p := tea.NewProgram(m, tea.WithContext(cmd.Context()), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}

// =============================================================================
// SceneBrowserModel - Interactive scene tree browser
// =============================================================================

// SceneBrowserModel is the bubbletea model for browsing the node tree of a
// summary. Enter toggles the drawing details of the selected node.
type SceneBrowserModel struct {
	Title    string
	Nodes    []pipeline.NodeInfo
	Drawings map[string][]pipeline.DrawingInfo // keyed by node path
	Cursor   int
	Expanded bool
	Height   int
	Offset   int
}

// NewSceneBrowserModel creates a browser for s.
func NewSceneBrowserModel(title string, s *pipeline.Summary) SceneBrowserModel {
	m := SceneBrowserModel{
		Title:    title,
		Nodes:    s.Nodes,
		Drawings: make(map[string][]pipeline.DrawingInfo),
		Height:   15,
	}
	for _, d := range s.Drawings {
		m.Drawings[d.Node] = append(m.Drawings[d.Node], d)
	}
	return m
}

func (m SceneBrowserModel) Init() tea.Cmd {
	return nil
}

func (m SceneBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Nodes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", " ":
			m.Expanded = !m.Expanded
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 10
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m SceneBrowserModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ drawings  q quit"))
	b.WriteString("\n\n")

	if len(m.Nodes) == 0 {
		b.WriteString(listDimStyle.Render("  (empty scene)"))
		return b.String()
	}

	end := m.Offset + m.Height
	if end > len(m.Nodes) {
		end = len(m.Nodes)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		n := m.Nodes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		name := strings.Repeat("  ", n.Depth) + leafName(n.Path)
		drawings := "-"
		if n.Drawings > 0 {
			drawings = strconv.Itoa(n.Drawings)
		}
		rows = append(rows, []string{cursor, name, n.Type, drawings})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Node", "Type", "Drawings").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Nodes) {
				return lipgloss.NewStyle()
			}
			if idx == m.Cursor {
				return listSelectedStyle
			}
			if m.Nodes[idx].Drawings == 0 {
				return listDimStyle
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Nodes))))

	if m.Expanded {
		b.WriteString("\n\n")
		b.WriteString(m.drawingDetails())
	}
	return b.String()
}

// drawingDetails lists the drawings of the selected node.
func (m SceneBrowserModel) drawingDetails() string {
	node := m.Nodes[m.Cursor]
	drawings := m.Drawings[node.Path]
	if len(drawings) == 0 {
		return listDimStyle.Render("  no drawings")
	}
	var b strings.Builder
	for _, d := range drawings {
		line := fmt.Sprintf("  drawing %d @ %s  %d strokes, %d vertices", d.Index, d.Offset, d.Strokes, d.Vertices)
		if d.Error != "" {
			b.WriteString(listErrorStyle.Render(fmt.Sprintf("  drawing %d @ %s  %s %s", d.Index, d.Offset, iconError, d.Error)))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// leafName returns the last element of a scene path.
func leafName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
