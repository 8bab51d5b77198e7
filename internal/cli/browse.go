package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/relata/relata/pkg/store"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// newBrowseCmd creates the browse command, an interactive snapshot picker.
func newBrowseCmd() *cobra.Command {
	var storeURI string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse snapshots interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, closeStore, err := openStore(ctx, storeURI)
			if err != nil {
				return err
			}
			defer closeStore(ctx)

			infos, err := s.List(ctx)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				printInfo("Store is empty")
				return nil
			}

			model := newSnapshotListModel(infos)
			final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
			if err != nil {
				return fmt.Errorf("run browser: %w", err)
			}

			m, ok := final.(snapshotListModel)
			if !ok || m.Selected == nil {
				return nil
			}

			p, err := s.Get(ctx, m.Selected.ID.String())
			if err != nil {
				return err
			}
			printStats(p)
			return nil
		},
	}

	cmd.Flags().StringVar(&storeURI, "store", "", "store URI (file:/path, redis://..., mongodb://..., memory:)")

	return cmd
}

// =============================================================================
// snapshotListModel - Interactive snapshot selection
// =============================================================================

// snapshotListModel is the bubbletea model for interactive snapshot selection.
type snapshotListModel struct {
	Infos    []store.Info
	Cursor   int
	Selected *store.Info
	Height   int
	Offset   int
}

func newSnapshotListModel(infos []store.Info) snapshotListModel {
	return snapshotListModel{
		Infos:  infos,
		Height: 15,
	}
}

func (m snapshotListModel) Init() tea.Cmd {
	return nil
}

func (m snapshotListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Infos)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			m.Selected = &m.Infos[m.Cursor]
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

func (m snapshotListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Snapshot"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Infos) {
		end = len(m.Infos)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		info := m.Infos[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		rows = append(rows, []string{
			cursor,
			info.ID.String(),
			info.Codec,
			fmt.Sprintf("%d", info.Entities),
			fmt.Sprintf("%d", info.Edges),
			formatRelativeTime(info.CreatedAt),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Snapshot", "Codec", "Entities", "Edges", "Created").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			if col >= 2 {
				return listDimStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Infos))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func formatRelativeTime(t time.Time) string {
	diff := time.Since(t)

	switch {
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
