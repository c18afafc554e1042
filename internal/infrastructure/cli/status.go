package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/specsync/pkg/domain/coverage"
	"github.com/felixgeelhaar/specsync/pkg/domain/spec"
	"github.com/spf13/cobra"
)

var statusInteractive bool

// Styles
var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	PaddingLeft(1).
	PaddingRight(1)

var statusDone = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
var statusWIP = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show each spec with its issue and progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		docs, err := loadSpecs(services)
		if err != nil {
			return err
		}

		report := services.Coverage.Build(cmd.Context(), docs, 0)
		m := newStatusModel(docs, report)

		if statusInteractive {
			if os.Getenv("SPECS_SKIP_TUI") == "true" {
				return nil
			}
			p := tea.NewProgram(m, tea.WithOutput(cmd.OutOrStdout()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("status view failed: %w", err)
			}
			return nil
		}

		fmt.Fprint(cmd.OutOrStdout(), m.View())
		return nil
	},
}

// specProgress is one row of the status table.
type specProgress struct {
	SpecID  string
	Title   string
	Issue   int
	Covered int
	Total   int
	Note    string
	Source  string
}

// summarize folds the coverage report into one row per spec, in spec order.
func summarize(docs []*spec.Document, report *coverage.Report) []specProgress {
	byID := make(map[string]*specProgress, len(docs))
	rows := make([]specProgress, len(docs))
	for i, d := range docs {
		rows[i] = specProgress{SpecID: d.ID, Title: d.DisplayTitle(), Source: d.Source}
		byID[d.ID] = &rows[i]
	}

	for _, it := range report.Items {
		row, ok := byID[it.SpecID]
		if !ok {
			continue
		}
		row.Total++
		if it.Status == coverage.StatusCovered {
			row.Covered++
		}
		if it.IssueNumber != 0 {
			row.Issue = it.IssueNumber
		}
		if it.Notes != "" && row.Note == "" {
			row.Note = it.Notes
		}
	}
	return rows
}

type statusModel struct {
	table   table.Model
	rows    []specProgress
	covered int
	total   int
}

func newStatusModel(docs []*spec.Document, report *coverage.Report) statusModel {
	rows := summarize(docs, report)

	columns := []table.Column{
		{Title: "Spec", Width: 20},
		{Title: "Title", Width: 30},
		{Title: "Issue", Width: 7},
		{Title: "Features", Width: 9},
		{Title: "Note", Width: 18},
	}

	tableRows := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		issue := "-"
		if r.Issue != 0 {
			issue = fmt.Sprintf("#%d", r.Issue)
		}
		tableRows = append(tableRows, table.Row{
			r.SpecID,
			r.Title,
			issue,
			fmt.Sprintf("%d/%d", r.Covered, r.Total),
			r.Note,
		})
	}

	height := len(tableRows) + 1
	if height > 20 {
		height = 20
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229"))
	t.SetStyles(s)

	return statusModel{
		table:   t,
		rows:    rows,
		covered: report.Summary.CoveredFeatures,
		total:   report.Summary.TotalFeatures,
	}
}

func (m statusModel) Init() tea.Cmd { return nil }

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m statusModel) View() string {
	if len(m.rows) == 0 {
		return "No specs found.\n"
	}

	header := headerStyle.Render(fmt.Sprintf("%d specs", len(m.rows)))

	style := statusWIP
	if m.total > 0 && m.covered == m.total {
		style = statusDone
	}
	progress := style.Render(fmt.Sprintf("Checked off: %d/%d features", m.covered, m.total))

	return baseStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			m.table.View(),
			progress,
		),
	) + "\n"
}

func init() {
	statusCmd.Flags().BoolVarP(&statusInteractive, "interactive", "i", false, "Browse the table interactively")
	RootCmd.AddCommand(statusCmd)
}
