package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/loomproc/loom/pkg/pipeline"
	"github.com/loomproc/loom/pkg/processor"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// inspectCommand creates the inspect command. It processes the archive and
// opens an interactive browser over the resulting deployment.
func (c *CLI) inspectCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "inspect [archive]",
		Short: "Browse beans and interceptors in an interactive TUI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer runner.Cache.Close()

			result, err := runner.Execute(cmd.Context(), pipeline.Options{IndexPath: args[0]})
			if err != nil {
				return err
			}

			model := NewDeploymentModel(result.Deployment)
			p := tea.NewProgram(model, tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	return cmd
}

// Tabs of the deployment browser.
const (
	tabBeans = iota
	tabInterceptors
)

// DeploymentModel is the bubbletea model for browsing a deployment.
type DeploymentModel struct {
	Beans        []*processor.BeanInfo
	Interceptors []*processor.InterceptorInfo
	Warnings     []string

	Tab    int
	Cursor int
	Offset int
	Height int
}

// NewDeploymentModel creates a browser model over a processed deployment.
func NewDeploymentModel(d *processor.Deployment) DeploymentModel {
	return DeploymentModel{
		Beans:        d.Beans(),
		Interceptors: d.Interceptors(),
		Warnings:     d.Warnings(),
		Height:       15,
	}
}

func (m DeploymentModel) Init() tea.Cmd {
	return nil
}

// rowCount returns the number of rows in the active tab.
func (m DeploymentModel) rowCount() int {
	if m.Tab == tabInterceptors {
		return len(m.Interceptors)
	}
	return len(m.Beans)
}

func (m DeploymentModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "left", "right", "h", "l":
			m.Tab = (m.Tab + 1) % 2
			m.Cursor = 0
			m.Offset = 0
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < m.rowCount()-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 10
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m DeploymentModel) View() string {
	var b strings.Builder

	beansTitle := fmt.Sprintf("Beans (%d)", len(m.Beans))
	interceptorsTitle := fmt.Sprintf("Interceptors (%d)", len(m.Interceptors))
	if m.Tab == tabBeans {
		b.WriteString(StyleTitle.Render(beansTitle) + listDimStyle.Render("  "+interceptorsTitle))
	} else {
		b.WriteString(listDimStyle.Render(beansTitle+"  ") + StyleTitle.Render(interceptorsTitle))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⇥ switch  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > m.rowCount() {
		end = m.rowCount()
	}

	for i := m.Offset; i < end; i++ {
		cursor := "  "
		style := listNormalStyle
		if i == m.Cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}
		b.WriteString(cursor + style.Render(m.rowLabel(i)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.detailView())

	if len(m.Warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(StyleWarning.Render(fmt.Sprintf("%d warnings", len(m.Warnings))))
		b.WriteString("\n")
	}

	return b.String()
}

// rowLabel returns the one-line list entry for row i of the active tab.
func (m DeploymentModel) rowLabel(i int) string {
	if m.Tab == tabInterceptors {
		info := m.Interceptors[i]
		return fmt.Sprintf("%-40s %s", info.TargetClass().Local(), listDimStyle.Render(fmt.Sprintf("priority %d", info.Priority())))
	}
	bean := m.Beans[i]
	return fmt.Sprintf("%-40s %s", bean.TargetClass().Local(), listDimStyle.Render(bean.Kind().String()))
}

// detailView renders the detail pane for the selected entry.
func (m DeploymentModel) detailView() string {
	if m.rowCount() == 0 {
		return listDimStyle.Render("nothing to show")
	}

	var b strings.Builder
	if m.Tab == tabInterceptors {
		info := m.Interceptors[m.Cursor]
		b.WriteString(StyleValue.Render(info.TargetClass().String()) + "\n")
		bindings := make([]string, 0, len(info.BindingNames()))
		for _, name := range info.BindingNames() {
			bindings = append(bindings, name.Local())
		}
		b.WriteString(listDimStyle.Render("bindings: "+strings.Join(bindings, ", ")) + "\n")
		for _, kind := range processor.Kinds {
			methods := info.MethodsOf(kind)
			if len(methods) == 0 {
				continue
			}
			names := make([]string, 0, len(methods))
			for _, method := range methods {
				names = append(names, method.Name)
			}
			b.WriteString(listDimStyle.Render(kind.String()+": "+strings.Join(names, ", ")) + "\n")
		}
		return b.String()
	}

	bean := m.Beans[m.Cursor]
	b.WriteString(StyleValue.Render(bean.TargetClass().String()) + "\n")
	b.WriteString(listDimStyle.Render("scope: "+bean.Scope().Local()) + "\n")
	types := make([]string, 0, len(bean.Types()))
	for _, t := range bean.Types() {
		types = append(types, t.Local())
	}
	b.WriteString(listDimStyle.Render("types: "+strings.Join(types, ", ")) + "\n")
	if points := bean.InjectionPoints(); len(points) > 0 {
		required := make([]string, 0, len(points))
		for _, ip := range points {
			required = append(required, ip.RequiredType.Name.Local())
		}
		b.WriteString(listDimStyle.Render("injects: "+strings.Join(required, ", ")) + "\n")
	}
	return b.String()
}
