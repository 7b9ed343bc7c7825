package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/demand"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/manual"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/network"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/tables"
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF00FF")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

type promptKeyMap struct {
	Enter key.Binding
	Quit  key.Binding
}

func (k promptKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Quit}
}

func (k promptKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var promptKeys = promptKeyMap{
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "accept (blank line ends)"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "abort"),
	),
}

// promptModel asks for one nominal diameter per segment in traversal
// order. Entries are checked against the segment's material as they are
// typed.
type promptModel struct {
	segs    []network.Segment
	flows   map[string]demand.Flow
	ref     *tables.Tables
	input   textinput.Model
	help    help.Model
	values  []string
	message string
	done    bool
	aborted bool
}

func newPromptModel(n *network.Network, flows map[string]demand.Flow, ref *tables.Tables) promptModel {
	ti := textinput.New()
	ti.Placeholder = "25"
	ti.CharLimit = 16
	ti.Width = 16
	ti.Focus()

	return promptModel{
		segs:  n.Segments(),
		flows: flows,
		ref:   ref,
		input: ti,
		help:  help.New(),
	}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, promptKeys.Quit):
			m.aborted = true
			return m, tea.Quit

		case key.Matches(msg, promptKeys.Enter):
			return m.accept()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) accept() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		m.done = true
		return m, tea.Quit
	}

	seg := m.segs[len(m.values)]
	if _, err := manual.Match(text, seg, m.ref); err != nil {
		m.message = fmt.Sprintf("%q: %v", text, err)
		return m, nil
	}
	m.values = append(m.values, text)
	m.message = ""
	m.input.Reset()
	if len(m.values) == len(m.segs) {
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m promptModel) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Manual diameters"))
	s.WriteString("\n\n")
	for i, v := range m.values {
		fmt.Fprintf(&s, "  %-6s DN %s\n", m.segs[i].ID, v)
	}
	if !m.done && len(m.values) < len(m.segs) {
		seg := m.segs[len(m.values)]
		fmt.Fprintf(&s, "\n%s %s (%.2f m, %s, %.3f L/s)\n",
			promptStyle.Render(fmt.Sprintf("Segment %d of %d:", len(m.values)+1, len(m.segs))),
			seg.ID, seg.Length, seg.Material, m.flows[seg.ID].FlowLS())
		s.WriteString(m.input.View())
		s.WriteString("\n")
	}
	if m.message != "" {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(m.message))
		s.WriteString("\n")
	}
	s.WriteString("\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(promptKeys.ShortHelp())))
	s.WriteString("\n")
	return s.String()
}

// promptDiameters runs the interactive prompt and returns the accepted
// entries.
func promptDiameters(n *network.Network, flows map[string]demand.Flow, ref *tables.Tables) ([]string, error) {
	final, err := tea.NewProgram(newPromptModel(n, flows, ref)).Run()
	if err != nil {
		return nil, fmt.Errorf("running manual entry prompt: %w", err)
	}
	m := final.(promptModel)
	if m.aborted {
		return nil, fmt.Errorf("manual entry aborted")
	}
	return m.values, nil
}
