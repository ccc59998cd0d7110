package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/brianndofor/trialrev/internal/section"
)

type browseMode int

const (
	browseModeList browseMode = iota
	browseModeDetail
)

type sectionsModel struct {
	all    []section.Section
	list   list.Model
	search textinput.Model
	detail viewport.Model
	mode   browseMode
	query  string
	chosen string
	width  int
	height int
}

type sectionItem struct {
	sec section.Section
}

func (i sectionItem) Title() string {
	return i.sec.Title
}

func (i sectionItem) Description() string {
	first := strings.TrimSpace(i.sec.Body)
	if nl := strings.IndexByte(first, '\n'); nl >= 0 {
		first = first[:nl]
	}
	return fmt.Sprintf("%s  %s", plural(countLines(i.sec.Body), "line"), first)
}

func (i sectionItem) FilterValue() string {
	return strings.ToLower(i.sec.Title + " " + i.sec.Body)
}

func newSectionsModel(sections []section.Section) sectionsModel {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	listModel := list.New([]list.Item{}, delegate, 0, 0)
	listModel.Title = "Protocol Sections"
	listModel.SetShowStatusBar(false)
	listModel.SetShowHelp(false)
	listModel.SetFilteringEnabled(false)

	search := textinput.New()
	search.Placeholder = "type to search titles and text"
	search.Prompt = "Search: "
	search.Focus()

	m := sectionsModel{
		all:    sections,
		list:   listModel,
		search: search,
		detail: viewport.New(0, 0),
		mode:   browseModeList,
	}
	m.applyFilter()
	return m
}

func (m *sectionsModel) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.search.Value()))
	filtered := make([]list.Item, 0, len(m.all))
	for _, sec := range m.all {
		item := sectionItem{sec: sec}
		if query == "" || strings.Contains(item.FilterValue(), query) {
			filtered = append(filtered, item)
		}
	}
	m.list.SetItems(filtered)
	if len(filtered) > 0 {
		m.list.Select(0)
	}
	m.query = m.search.Value()
}

func (m sectionsModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m sectionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := lipgloss.Height(m.headerView())
		footerHeight := lipgloss.Height(m.footerView())
		bodyHeight := msg.Height - headerHeight - footerHeight - 2
		if bodyHeight < 4 {
			bodyHeight = 4
		}
		m.list.SetSize(msg.Width, bodyHeight)
		m.detail.Width = msg.Width
		m.detail.Height = bodyHeight
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		}
		if m.mode == browseModeDetail {
			switch msg.String() {
			case "esc", "backspace":
				m.mode = browseModeList
				return m, nil
			case "enter", "p":
				if selected, ok := m.list.SelectedItem().(sectionItem); ok {
					m.chosen = selected.sec.Title
				}
				return m, tea.Quit
			case "q":
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
		if msg.String() == "esc" {
			return m, tea.Quit
		}
	}

	if m.mode == browseModeList {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		if m.search.Value() != m.query {
			m.applyFilter()
		}
		var listCmd tea.Cmd
		m.list, listCmd = m.list.Update(msg)
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
			selected, ok := m.list.SelectedItem().(sectionItem)
			if !ok {
				return m, nil
			}
			m.detail.SetContent(lipgloss.NewStyle().Width(max(m.width-2, 20)).Render(strings.TrimSpace(selected.sec.Body)))
			m.detail.GotoTop()
			m.mode = browseModeDetail
		}
		return m, tea.Batch(cmd, listCmd)
	}

	return m, nil
}

func (m sectionsModel) View() string {
	header := m.headerView()
	footer := m.footerView()
	if m.mode == browseModeDetail {
		return lipgloss.JoinVertical(lipgloss.Left, header, m.detail.View(), footer)
	}
	content := m.list.View()
	if len(m.list.Items()) == 0 {
		content = "No sections match your search."
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, m.search.View(), content, footer)
}

func (m sectionsModel) headerView() string {
	style := lipgloss.NewStyle().Bold(true)
	if m.mode == browseModeDetail {
		if selected, ok := m.list.SelectedItem().(sectionItem); ok {
			return style.Render(selected.sec.Title)
		}
	}
	return style.Render(fmt.Sprintf("Protocol Sections (%d)", len(m.all)))
}

func (m sectionsModel) footerView() string {
	if m.mode == browseModeDetail {
		return "↑/↓ to scroll • Enter to print and exit • ESC to go back • q to quit"
	}
	return "Type to search • ↑/↓ to move • Enter to read • ESC to quit"
}

// runSectionsTUI returns the title chosen for printing, or "" when the user
// quit without choosing.
func runSectionsTUI(sections []section.Section) (string, error) {
	model := newSectionsModel(sections)
	program := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := program.Run()
	if err != nil {
		return "", err
	}
	final, ok := finalModel.(sectionsModel)
	if !ok {
		return "", fmt.Errorf("unexpected TUI model")
	}
	return final.chosen, nil
}
