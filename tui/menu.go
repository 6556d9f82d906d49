package tui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

type choice int

const (
	choiceCustom choice = iota + 1
	choiceStandard
	choiceExit
)

type choiceMsg struct {
	choice choice
}

type menuItem struct {
	title  string
	choice choice
}

func (i menuItem) Title() string {
	return i.title
}
func (i menuItem) Description() string { return "" }
func (i menuItem) FilterValue() string {
	return i.title
}

func menuItems() []menuItem {
	return []menuItem{
		{title: "1. Start Custom Simulation", choice: choiceCustom},
		{title: "2. Start Standard Simulation (60 seconds)", choice: choiceStandard},
		{title: "3. Exit Program", choice: choiceExit},
	}
}

type menu struct {
	list  list.Model
	items []menuItem
}

func newMenu(items []menuItem) menu {
	listItems := make([]list.Item, len(items))
	for i := range len(items) {
		listItems[i] = items[i]
	}

	l := list.New(listItems, newMenuItemDelegate(), menuWidth, len(items)*2+1)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowPagination(false)
	l.DisableQuitKeybindings()

	return menu{
		list:  l,
		items: items,
	}
}

const menuWidth = 62

func (m menu) Update(msg tea.Msg) (menu, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(min(msg.Width, menuWidth))
	case tea.KeyMsg:
		switch keys := msg.String(); keys {
		case "enter":
			if item, ok := m.list.SelectedItem().(menuItem); ok {
				return m, choose(item.choice)
			}
		case "1", "2", "3":
			i := int(keys[0] - '1')
			if i < len(m.items) {
				m.list.Select(i)
				return m, choose(m.items[i].choice)
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m menu) View() string {
	return m.list.View()
}

func choose(c choice) tea.Cmd {
	return func() tea.Msg {
		return choiceMsg{choice: c}
	}
}

func newMenuItemDelegate() list.DefaultDelegate {
	delegate := list.NewDefaultDelegate()
	delegate.UpdateFunc = func(m1 tea.Msg, m2 *list.Model) tea.Cmd {
		return nil
	}
	delegate.ShowDescription = false
	delegate.SetSpacing(1)
	return delegate
}
