package cli

import "github.com/charmbracelet/bubbles/key"

type panelKeyMap struct {
	History  key.Binding
	Stars    key.Binding
	NextTab  key.Binding
	Collapse key.Binding
	Login    key.Binding
	Refresh  key.Binding
	Up       key.Binding
	Down     key.Binding
	Open     key.Binding
	Star     key.Binding
	Overlay  key.Binding
	Colors   key.Binding
	Export   key.Binding
	Quit     key.Binding
}

func newPanelKeyMap() panelKeyMap {
	return panelKeyMap{
		History:  key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "history")),
		Stars:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "stars")),
		NextTab:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch")),
		Collapse: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "collapse")),
		Login:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "login")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
		Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Star:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "star")),
		Overlay:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "overlay")),
		Colors:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "colors")),
		Export:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// shortHelp lists the bindings shown in the footer for a tab.
func (k panelKeyMap) shortHelp(starsTab bool) []key.Binding {
	if starsTab {
		return []key.Binding{k.History, k.Down, k.Open, k.Star, k.Overlay, k.Colors, k.Refresh, k.Login, k.Quit}
	}
	return []key.Binding{k.Stars, k.Collapse, k.Overlay, k.Colors, k.Export, k.Refresh, k.Login, k.Quit}
}
