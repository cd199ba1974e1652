package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"vulture/internal/catalog"
	"vulture/internal/core"
	"vulture/internal/core/types"
)

type countriesModel struct {
	table   table.Model
	entries []catalog.ServerEntry
	width   int
	height  int
}

func countryColumns(nameWidth int) []table.Column {
	return []table.Column{
		{Title: " ", Width: 2},
		{Title: "Country", Width: nameWidth},
		{Title: "IP Address", Width: 18},
		{Title: "Profile", Width: 20},
	}
}

func newCountriesModel() countriesModel {
	t := table.New(
		table.WithColumns(countryColumns(20)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		BorderBottom(true).
		Bold(true).
		Foreground(colorBrand)
	s.Selected = s.Selected.
		Foreground(colorFg).
		Background(lipgloss.AdaptiveColor{Light: "#F8E0E0", Dark: "#3E1A1A"}).
		Bold(true)
	t.SetStyles(s)

	return countriesModel{table: t}
}

func (cm *countriesModel) setSize(w, h int) {
	cm.width = w
	cm.height = h
	th := h - 1
	if th < 1 {
		th = 1
	}
	cm.table.SetHeight(th)
	if w > 80 {
		cm.table.SetColumns(countryColumns(w - 52))
	}
}

func (cm *countriesModel) setEntries(entries []catalog.ServerEntry, snap core.Snapshot) {
	cm.entries = entries
	cm.markSelected(snap)
	cm.table.GotoTop()
}

// markSelected refreshes the marker column: ● connected, * selected.
func (cm *countriesModel) markSelected(snap core.Snapshot) {
	selected := ""
	if snap.Selected != nil {
		selected = snap.Selected.Name
	}

	rows := make([]table.Row, len(cm.entries))
	for i, e := range cm.entries {
		mark := ""
		if e.Name == selected {
			mark = "*"
			if snap.State == types.Connected {
				mark = "●"
			}
		}
		rows[i] = table.Row{mark, e.Name, e.Address, e.ConfigID}
	}
	cm.table.SetRows(rows)
}

func (cm *countriesModel) selectedEntry() (catalog.ServerEntry, bool) {
	idx := cm.table.Cursor()
	if idx >= 0 && idx < len(cm.entries) {
		return cm.entries[idx], true
	}
	return catalog.ServerEntry{}, false
}

func (cm *countriesModel) Update(msg tea.Msg, root *Model) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.Enter) {
		if e, ok := cm.selectedEntry(); ok {
			return navigateHome(e.ConfigID)
		}
		return nil
	}

	var cmd tea.Cmd
	cm.table, cmd = cm.table.Update(msg)
	return cmd
}

func (cm *countriesModel) View() string {
	hint := dimStyle.Render("enter to choose a country")
	return forceHeight(hint+"\n"+cm.table.View(), cm.width, cm.height)
}
