package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"vulture/internal/core"
	"vulture/internal/core/types"
)

var tabNames = []string{"Home", "Countries", "Settings"}

func renderHeader(activeTab int, snap core.Snapshot, width int) string {
	logo := logoStyle.Render("VULTURE VPN")
	pill := renderPill(snap)

	var tabs []string
	for i, name := range tabNames {
		if i == activeTab {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	tabBar := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	// First row: logo + pill right-aligned.
	gap := width - lipgloss.Width(logo) - lipgloss.Width(pill)
	if gap < 1 {
		gap = 1
	}
	topRow := logo + strings.Repeat(" ", gap) + pill

	sep := lipgloss.NewStyle().
		Foreground(colorBorder).
		Render(strings.Repeat("─", max(width, 0)))

	return lipgloss.JoinVertical(lipgloss.Left, topRow, tabBar, sep)
}

func renderPill(snap core.Snapshot) string {
	switch snap.Pending {
	case types.OpConnect:
		return pendingPillStyle.Render(" CONNECTING ")
	case types.OpDisconnect:
		return pendingPillStyle.Render(" DISCONNECTING ")
	case types.OpReselect:
		return pendingPillStyle.Render(" SWITCHING ")
	}
	if snap.State == types.Connected {
		return connectedPillStyle.Render(" CONNECTED ")
	}
	return disconnectedPillStyle.Render(" DISCONNECTED ")
}

func renderFooter(helpText string, width int) string {
	sep := lipgloss.NewStyle().
		Foreground(colorBorder).
		Render(strings.Repeat("─", max(width, 0)))
	return lipgloss.JoinVertical(lipgloss.Left, sep, helpBarStyle.Render(helpText))
}

func renderHelpBar(showFull bool) string {
	if showFull {
		return renderFullHelp()
	}
	return renderShortHelp()
}

func renderShortHelp() string {
	var parts []string
	for _, b := range keys.ShortHelp() {
		if !b.Enabled() {
			continue
		}
		parts = append(parts, helpKeyStyle.Render(b.Help().Key)+" "+helpDescStyle.Render(b.Help().Desc))
	}
	return strings.Join(parts, helpSepStyle.Render(" | "))
}

func renderFullHelp() string {
	var lines []string
	for _, group := range keys.FullHelp() {
		var parts []string
		for _, b := range group {
			if !b.Enabled() {
				continue
			}
			parts = append(parts, helpKeyStyle.Render(b.Help().Key)+" "+helpDescStyle.Render(b.Help().Desc))
		}
		lines = append(lines, strings.Join(parts, helpSepStyle.Render("  ")))
	}
	return strings.Join(lines, "\n")
}
