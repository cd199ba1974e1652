package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"vulture/internal/core"
	"vulture/internal/core/types"
)

type homeModel struct {
	width  int
	height int
}

func newHomeModel() homeModel {
	return homeModel{}
}

func (hm *homeModel) setSize(w, h int) {
	hm.width = w
	hm.height = h
}

func (hm *homeModel) Update(msg tea.Msg, root *Model) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.Enter) {
		return root.power()
	}
	return nil
}

func (hm *homeModel) View(snap core.Snapshot, s spinner.Model) string {
	connected := snap.State == types.Connected

	status := "Disconnected"
	if connected {
		status = "Connected"
	}
	sections := []string{
		dimStyle.Render("VPN Status Is"),
		titleStyle.Render(status),
		hm.powerButton(connected, snap.Pending, s),
	}

	if connected {
		up, down := FormatSpeeds(snap.Sample)
		speeds := lipgloss.JoinHorizontal(lipgloss.Top,
			hm.speedBlock("↑ Upload", up),
			dimStyle.Render("  │  "),
			hm.speedBlock("↓ Download", down),
		)
		sections = append(sections,
			"",
			speeds,
			"",
			dimStyle.Render("Session Time"),
			clockStyle.Render(FormatClock(snap.Elapsed)),
		)
	}

	highlight := ""
	if connected && snap.Selected != nil {
		highlight = snap.Selected.Name
	}
	sections = append(sections, "", renderMap(highlight))

	if connected && snap.Selected != nil {
		sections = append(sections, hm.locationBox(snap))
	} else if snap.Selected != nil {
		sections = append(sections, dimStyle.Render("Selected: "+snap.Selected.Name))
	} else {
		sections = append(sections, dimStyle.Render("Choose a country in the Countries tab"))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return forceHeight(lipgloss.PlaceHorizontal(hm.width, lipgloss.Center, content), hm.width, hm.height)
}

func (hm *homeModel) powerButton(connected bool, pending types.Operation, s spinner.Model) string {
	if pending != types.OpNone {
		return powerOffStyle.BorderForeground(colorAmber).Render(s.View() + " " + pending.String())
	}
	if connected {
		return powerOnStyle.Render("⏻  ON")
	}
	return powerOffStyle.Render("⏻  OFF")
}

func (hm *homeModel) speedBlock(label, value string) string {
	return lipgloss.JoinVertical(lipgloss.Center,
		dimStyle.Render(label),
		cardValueStyle.Bold(true).Render(value),
	)
}

func (hm *homeModel) locationBox(snap core.Snapshot) string {
	e := snap.Selected
	rows := lipgloss.JoinVertical(lipgloss.Left,
		hm.row("Location", e.Name),
		hm.row("IP address", e.Address),
		hm.row("Flag", e.FlagURL),
	)
	return cardStyle.Render(rows)
}

func (hm *homeModel) row(label, value string) string {
	return cardLabelStyle.Render(label+":") + " " + cardValueStyle.Render(value)
}

// FormatClock renders elapsed seconds as HH:MM:SS.
func FormatClock(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}

// FormatKbps renders a rate, or "--" when there is nothing to show.
func FormatKbps(kbps float64) string {
	switch {
	case kbps <= 0:
		return "--"
	case kbps < 10:
		return fmt.Sprintf("%.1f Kbps", kbps)
	default:
		return fmt.Sprintf("%.0f Kbps", kbps)
	}
}

// FormatSpeeds renders upload and download of s. A nil sample shows "--".
func FormatSpeeds(s *types.Sample) (up, down string) {
	if s == nil {
		return "--", "--"
	}
	return FormatKbps(s.UploadKbps), FormatKbps(s.DownloadKbps)
}
