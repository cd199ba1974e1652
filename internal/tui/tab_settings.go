package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// settingKind distinguishes free-text settings from choice-based settings.
type settingKind int

const (
	settingText   settingKind = iota // Free-text input (numbers).
	settingChoice                    // Cycle through predefined options.
)

// settingDef defines a setting's display metadata.
type settingDef struct {
	key         string
	label       string
	description string
	defaultVal  string
	kind        settingKind
	choices     []string // Only for settingChoice.
}

var settingDefs = []settingDef{
	{key: "auto_select_first", label: "Auto Select", description: "Pick the first country when none is selected (next start)", defaultVal: "false", kind: settingChoice, choices: []string{"false", "true"}},
	{key: "history_limit", label: "History Size", description: "Sessions shown by 'vulture history'", defaultVal: "50", kind: settingText},
}

type settingsModel struct {
	info     Info
	settings map[string]string
	cursor   int
	editing  bool
	input    textinput.Model
	width    int
	height   int
}

func newSettingsModel(info Info) settingsModel {
	ti := textinput.New()
	ti.CharLimit = 8
	ti.Prompt = "> "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(colorBrand)
	ti.TextStyle = lipgloss.NewStyle().Foreground(colorFg)

	return settingsModel{
		info:     info,
		settings: make(map[string]string),
		input:    ti,
	}
}

func (sm *settingsModel) setSize(w, h int) {
	sm.width = w
	sm.height = h
	sm.input.Width = w / 2
}

func (sm *settingsModel) setSettings(s map[string]string) {
	if s == nil {
		s = make(map[string]string)
	}
	sm.settings = s
}

func (sm *settingsModel) currentDef() settingDef {
	if sm.cursor >= 0 && sm.cursor < len(settingDefs) {
		return settingDefs[sm.cursor]
	}
	return settingDefs[0]
}

func (sm *settingsModel) currentValue() string {
	def := sm.currentDef()
	if v, ok := sm.settings[def.key]; ok {
		return v
	}
	return def.defaultVal
}

func (sm *settingsModel) choiceIndex(def settingDef) int {
	val := sm.currentValue()
	for i, c := range def.choices {
		if c == val {
			return i
		}
	}
	return 0
}

func (sm *settingsModel) Update(msg tea.Msg, root *Model) tea.Cmd {
	if sm.editing {
		return sm.updateEditing(msg, root)
	}

	msgKey, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	def := sm.currentDef()

	switch msgKey.String() {
	case "up", "k":
		if sm.cursor > 0 {
			sm.cursor--
		}
	case "down", "j":
		if sm.cursor < len(settingDefs)-1 {
			sm.cursor++
		}
	case "enter":
		if def.kind == settingChoice {
			return sm.cycleChoice(root, 1)
		}
		sm.editing = true
		sm.input.SetValue(sm.currentValue())
		sm.input.Focus()
		return textinput.Blink
	case "left", "h":
		if def.kind == settingChoice {
			return sm.cycleChoice(root, -1)
		}
	case "right", "l":
		if def.kind == settingChoice {
			return sm.cycleChoice(root, 1)
		}
	}
	return nil
}

// cycleChoice moves to the next/prev choice and saves it.
func (sm *settingsModel) cycleChoice(root *Model, dir int) tea.Cmd {
	def := sm.currentDef()
	idx := sm.choiceIndex(def)
	idx = (idx + dir + len(def.choices)) % len(def.choices)
	val := def.choices[idx]
	sm.settings[def.key] = val
	return saveSetting(root.store, def.key, val)
}

func (sm *settingsModel) updateEditing(msg tea.Msg, root *Model) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Back):
			sm.editing = false
			sm.input.Blur()
			return nil
		case msg.String() == "enter":
			sm.editing = false
			sm.input.Blur()
			def := sm.currentDef()
			val := strings.TrimSpace(sm.input.Value())
			sm.settings[def.key] = val
			return saveSetting(root.store, def.key, val)
		}
	}

	var cmd tea.Cmd
	sm.input, cmd = sm.input.Update(msg)
	return cmd
}

func (sm *settingsModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Tunnel"))
	b.WriteString("\n")
	for _, r := range [][2]string{
		{"Name", sm.info.DisplayName},
		{"Bundle ID", sm.info.BundleID},
		{"Compat Mode", string(sm.info.CompatMode)},
		{"Device", sm.info.Device},
		{"OpenVPN", sm.info.Binary},
		{"Config File", sm.info.ConfigPath},
		{"Tunnel Log", sm.info.TunnelLog},
	} {
		b.WriteString(cardLabelStyle.Render("  "+r[0]) + " " + dimStyle.Render(r[1]) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(titleStyle.Render("Settings"))
	b.WriteString("\n")

	for i, def := range settingDefs {
		isSelected := i == sm.cursor

		val := def.defaultVal
		if v, ok := sm.settings[def.key]; ok {
			val = v
		}

		var line string
		if isSelected {
			label := lipgloss.NewStyle().Bold(true).Foreground(colorBrand).Width(18).Render("> " + def.label)
			switch {
			case sm.editing:
				line = label + sm.input.View()
			case def.kind == settingChoice:
				line = label + sm.renderChoices(def, val)
			default:
				line = label + lipgloss.NewStyle().Foreground(colorFg).Render(val)
			}
		} else {
			label := lipgloss.NewStyle().Foreground(colorFg).Width(18).Render("  " + def.label)
			line = label + lipgloss.NewStyle().Foreground(colorDimFg).Render(val)
		}
		b.WriteString(line + "\n")

		if isSelected && !sm.editing {
			hint := def.description
			if def.kind == settingChoice {
				hint += "  (enter/arrows to change)"
			} else {
				hint += fmt.Sprintf("  (enter to edit, default: %s)", def.defaultVal)
			}
			b.WriteString(lipgloss.NewStyle().
				Foreground(colorDimFg).
				PaddingLeft(2).
				Render("  "+hint) + "\n")
		}
	}

	return forceHeight(b.String(), sm.width, sm.height)
}

// renderChoices renders the choice selector with the active choice highlighted.
func (sm *settingsModel) renderChoices(def settingDef, current string) string {
	var parts []string
	for _, c := range def.choices {
		if c == current {
			parts = append(parts, lipgloss.NewStyle().
				Bold(true).
				Foreground(colorBrand).
				Render("["+c+"]"))
		} else {
			parts = append(parts, lipgloss.NewStyle().
				Foreground(colorDimFg).
				Render(" "+c+" "))
		}
	}
	return strings.Join(parts, " ")
}
