package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"vulture/internal/catalog"
	"vulture/internal/core"
	"vulture/internal/core/types"
	vperrors "vulture/pkg/errors"
)

// Tab indices.
const (
	tabHome      = 0
	tabCountries = 1
	tabSettings  = 2
	tabCount     = 3
)

// How long notifications and controller alerts stay on screen.
var (
	notifyFor = 4 * time.Second
	alertFor  = 8 * time.Second
)

// Controller is the part of core.Controller the UI drives.
type Controller interface {
	Snapshot() core.Snapshot
	Subscribe(fn func(core.Snapshot))
	Catalog() *catalog.Catalog
	TryToggle(ctx context.Context) error
	SelectServer(ctx context.Context, configID string) error
}

// SettingsStore reads and writes user settings.
type SettingsStore interface {
	GetAllSettings(ctx context.Context) (map[string]string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Info is read-only configuration shown in the settings tab.
type Info struct {
	DisplayName string
	BundleID    string
	CompatMode  types.CompatMode
	Device      string
	Binary      string
	ConfigPath  string
	TunnelLog   string
}

// Deps holds all dependencies injected into the TUI.
type Deps struct {
	Controller Controller
	Settings   SettingsStore
	Info       Info
}

// Model is the root BubbleTea model.
type Model struct {
	ctrl  Controller
	store SettingsStore

	width  int
	height int

	activeTab int
	showHelp  bool

	snap core.Snapshot

	homeTab      homeModel
	countriesTab countriesModel
	settingsTab  settingsModel

	notification    string
	notificationErr bool
	notifVersion    int
	notifDuration   time.Duration

	spinner spinner.Model
}

// NewModel creates a new root Model.
func NewModel(deps Deps) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	m := &Model{
		ctrl:         deps.Controller,
		store:        deps.Settings,
		activeTab:    tabHome,
		spinner:      s,
		snap:         deps.Controller.Snapshot(),
		homeTab:      newHomeModel(),
		countriesTab: newCountriesModel(),
		settingsTab:  newSettingsModel(deps.Info),
	}
	m.countriesTab.setEntries(deps.Controller.Catalog().Entries(), m.snap)
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		currentSnapshot(m.ctrl),
		loadSettings(m.store),
		m.spinner.Tick,
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	prevNotifVersion := m.notifVersion

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		ch := m.contentHeight()
		m.homeTab.setSize(msg.Width, ch)
		m.countriesTab.setSize(msg.Width, ch)
		m.settingsTab.setSize(msg.Width, ch)
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}

	case snapshotMsg:
		if msg.snap.Seq < m.snap.Seq {
			return m, nil
		}
		if msg.snap.Pending != types.OpNone && m.snap.Pending == types.OpNone {
			cmds = append(cmds, m.spinner.Tick)
		}
		m.snap = msg.snap
		m.countriesTab.markSelected(msg.snap)

	case alertMsg:
		m.setNotification(fmt.Sprintf("%s: %s", msg.title, msg.message), true)
		m.notifDuration = alertFor

	case toggleResultMsg:
		if errors.Is(msg.err, vperrors.ErrBusy) {
			m.setNotification("Please wait for the current operation to finish", true)
		}

	case navigateHomeMsg:
		m.activeTab = tabHome
		cmds = append(cmds, selectServer(m.ctrl, msg.configID))

	case selectResultMsg:
		if msg.err == nil && m.snap.State != types.Connected {
			if e, ok := m.ctrl.Catalog().Lookup(msg.configID); ok {
				m.setNotification(fmt.Sprintf("Selected %s", e.Name), false)
			}
		}

	case settingsLoadedMsg:
		if msg.err == nil {
			m.settingsTab.setSettings(msg.settings)
		}
	case settingSavedMsg:
		if msg.err != nil {
			m.setNotification(fmt.Sprintf("Save failed: %v", msg.err), true)
		} else {
			m.setNotification(fmt.Sprintf("Saved %s", msg.key), false)
		}

	case clearNotificationMsg:
		if msg.version == m.notifVersion {
			m.notification = ""
			m.notificationErr = false
		}
	}

	if m.snap.Pending != types.OpNone {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Schedule notification auto-clear when a new notification was set.
	if m.notifVersion > prevNotifVersion && m.notification != "" {
		d := m.notifDuration
		if d == 0 {
			d = notifyFor
		}
		m.notifDuration = 0
		cmds = append(cmds, clearNotification(d, m.notifVersion))
	}

	// Delegate to active tab.
	switch m.activeTab {
	case tabHome:
		cmds = append(cmds, m.homeTab.Update(msg, m))
	case tabCountries:
		cmds = append(cmds, m.countriesTab.Update(msg, m))
	case tabSettings:
		cmds = append(cmds, m.settingsTab.Update(msg, m))
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := renderHeader(m.activeTab, m.snap, m.width)

	var content string
	switch m.activeTab {
	case tabHome:
		content = m.homeTab.View(m.snap, m.spinner)
	case tabCountries:
		content = m.countriesTab.View()
	case tabSettings:
		content = m.settingsTab.View()
	}

	var notif string
	if m.notification != "" {
		if m.notificationErr {
			notif = notifErrorStyle.Render("! " + m.notification)
		} else {
			notif = notifSuccessStyle.Render("* " + m.notification)
		}
	}

	footer := renderFooter(renderHelpBar(m.showHelp), m.width)

	parts := []string{header}
	if notif != "" {
		parts = append(parts, notif)
	}
	parts = append(parts, content, footer)
	output := lipgloss.JoinVertical(lipgloss.Left, parts...)

	// Force exactly m.height lines to prevent BubbleTea rendering drift.
	return forceHeight(output, m.width, m.height)
}

// forceHeight ensures the string has exactly `height` lines, each padded to `width`.
func forceHeight(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	blank := strings.Repeat(" ", width)
	for len(lines) < height {
		lines = append(lines, blank)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) contentHeight() int {
	overhead := 5
	if m.showHelp {
		overhead += 2
	}
	h := m.height - overhead
	if h < 1 {
		h = 1
	}
	return h
}

// handleGlobalKey handles keys that work on every tab. The bool reports
// whether the key was consumed.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if m.activeTab == tabSettings && m.settingsTab.editing {
		return nil, false
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return tea.Quit, true

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
		return nil, true

	case key.Matches(msg, keys.TabNext):
		m.activeTab = (m.activeTab + 1) % tabCount
		return nil, true

	case key.Matches(msg, keys.TabPrev):
		m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		return nil, true

	case key.Matches(msg, keys.Power):
		return m.power(), true

	case key.Matches(msg, keys.Refresh):
		return tea.Batch(currentSnapshot(m.ctrl), loadSettings(m.store)), true
	}

	return nil, false
}

// power toggles the connection unless an operation is already running.
func (m *Model) power() tea.Cmd {
	if m.snap.Pending != types.OpNone {
		return nil
	}
	return toggle(m.ctrl)
}

func (m *Model) setNotification(text string, isErr bool) {
	m.notification = text
	m.notificationErr = isErr
	m.notifVersion++
}

// NewProgram creates a bubbletea program with alt screen and feeds it
// controller snapshots.
func NewProgram(deps Deps) *tea.Program {
	m := NewModel(deps)
	p := tea.NewProgram(m, tea.WithAltScreen())
	deps.Controller.Subscribe(func(s core.Snapshot) {
		p.Send(snapshotMsg{snap: s})
	})
	return p
}

// Alert returns a sink that shows controller alerts in p.
func Alert(p *tea.Program) func(title, message string) {
	return func(title, message string) {
		p.Send(alertMsg{title: title, message: message})
	}
}
