package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// toggle flips the connection. It never queues behind a running operation.
func toggle(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		return toggleResultMsg{err: ctrl.TryToggle(context.Background())}
	}
}

// selectServer changes the selection, reconnecting when connected.
func selectServer(ctrl Controller, configID string) tea.Cmd {
	return func() tea.Msg {
		err := ctrl.SelectServer(context.Background(), configID)
		return selectResultMsg{configID: configID, err: err}
	}
}

// navigateHome switches to the home tab with configID as parameter.
func navigateHome(configID string) tea.Cmd {
	return func() tea.Msg {
		return navigateHomeMsg{configID: configID}
	}
}

// currentSnapshot reads controller state once.
func currentSnapshot(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg{snap: ctrl.Snapshot()}
	}
}

// loadSettings fetches all application settings.
func loadSettings(store SettingsStore) tea.Cmd {
	return func() tea.Msg {
		settings, err := store.GetAllSettings(context.Background())
		return settingsLoadedMsg{settings: settings, err: err}
	}
}

// saveSetting saves a single setting.
func saveSetting(store SettingsStore, key, value string) tea.Cmd {
	return func() tea.Msg {
		err := store.SetSetting(context.Background(), key, value)
		return settingSavedMsg{key: key, err: err}
	}
}

// clearNotification returns a command that fires after a delay.
func clearNotification(d time.Duration, version int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearNotificationMsg{version: version}
	})
}
