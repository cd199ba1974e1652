package tui

import "vulture/internal/core"

// Controller messages.

type snapshotMsg struct {
	snap core.Snapshot
}

type alertMsg struct {
	title   string
	message string
}

type toggleResultMsg struct {
	err error
}

type selectResultMsg struct {
	configID string
	err      error
}

// Navigation message carrying the chosen server to the home tab.
type navigateHomeMsg struct {
	configID string
}

// Settings messages.

type settingsLoadedMsg struct {
	settings map[string]string
	err      error
}

type settingSavedMsg struct {
	key string
	err error
}

// Notification message.

type clearNotificationMsg struct {
	version int
}
