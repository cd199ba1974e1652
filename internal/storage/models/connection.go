package models

import "time"

// ActiveConnection is the tunnel currently up, if any
type ActiveConnection struct {
	ID         int64     `json:"id"` // Always 1 (singleton)
	ConfigID   string    `json:"config_id"`
	ServerName string    `json:"server_name"`
	StartedAt  time.Time `json:"started_at"`
}

// Session is one finished connected period
type Session struct {
	ID           string    `json:"id"` // uuid
	ConfigID     string    `json:"config_id"`
	ServerName   string    `json:"server_name"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
	DurationSec  int64     `json:"duration_sec"`
	UploadKbps   float64   `json:"upload_kbps"`   // last sample before disconnect
	DownloadKbps float64   `json:"download_kbps"` // last sample before disconnect
}
