package config

import (
	"encoding/json"
	"fmt"
	"os"

	"toolbelt/paths"
)

// Settings represents the structure of ~/.toolbelt/settings.json
type Settings struct {
	DBPath                string `json:"db_path,omitempty"`
	Debug                 *bool  `json:"debug,omitempty"`
	LogFile               string `json:"log_file,omitempty"`
	MaxLogFiles           *int   `json:"max_log_files,omitempty"`
	AuthorizedKeys        string `json:"authorized_keys,omitempty"`
	SequenceTimeoutMillis *int   `json:"sequence_timeout_ms,omitempty"`
	TickMillis            *int   `json:"tick_ms,omitempty"`
	ClipboardClearSeconds *int   `json:"clipboard_clear_seconds,omitempty"`
	RevealHideSeconds     *int   `json:"reveal_hide_seconds,omitempty"`
	AutoLockMinutes       *int   `json:"autolock_minutes,omitempty"`
}

// LoadSettings loads settings from ~/.toolbelt/settings.json
// Returns empty Settings if file doesn't exist (not an error)
func LoadSettings() (*Settings, error) {
	data, err := os.ReadFile(paths.GetSettingsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{}, nil // Not an error, use defaults
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("invalid settings.json: %w", err)
	}

	// Expand paths that start with ~
	if settings.DBPath != "" {
		settings.DBPath = paths.ExpandPath(settings.DBPath)
	}
	if settings.LogFile != "" {
		settings.LogFile = paths.ExpandPath(settings.LogFile)
	}
	if settings.AuthorizedKeys != "" {
		settings.AuthorizedKeys = paths.ExpandPath(settings.AuthorizedKeys)
	}

	return &settings, nil
}
