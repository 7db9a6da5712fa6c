package paths

import (
	"os"
	"path/filepath"
)

// GetToolbeltHome returns TOOLBELT_HOME or ~/.toolbelt default
func GetToolbeltHome() string {
	home := os.Getenv("TOOLBELT_HOME")
	if home == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ".toolbelt"
		}
		return filepath.Join(homeDir, ".toolbelt")
	}
	return ExpandPath(home)
}

// GetDBPath returns $TOOLBELT_HOME/state.db
func GetDBPath() string {
	return filepath.Join(GetToolbeltHome(), "state.db")
}

// GetSettingsPath returns $TOOLBELT_HOME/settings.json
func GetSettingsPath() string {
	return filepath.Join(GetToolbeltHome(), "settings.json")
}

// GetSSHDir returns $TOOLBELT_HOME/ssh, where the server keeps its host key
func GetSSHDir() string {
	return filepath.Join(GetToolbeltHome(), "ssh")
}

// ExpandPath expands ~ to home directory
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			if len(path) == 1 {
				return homeDir
			}
			return filepath.Join(homeDir, path[1:])
		}
	}
	return path
}
