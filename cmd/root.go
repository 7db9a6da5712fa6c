package cmd

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"toolbelt/config"
	"toolbelt/logging"
	"toolbelt/paths"
)

// CLI represents the command-line interface structure
type CLI struct {
	Version     kong.VersionFlag `help:"Show version information"`
	Debug       bool             `help:"Enable debug logging to file" short:"d" env:"TOOLBELT_DEBUG"`
	DebugFile   string           `help:"Custom path for debug log file (disables automatic cleanup)" env:"TOOLBELT_DEBUG_FILE"`
	MaxLogFiles int              `help:"Maximum number of log files to keep (0 = unlimited)" default:"1000" env:"TOOLBELT_MAX_LOG_FILES"`
	DBPath      string           `help:"Path to SQLite database" type:"path" default:"~/.toolbelt/state.db" env:"TOOLBELT_DB_PATH"`

	Run   RunCmd   `cmd:"" help:"Start the toolbelt TUI (default)" default:"1"`
	Serve ServeCmd `cmd:"serve" help:"Serve the TUI over SSH"`

	// Internal field for settings (not a flag)
	settings *config.Settings `kong:"-"`
}

// SetSettings sets the settings on the CLI struct
func (c *CLI) SetSettings(settings *config.Settings) {
	c.settings = settings
}

// AfterApply initializes logging after CLI parsing and applies settings
func (c *CLI) AfterApply() error {
	// Apply settings with proper precedence: CLI flags > env vars > settings.json > defaults
	// Only apply if flag is at default value and env var is not set

	if c.settings != nil {
		if c.DBPath == paths.ExpandPath("~/.toolbelt/state.db") {
			if _, hasEnv := os.LookupEnv("TOOLBELT_DB_PATH"); !hasEnv {
				if c.settings.DBPath != "" {
					c.DBPath = c.settings.DBPath
				}
			}
		}

		if c.DebugFile == "" {
			if _, hasEnv := os.LookupEnv("TOOLBELT_DEBUG_FILE"); !hasEnv {
				c.DebugFile = c.settings.LogFile
			}
		}

		if c.MaxLogFiles == 1000 {
			if _, hasEnv := os.LookupEnv("TOOLBELT_MAX_LOG_FILES"); !hasEnv {
				if c.settings.MaxLogFiles != nil {
					c.MaxLogFiles = *c.settings.MaxLogFiles
				}
			}
		}

		if !c.Debug {
			if _, hasEnv := os.LookupEnv("TOOLBELT_DEBUG"); !hasEnv {
				if c.settings.Debug != nil && *c.settings.Debug {
					c.Debug = true
				}
			}
		}
	}

	logPath, err := logging.Initialize(c.Debug, c.DebugFile, c.MaxLogFiles)
	if err != nil {
		return err
	}
	if logPath != "" {
		fmt.Fprintf(os.Stderr, "Debug logs: %s\n", logPath)
		// The store's query logger keys off this, including the stores
		// each SSH session opens later.
		os.Setenv("TOOLBELT_DEBUG", "1")
	}

	return nil
}
