// Package logging owns the process-wide structured logger. Runs write
// JSON lines to per-run files under $TOOLBELT_HOME/logs; with
// debugging off the logger discards everything, so packages can log
// unconditionally.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"toolbelt/paths"
)

// Logger is shared by every package. It discards until Initialize
// enables a sink, so logging before initialization is safe.
var Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))

// Initialize points the logger at its sink and returns the log file
// path, or "" when logging stays off. A non-empty logFile is used
// as-is and never pruned; otherwise a fresh per-run file is created
// under $TOOLBELT_HOME/logs and old runs beyond maxLogFiles are pruned
// (0 keeps everything).
func Initialize(debug bool, logFile string, maxLogFiles int) (string, error) {
	if !debug && logFile == "" {
		Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
		return "", nil
	}

	path := logFile
	if path == "" {
		dir := filepath.Join(paths.GetToolbeltHome(), "logs")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("creating log directory: %w", err)
		}
		if maxLogFiles > 0 {
			if err := prune(dir, maxLogFiles); err != nil {
				fmt.Fprintf(os.Stderr, "warning: pruning old logs failed: %v\n", err)
			}
		}
		path = filepath.Join(dir, runFileName())
	} else if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("opening log file: %w", err)
	}
	Logger = slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	Logger.Info("logging started", "file", path)
	return path, nil
}

// runFileName names one run's log file. The timestamp prefix makes
// names sort chronologically; the uuid suffix keeps concurrent runs
// apart.
func runFileName() string {
	return fmt.Sprintf("%s-%s.log", time.Now().UTC().Format("20060102-150405"), uuid.NewString()[:8])
}

// prune deletes the oldest run logs so that after the new run's file
// is created at most maxLogFiles remain. Run file names sort
// chronologically, so lexical order is age order.
func prune(dir string, maxLogFiles int) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.log"))
	if err != nil {
		return err
	}
	if maxLogFiles <= 0 || len(files) < maxLogFiles {
		return nil
	}
	sort.Strings(files)
	drop := len(files) - maxLogFiles + 1
	for _, f := range files[:drop] {
		if err := os.Remove(f); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not remove old log %s: %v\n", f, err)
		}
	}
	return nil
}
