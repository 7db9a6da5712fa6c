package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"toolbelt/logging"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// gormLogger wraps the toolbelt logger for GORM
type gormLogger struct {
	level logger.LogLevel
}

// LogMode sets the log level
func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &gormLogger{level: level}
}

// Info logs info messages
func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Info {
		logging.Logger.Info(fmt.Sprintf(msg, data...))
	}
}

// Warn logs warn messages
func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Warn {
		logging.Logger.Warn(fmt.Sprintf(msg, data...))
	}
}

// Error logs error messages
func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Error {
		logging.Logger.Error(fmt.Sprintf(msg, data...))
	}
}

// Trace logs SQL queries - only in debug mode
func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level < logger.Info {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logging.Logger.Error("gorm query error",
			"error", err,
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	} else if elapsed > 200*time.Millisecond {
		logging.Logger.Warn("slow query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	} else {
		logging.Logger.Debug("gorm query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	}
}

// newGormLogger creates a GORM logger that respects toolbelt's debug settings
func newGormLogger() logger.Interface {
	// Set by cmd/root.go when --debug is used
	if os.Getenv("TOOLBELT_DEBUG") == "1" {
		return (&gormLogger{}).LogMode(logger.Info)
	}
	return (&gormLogger{}).LogMode(logger.Silent)
}

// Store provides thread-safe ACID access to tool state
type Store struct {
	db *gorm.DB
}

// NewStore creates a new storage instance with WAL mode enabled
func NewStore(dbPath string) (*Store, error) {
	// Expand home directory if present
	if len(dbPath) > 0 && dbPath[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(homeDir, dbPath[1:])
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		PrepareStmt: false,
		NowFunc:     func() time.Time { return time.Now().UTC() },
		Logger:      newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for concurrent access
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	db.Exec("PRAGMA synchronous=NORMAL")
	db.Exec("PRAGMA foreign_keys=ON")

	if err := db.AutoMigrate(&Todo{}, &Request{}, &NoteEntry{}, &NoteBody{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	// SQLite with WAL mode can handle multiple readers + 1 writer
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(0)

	return &Store{db: db}, nil
}

// ListTodos returns all todos ordered by position, open items first.
func (s *Store) ListTodos(ctx context.Context) ([]Todo, error) {
	var todos []Todo
	err := withRetry(func() error {
		return s.db.WithContext(ctx).
			Order("done ASC, position ASC, id ASC").
			Find(&todos).Error
	}, 3)
	return todos, err
}

// AddTodo creates a todo at the end of the open list.
func (s *Store) AddTodo(ctx context.Context, text, note string) (Todo, error) {
	var todo Todo
	err := withRetry(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var maxPosition int
			tx.Model(&Todo{}).Select("COALESCE(MAX(position), -1)").Scan(&maxPosition)

			todo = Todo{Text: text, Note: note, Position: maxPosition + 1}
			if err := tx.Create(&todo).Error; err != nil {
				return fmt.Errorf("failed to create todo: %w", err)
			}
			return nil
		})
	}, 3)
	return todo, err
}

// ToggleTodo flips the done state of a todo.
func (s *Store) ToggleTodo(ctx context.Context, id uint) error {
	return withRetry(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var todo Todo
			if err := tx.First(&todo, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("todo %d not found", id)
				}
				return err
			}
			return tx.Model(&todo).Update("done", !todo.Done).Error
		})
	}, 3)
}

// UpdateTodo rewrites the text and note of an existing todo.
func (s *Store) UpdateTodo(ctx context.Context, id uint, text, note string) error {
	return withRetry(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			result := tx.Model(&Todo{}).Where("id = ?", id).Updates(map[string]interface{}{
				"text": text,
				"note": note,
			})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("todo %d not found", id)
			}
			return nil
		})
	}, 3)
}

// DeleteTodo removes a todo.
func (s *Store) DeleteTodo(ctx context.Context, id uint) error {
	return withRetry(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			result := tx.Delete(&Todo{}, id)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("todo %d not found", id)
			}
			return nil
		})
	}, 3)
}

// SwapTodoPositions swaps the list positions of two todos.
func (s *Store) SwapTodoPositions(ctx context.Context, id1, id2 uint) error {
	return withRetry(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var t1, t2 Todo
			if err := tx.First(&t1, id1).Error; err != nil {
				return fmt.Errorf("failed to find todo %d: %w", id1, err)
			}
			if err := tx.First(&t2, id2).Error; err != nil {
				return fmt.Errorf("failed to find todo %d: %w", id2, err)
			}

			if err := tx.Model(&Todo{}).Where("id = ?", id1).Update("position", t2.Position).Error; err != nil {
				return fmt.Errorf("failed to update position for %d: %w", id1, err)
			}
			if err := tx.Model(&Todo{}).Where("id = ?", id2).Update("position", t1.Position).Error; err != nil {
				return fmt.Errorf("failed to update position for %d: %w", id2, err)
			}
			return nil
		})
	}, 3)
}

// ListRequests returns the saved request collection ordered by name.
func (s *Store) ListRequests(ctx context.Context) ([]Request, error) {
	var requests []Request
	err := withRetry(func() error {
		return s.db.WithContext(ctx).Order("name ASC").Find(&requests).Error
	}, 3)
	return requests, err
}

// GetRequest retrieves a single saved request by id.
func (s *Store) GetRequest(ctx context.Context, id uint) (*Request, error) {
	var req Request
	err := withRetry(func() error {
		return s.db.WithContext(ctx).First(&req, id).Error
	}, 3)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("request %d not found", id)
		}
		return nil, err
	}
	return &req, nil
}

// SaveRequest upserts a request: zero ID creates, non-zero updates.
func (s *Store) SaveRequest(ctx context.Context, req *Request) error {
	return withRetry(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(req).Error; err != nil {
				return fmt.Errorf("failed to save request %s: %w", req.Name, err)
			}
			return nil
		})
	}, 3)
}

// DeleteRequest removes a saved request.
func (s *Store) DeleteRequest(ctx context.Context, id uint) error {
	return withRetry(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			result := tx.Delete(&Request{}, id)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("request %d not found", id)
			}
			return nil
		})
	}, 3)
}

// ListNoteEntries returns the whole notes tree, folders before notes
// and alphabetical within each kind. Callers group rows by ParentID.
func (s *Store) ListNoteEntries(ctx context.Context) ([]NoteEntry, error) {
	var entries []NoteEntry
	err := withRetry(func() error {
		return s.db.WithContext(ctx).
			Order("kind ASC, name ASC, id ASC").
			Find(&entries).Error
	}, 3)
	return entries, err
}

// AddNoteEntry creates a folder or note under parent (nil for the
// root). Notes get their empty body row in the same transaction.
func (s *Store) AddNoteEntry(ctx context.Context, parent *uint, name, kind string) (NoteEntry, error) {
	if kind != NoteKindFolder && kind != NoteKindNote {
		return NoteEntry{}, fmt.Errorf("unknown note entry kind %q", kind)
	}
	var entry NoteEntry
	err := withRetry(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			entry = NoteEntry{ParentID: parent, Name: name, Kind: kind}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("failed to create note entry: %w", err)
			}
			if kind == NoteKindNote {
				if err := tx.Create(&NoteBody{EntryID: entry.ID}).Error; err != nil {
					return fmt.Errorf("failed to create note body: %w", err)
				}
			}
			return nil
		})
	}, 3)
	return entry, err
}

// RenameNoteEntry changes an entry's display name.
func (s *Store) RenameNoteEntry(ctx context.Context, id uint, name string) error {
	return withRetry(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			result := tx.Model(&NoteEntry{}).Where("id = ?", id).Update("name", name)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("note entry %d not found", id)
			}
			return nil
		})
	}, 3)
}

// SetNoteExpanded persists a folder's open/closed state.
func (s *Store) SetNoteExpanded(ctx context.Context, id uint, expanded bool) error {
	return withRetry(func() error {
		return s.db.WithContext(ctx).
			Model(&NoteEntry{}).Where("id = ?", id).
			Update("expanded", expanded).Error
	}, 3)
}

// DeleteNoteEntry removes an entry and its whole subtree, bodies
// included, in one transaction.
func (s *Store) DeleteNoteEntry(ctx context.Context, id uint) error {
	return withRetry(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			ids := []uint{id}
			frontier := []uint{id}
			for len(frontier) > 0 {
				var children []uint
				if err := tx.Model(&NoteEntry{}).
					Where("parent_id IN ?", frontier).
					Pluck("id", &children).Error; err != nil {
					return err
				}
				ids = append(ids, children...)
				frontier = children
			}
			result := tx.Delete(&NoteEntry{}, ids)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("note entry %d not found", id)
			}
			return tx.Where("entry_id IN ?", ids).Delete(&NoteBody{}).Error
		})
	}, 3)
}

// GetNoteBody returns the content of a note by its entry id.
func (s *Store) GetNoteBody(ctx context.Context, entryID uint) (string, error) {
	var body NoteBody
	err := withRetry(func() error {
		return s.db.WithContext(ctx).Where("entry_id = ?", entryID).First(&body).Error
	}, 3)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("note %d has no body", entryID)
		}
		return "", err
	}
	return body.Body, nil
}

// SaveNoteBody rewrites a note's content. Folders have no body row, so
// writing to one fails.
func (s *Store) SaveNoteBody(ctx context.Context, entryID uint, body string) error {
	return withRetry(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			result := tx.Model(&NoteBody{}).Where("entry_id = ?", entryID).Update("body", body)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("note %d has no body", entryID)
			}
			return nil
		})
	}, 3)
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// withRetry retries operations on SQLITE_BUSY with exponential backoff
func withRetry(fn func() error, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
			time.Sleep(time.Millisecond * time.Duration(50*(i+1)))
			continue
		}

		return err
	}
	return fmt.Errorf("operation failed after %d retries", maxRetries)
}
