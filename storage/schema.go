package storage

import "time"

// Todo is one task list entry, owned by the todo tool.
type Todo struct {
	ID        uint   `gorm:"primaryKey"`
	Text      string `gorm:"not null"`
	Note      string `gorm:"default:''"`
	Done      bool   `gorm:"not null;default:false;index:idx_done"`
	Position  int    `gorm:"not null;default:0;index:idx_todo_position"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoteEntry kinds. Folders sort before notes, so the plain kind
// ordering keeps directories on top the way a file tree does.
const (
	NoteKindFolder = "folder"
	NoteKindNote   = "note"
)

// NoteEntry is one row of the notes tree, a folder or a note. A nil
// ParentID means the entry sits at the root.
type NoteEntry struct {
	ID        uint   `gorm:"primaryKey"`
	ParentID  *uint  `gorm:"index:idx_note_parent"`
	Name      string `gorm:"not null"`
	Kind      string `gorm:"not null;check:kind IN ('folder','note')"`
	Expanded  bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoteBody holds a note's content, one-to-one with its entry. The row
// is created empty alongside the entry so every note always has one.
type NoteBody struct {
	ID        uint   `gorm:"primaryKey"`
	EntryID   uint   `gorm:"not null;uniqueIndex:idx_note_body_entry"`
	Body      string `gorm:"default:''"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Request is one saved request in the HTTP client's collection.
// Headers holds a JSON object of header name to value.
type Request struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null;uniqueIndex:idx_request_name"`
	Method    string `gorm:"not null;default:'GET';check:method IN ('GET','POST','PUT','PATCH','DELETE','HEAD','OPTIONS')"`
	URL       string `gorm:"not null"`
	Headers   string `gorm:"default:''"`
	Body      string `gorm:"default:''"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
