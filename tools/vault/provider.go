package vault

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Entry is one credential record. The password never appears in
// telescope items or log output.
type Entry struct {
	ID       string
	Title    string
	Username string
	Password string
	URL      string
}

// ErrLocked is returned when entries are requested from a locked vault.
var ErrLocked = errors.New("vault is locked")

// ErrBadPIN is returned when unlocking with the wrong PIN.
var ErrBadPIN = errors.New("wrong PIN")

// Provider abstracts where credentials come from. Vault file parsing
// and cryptography live behind this boundary; the tool only deals in
// unlocked entries.
type Provider interface {
	// Unlock opens the vault. May be slow; the tool runs it on the
	// background task bridge.
	Unlock(pin string) error
	// Lock drops the unlocked state.
	Lock()
	// Entries lists the unlocked records. Fails with ErrLocked on a
	// locked vault.
	Entries() ([]Entry, error)
}

// DemoProvider is an in-memory vault for demo and test use.
type DemoProvider struct {
	mu       sync.Mutex
	pin      string
	entries  []Entry
	unlocked bool
}

// NewDemoProvider builds a provider guarding the given entries with a
// PIN. Entries without an ID get one assigned.
func NewDemoProvider(pin string, entries []Entry) *DemoProvider {
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.New().String()
		}
	}
	return &DemoProvider{pin: pin, entries: entries}
}

// Unlock implements Provider.
func (p *DemoProvider) Unlock(pin string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pin != p.pin {
		return ErrBadPIN
	}
	p.unlocked = true
	return nil
}

// Lock implements Provider.
func (p *DemoProvider) Lock() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unlocked = false
}

// Entries implements Provider.
func (p *DemoProvider) Entries() ([]Entry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.unlocked {
		return nil, ErrLocked
	}
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out, nil
}

// DemoEntries are the seeded records used by --demo and the tests.
func DemoEntries() []Entry {
	return []Entry{
		{Title: "github.com", Username: "ari@example.com", Password: "hunter2-rotate-me", URL: "https://github.com"},
		{Title: "registry.internal", Username: "deploy", Password: "s3cr3t-token", URL: "https://registry.internal"},
		{Title: "postgres/prod", Username: "app_rw", Password: "pg-pass-9000"},
	}
}
