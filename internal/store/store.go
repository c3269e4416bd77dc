// Package store persists Maestro's state as one JSON document per logical
// concern (sessions, contexts, knowledge, decisions, impact analyses, sync
// snapshot).
//
// Reads favor availability: a missing, unreadable, or corrupt document yields
// the zero value and no error, so history loss never blocks new work. Writes
// replace the whole document atomically (temp file + rename) and propagate
// failures to the caller.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrUnavailable marks a persistence-layer write failure. Callers can test
// for it with errors.Is.
var ErrUnavailable = errors.New("store unavailable")

// Logical document names. Each maps to <name>.json under the data directory.
const (
	SessionsDoc  = "sessions"
	ContextsDoc  = "contexts"
	KnowledgeDoc = "knowledge"
	DecisionsDoc = "decisions"
	ImpactsDoc   = "impact_analyses"
	SyncDoc      = "sync_state"
)

// Store defines the persistence interface for Maestro documents.
// Abstracted so managers can be tested against a temp-dir FileStore
// or an in-memory fake.
type Store interface {
	// Read unmarshals the named document into doc. Missing or corrupt
	// documents leave doc at its zero value and return nil.
	Read(name string, doc any) error
	// Write atomically replaces the named document with doc.
	Write(name string, doc any) error
	// Path returns the absolute path of the named document.
	Path(name string) string
}

// FileStore implements Store on the local filesystem, one JSON file
// per document.
type FileStore struct {
	dir string
}

// NewFileStore creates a filesystem-backed store rooted at dir,
// creating the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the data directory this store is rooted at.
func (fs *FileStore) Dir() string {
	return fs.dir
}

// Path returns the absolute path of the named document.
func (fs *FileStore) Path(name string) string {
	return filepath.Join(fs.dir, name+".json")
}

// Read loads the named document. Read-or-default semantics: any failure
// (missing file, permission error, corrupt JSON) leaves doc untouched and
// returns nil, so callers always start from a usable document.
func (fs *FileStore) Read(name string, doc any) error {
	data, err := os.ReadFile(fs.Path(name))
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil
	}
	return nil
}

// Write replaces the named document. The document is written to a temp
// sibling first and renamed into place so interleaved writers never
// observe a partial file.
func (fs *FileStore) Write(name string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s document: %w", name, err)
	}

	target := fs.Path(name)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s document: %w", name, errors.Join(ErrUnavailable, err))
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("replacing %s document: %w", name, errors.Join(ErrUnavailable, err))
	}
	return nil
}
