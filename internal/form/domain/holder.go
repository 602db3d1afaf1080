package domain

import "sync"

// File is one user-selected binary file
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the file length in bytes
func (f File) Size() int {
	return len(f.Data)
}

// Holder owns the current Draft and FileSelection.
// Both are replaced whole on every mutation, so snapshots handed out earlier never change.
type Holder struct {
	mu    sync.RWMutex
	draft Draft
	files []File
}

// NewHolder creates a holder with the default draft and no files
func NewHolder() *Holder {
	return &Holder{
		draft: DefaultDraft(),
	}
}

// SetField updates one draft field, coercing price and stock to numbers
func (h *Holder) SetField(name, raw string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.draft = h.draft.With(name, raw)
}

// SetFiles replaces the file selection with files, keeping their order
func (h *Holder) SetFiles(files []File) {
	selection := make([]File, len(files))
	copy(selection, files)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.files = selection
}

// Draft returns the current draft
func (h *Holder) Draft() Draft {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.draft
}

// Files returns the current file selection
func (h *Holder) Files() []File {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.files
}

// HasFiles reports whether at least one file is selected
func (h *Holder) HasFiles() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.files) > 0
}
