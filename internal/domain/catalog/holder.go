package catalog

import (
	"errors"
	"sync/atomic"
)

// Holder publishes the current Catalog. Readers never observe a partially
// reloaded catalog: Reload builds a complete replacement and swaps the pointer.
type Holder struct {
	current     atomic.Pointer[Catalog]
	personaPath string
	bankPath    string
}

// NewHolder loads the catalog from disk once.
func NewHolder(personaPath, bankPath string) (*Holder, error) {
	h := &Holder{personaPath: personaPath, bankPath: bankPath}
	if _, err := h.Reload(); err != nil {
		return nil, err
	}
	return h, nil
}

// NewStaticHolder wraps an already-built catalog; Reload is unavailable.
func NewStaticHolder(c *Catalog) *Holder {
	h := &Holder{}
	h.current.Store(c)
	return h
}

// Current returns the active catalog.
func (h *Holder) Current() *Catalog {
	return h.current.Load()
}

// Reload re-reads the files and swaps them in. On error the previous catalog
// stays active.
func (h *Holder) Reload() (*Catalog, error) {
	if h.personaPath == "" && h.bankPath == "" {
		return nil, errors.New("catalog: holder has no source files")
	}
	next, err := Load(h.personaPath, h.bankPath)
	if err != nil {
		return nil, err
	}
	h.current.Store(next)
	return next, nil
}
