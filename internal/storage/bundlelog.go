// Package storage keeps accepted prompt bundles on the local filesystem.
package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"promptsmith/internal/domain"
	"promptsmith/internal/infra"
)

const (
	DefaultMaxEntries = 500
	maxLineBytes      = 1 << 20
)

// BundleLog is a JSONL file holding one bundle per line in append order.
// Only the newest maxEntries bundles are kept. All access goes through one
// mutex, and every write replaces the file atomically.
type BundleLog struct {
	mu         sync.Mutex
	path       string
	maxEntries int
	logger     *infra.Logger
}

func NewBundleLog(path string, maxEntries int, logger *infra.Logger) (*BundleLog, error) {
	cleaned, err := cleanPath(path)
	if err != nil {
		return nil, err
	}
	if err := ensureDir(cleaned); err != nil {
		return nil, err
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &BundleLog{path: cleaned, maxEntries: maxEntries, logger: logger}, nil
}

// Path returns the file backing the log.
func (s *BundleLog) Path() string {
	return s.path
}

func (s *BundleLog) Append(ctx context.Context, bundles ...domain.PromptBundle) error {
	if len(bundles) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	all = append(all, bundles...)
	dropped := 0
	if len(all) > s.maxEntries {
		dropped = len(all) - s.maxEntries
		all = all[dropped:]
	}
	if err := s.save(all); err != nil {
		return err
	}
	s.logger.Debug().
		Int("appended", len(bundles)).
		Int("dropped", dropped).
		Int("total", len(all)).
		Msg("storage: bundles appended")
	return nil
}

// List returns bundles newest first.
func (s *BundleLog) List(ctx context.Context, filter domain.BundleFilter) ([]domain.PromptBundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	all, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]domain.PromptBundle, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if filter.UnusedOnly && all[i].Used {
			continue
		}
		out = append(out, all[i])
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *BundleLog) Get(ctx context.Context, id string) (*domain.PromptBundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	all, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			b := all[i]
			return &b, nil
		}
	}
	return nil, fmt.Errorf("storage: bundle %q: %w", id, domain.ErrNotFound)
}

// SetUsed flips the used flag. Setting the value a bundle already has does
// not rewrite the file.
func (s *BundleLog) SetUsed(ctx context.Context, id string, used bool) (*domain.PromptBundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID != id {
			continue
		}
		if all[i].Used != used {
			all[i].Used = used
			if err := s.save(all); err != nil {
				return nil, err
			}
		}
		b := all[i]
		return &b, nil
	}
	return nil, fmt.Errorf("storage: bundle %q: %w", id, domain.ErrNotFound)
}

func (s *BundleLog) load() ([]domain.PromptBundle, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: open log: %w", err)
	}
	defer f.Close()

	var out []domain.PromptBundle
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var b domain.PromptBundle
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("storage: decode line %d: %w", line, err)
		}
		out = append(out, b)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("storage: read log: %w", err)
	}
	return out, nil
}

func (s *BundleLog) save(all []domain.PromptBundle) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, b := range all {
		if err := enc.Encode(b); err != nil {
			return fmt.Errorf("storage: encode bundle %q: %w", b.ID, err)
		}
	}
	return writeFileAtomic(s.path, buf.Bytes())
}

var _ domain.BundleRepository = (*BundleLog)(nil)
