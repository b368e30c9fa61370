package manager

import (
	"context"
	"errors"
	"sync"

	"github.com/distrohub/mediadesk/internal/models"
)

// ErrNoCandidate is returned by Add when nothing has been picked.
var ErrNoCandidate = errors.New("no media item picked")

// Selector wraps a Manager for picking a single item. Every completed
// upload remounts the inner manager with fresh state.
type Selector struct {
	factory func() *Manager

	mu         sync.Mutex
	mgr        *Manager
	generation int
	candidate  *models.MediaItem
	completed  int
}

// NewSelector mounts the first manager from factory. The factory is
// called again on every remount, so it should also call EnableUploads if
// the selector is to accept uploads.
func NewSelector(factory func() *Manager) *Selector {
	s := &Selector{factory: factory}
	s.mgr = s.mount()
	return s
}

func (s *Selector) mount() *Manager {
	m := s.factory()
	prev := m.opts.OnUploadPersisted
	m.opts.OnUploadPersisted = func(item models.MediaItem) {
		if prev != nil {
			prev(item)
		}
		s.mu.Lock()
		s.completed++
		s.mu.Unlock()
	}
	return m
}

// Manager returns the currently mounted manager.
func (s *Selector) Manager() *Manager {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mgr
}

// Generation counts remounts.
func (s *Selector) Generation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Pick marks a visible item as the candidate.
func (s *Selector) Pick(id string) error {
	m := s.Manager()
	item, ok := m.List().FindByID(id)
	if !ok {
		return errors.New("media " + id + " is not on the current page")
	}
	m.SelectItem(id)
	s.mu.Lock()
	s.candidate = &item
	s.mu.Unlock()
	return nil
}

// Candidate returns the picked item, if any.
func (s *Selector) Candidate() (models.MediaItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.candidate == nil {
		return models.MediaItem{}, false
	}
	return *s.candidate, true
}

// Add confirms the pick and returns the chosen item.
func (s *Selector) Add() (models.MediaItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.candidate == nil {
		return models.MediaItem{}, ErrNoCandidate
	}
	return *s.candidate, nil
}

// Cancel drops the pick.
func (s *Selector) Cancel() {
	s.mu.Lock()
	s.candidate = nil
	s.mu.Unlock()
	s.Manager().List().ClearSelection()
}

// Upload uploads paths through the mounted manager. Each file that became
// a media record bumps the generation; if any did, a fresh manager is
// mounted and fully refreshed.
func (s *Selector) Upload(ctx context.Context, paths ...string) (int, error) {
	m := s.Manager()
	s.mu.Lock()
	s.completed = 0
	s.mu.Unlock()

	n, uploadErr := m.Upload(ctx, paths...)

	s.mu.Lock()
	completed := s.completed
	s.mu.Unlock()
	if completed == 0 {
		return n, uploadErr
	}
	if err := s.Remount(ctx, completed); err != nil && uploadErr == nil {
		uploadErr = err
	}
	return n, uploadErr
}

// Remount replaces the inner manager, advancing the generation by times,
// and refreshes it.
func (s *Selector) Remount(ctx context.Context, times int) error {
	if times < 1 {
		times = 1
	}
	fresh := s.mount()

	s.mu.Lock()
	s.mgr = fresh
	s.generation += times
	s.candidate = nil
	s.mu.Unlock()
	return fresh.Refresh(ctx)
}
