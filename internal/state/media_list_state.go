// Package state provides observable state containers. They publish events
// on change so the CLI and dashboard renderers can follow along.
package state

import (
	"sync"

	"github.com/distrohub/mediadesk/internal/events"
	"github.com/distrohub/mediadesk/internal/models"
)

// ViewMode selects how a media page is rendered.
type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

// ParseViewMode maps a config or flag value to a ViewMode, defaulting to grid.
func ParseViewMode(s string) ViewMode {
	if ViewMode(s) == ViewList {
		return ViewList
	}
	return ViewGrid
}

// MediaListState holds the visible page of the media library: its items,
// pagination and stats, the single selected item, the view mode and sort.
// Safe for concurrent use.
type MediaListState struct {
	eventBus *events.EventBus

	items      []models.MediaItem
	pagination models.Pagination
	stats      models.MediaStats
	folderID   string
	selectedID string
	view       ViewMode
	sortBy     string
	sortOrder  string
	loading    bool
	lastError  error

	mu sync.RWMutex
}

// NewMediaListState creates an empty state in grid view sorted by
// creation date, newest first.
func NewMediaListState(eventBus *events.EventBus) *MediaListState {
	return &MediaListState{
		eventBus:  eventBus,
		items:     []models.MediaItem{},
		folderID:  models.RootFolderID,
		view:      ViewGrid,
		sortBy:    "createdAt",
		sortOrder: models.SortDesc,
	}
}

// SetPage replaces the visible items with a freshly fetched page. The
// selection survives only if the selected item is still on the page.
func (s *MediaListState) SetPage(folderID string, page *models.MediaPage) {
	s.mu.Lock()
	s.folderID = folderID
	if page == nil {
		s.items = []models.MediaItem{}
		s.pagination = models.Pagination{}
	} else {
		s.items = append([]models.MediaItem(nil), page.Items...)
		s.pagination = page.Pagination
		s.stats = page.Stats
	}
	s.loading = false
	s.lastError = nil
	selectionLost := s.selectedID != "" && s.indexLocked(s.selectedID) < 0
	if selectionLost {
		s.selectedID = ""
	}
	count, p := len(s.items), s.pagination
	s.mu.Unlock()

	s.eventBus.PublishMediaList(folderID, count, p.CurrentPage, p.TotalPages)
	if selectionLost {
		s.eventBus.PublishSelection("", folderID)
	}
}

// SetStats replaces the library stats.
func (s *MediaListState) SetStats(stats models.MediaStats) {
	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()
}

// Items returns a copy of the visible items.
func (s *MediaListState) Items() []models.MediaItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.MediaItem(nil), s.items...)
}

// Pagination returns the cursor of the visible page.
func (s *MediaListState) Pagination() models.Pagination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pagination
}

// Stats returns the last fetched library stats.
func (s *MediaListState) Stats() models.MediaStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// FolderID returns the folder the visible page belongs to.
func (s *MediaListState) FolderID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.folderID
}

// Count returns the number of visible items.
func (s *MediaListState) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// FindByID finds a visible item by id.
func (s *MediaListState) FindByID(id string) (models.MediaItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.items[i], true
	}
	return models.MediaItem{}, false
}

func (s *MediaListState) indexLocked(id string) int {
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// Select makes id the single selected item. Selecting an id that is not
// on the visible page is ignored and returns false.
func (s *MediaListState) Select(id string) bool {
	s.mu.Lock()
	if s.indexLocked(id) < 0 {
		s.mu.Unlock()
		return false
	}
	s.selectedID = id
	folderID := s.folderID
	s.mu.Unlock()

	s.eventBus.PublishSelection(id, folderID)
	return true
}

// ClearSelection drops the selection.
func (s *MediaListState) ClearSelection() {
	s.mu.Lock()
	had := s.selectedID != ""
	s.selectedID = ""
	folderID := s.folderID
	s.mu.Unlock()

	if had {
		s.eventBus.PublishSelection("", folderID)
	}
}

// Selected returns the selected item, if any.
func (s *MediaListState) Selected() (models.MediaItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selectedID == "" {
		return models.MediaItem{}, false
	}
	if i := s.indexLocked(s.selectedID); i >= 0 {
		return s.items[i], true
	}
	return models.MediaItem{}, false
}

// SelectedID returns the selected item id, or "".
func (s *MediaListState) SelectedID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedID
}

// SetView switches between grid and list rendering.
func (s *MediaListState) SetView(v ViewMode) {
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
}

// View returns the current view mode.
func (s *MediaListState) View() ViewMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// SetSort records the server-side sort. Items are re-fetched, not
// re-sorted locally.
func (s *MediaListState) SetSort(sortBy, sortOrder string) {
	s.mu.Lock()
	if sortBy != "" {
		s.sortBy = sortBy
	}
	if sortOrder == models.SortAsc || sortOrder == models.SortDesc {
		s.sortOrder = sortOrder
	}
	s.mu.Unlock()
}

// Sort returns the current sort field and order.
func (s *MediaListState) Sort() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortBy, s.sortOrder
}

// SetLoading marks a fetch in progress.
func (s *MediaListState) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
}

// IsLoading returns whether a fetch is in progress.
func (s *MediaListState) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// SetError records a failed fetch. The visible items are kept.
func (s *MediaListState) SetError(err error) {
	s.mu.Lock()
	s.lastError = err
	s.loading = false
	s.mu.Unlock()
}

// Err returns the last fetch error.
func (s *MediaListState) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// Reset clears items, selection and error, keeping view and sort.
func (s *MediaListState) Reset() {
	s.mu.Lock()
	s.items = []models.MediaItem{}
	s.pagination = models.Pagination{}
	s.stats = models.MediaStats{}
	had := s.selectedID != ""
	s.selectedID = ""
	s.lastError = nil
	s.loading = false
	folderID := s.folderID
	s.mu.Unlock()

	s.eventBus.PublishMediaList(folderID, 0, 0, 0)
	if had {
		s.eventBus.PublishSelection("", folderID)
	}
}
