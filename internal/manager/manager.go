// Package manager coordinates the media library: the folder tree, the
// visible media page, the details panel and uploads. The backend owns all
// data; every mutation is a backend call followed by a re-fetch once that
// call has resolved.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/distrohub/mediadesk/internal/cloud"
	"github.com/distrohub/mediadesk/internal/cloud/upload"
	"github.com/distrohub/mediadesk/internal/constants"
	"github.com/distrohub/mediadesk/internal/events"
	"github.com/distrohub/mediadesk/internal/foldertree"
	"github.com/distrohub/mediadesk/internal/logging"
	"github.com/distrohub/mediadesk/internal/metrics"
	"github.com/distrohub/mediadesk/internal/models"
	"github.com/distrohub/mediadesk/internal/notify"
	"github.com/distrohub/mediadesk/internal/session"
	"github.com/distrohub/mediadesk/internal/state"
)

var (
	// ErrNoUploadHandler is returned by Upload before EnableUploads.
	ErrNoUploadHandler = errors.New("uploads are not configured")
	// ErrUnknownFolder is returned when selecting a folder that is not in
	// the tree.
	ErrUnknownFolder = errors.New("unknown folder")
	// ErrNotUploaded is returned when persisting a candidate without a
	// hosted URL.
	ErrNotUploaded = errors.New("candidate has not been uploaded")
)

// Backend is the part of the API client the manager drives.
type Backend interface {
	ListFolders(ctx context.Context, sess *session.Session) ([]models.Folder, error)
	CreateFolder(ctx context.Context, sess *session.Session, name, parentID string) (*models.Folder, error)
	RenameFolder(ctx context.Context, sess *session.Session, id, name string) (*models.Folder, error)
	DeleteFolder(ctx context.Context, sess *session.Session, id string) error

	ListMedia(ctx context.Context, sess *session.Session, q models.MediaQuery) (*models.MediaPage, error)
	CreateMedia(ctx context.Context, sess *session.Session, body models.MediaCreate) (*models.MediaItem, error)
	UpdateMedia(ctx context.Context, sess *session.Session, id string, u models.MediaUpdate) (*models.MediaItem, error)
	DeleteMedia(ctx context.Context, sess *session.Session, id string) error
	GetStats(ctx context.Context, sess *session.Session) (*models.MediaStats, error)
}

// Options are the browsing defaults of a Manager.
type Options struct {
	PageLimit int
	SortBy    string
	SortOrder string
	View      state.ViewMode

	// OnUploadPersisted runs after an uploaded file became a media record.
	OnUploadPersisted func(item models.MediaItem)

	EventBus *events.EventBus
	Logger   *logging.Logger
}

// Manager holds page-level state of the media library.
type Manager struct {
	backend Backend
	sess    *session.Session
	opts    Options
	logger  *logging.Logger
	bus     *events.EventBus

	list   *state.MediaListState
	expand *foldertree.ExpandState

	mu           sync.Mutex
	tree         *foldertree.Tree
	folderID     string
	page         int
	search       string
	mediaType    models.MediaType
	refreshCount int
	uploader     *upload.Uploader
}

// New creates a manager at the root folder, page 1. Nothing is fetched
// until Refresh.
func New(backend Backend, sess *session.Session, opts Options) *Manager {
	if opts.PageLimit <= 0 {
		opts.PageLimit = constants.DefaultPageLimit
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	list := state.NewMediaListState(opts.EventBus)
	list.SetSort(opts.SortBy, opts.SortOrder)
	if opts.View != "" {
		list.SetView(opts.View)
	}
	return &Manager{
		backend:  backend,
		sess:     sess,
		opts:     opts,
		logger:   logger.Component("manager"),
		bus:      opts.EventBus,
		list:     list,
		expand:   foldertree.NewExpandState(),
		tree:     foldertree.Build(nil),
		folderID: models.RootFolderID,
		page:     1,
	}
}

// Session returns the actor all calls are made as.
func (m *Manager) Session() *session.Session {
	return m.sess
}

// List returns the observable media page.
func (m *Manager) List() *state.MediaListState {
	return m.list
}

// Expand returns the folder expand/collapse state.
func (m *Manager) Expand() *foldertree.ExpandState {
	return m.expand
}

// Tree returns the folder tree of the last refresh.
func (m *Manager) Tree() *foldertree.Tree {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tree
}

// SelectedFolder returns the id of the selected folder.
func (m *Manager) SelectedFolder() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.folderID
}

// Page returns the requested page number.
func (m *Manager) Page() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.page
}

// RefreshCount returns how many mutations have triggered a re-fetch.
func (m *Manager) RefreshCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshCount
}

// Query returns the media query for the current selection and filters.
func (m *Manager) Query() models.MediaQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queryLocked()
}

func (m *Manager) queryLocked() models.MediaQuery {
	sortBy, sortOrder := m.list.Sort()
	return models.MediaQuery{
		Page:      m.page,
		Limit:     m.opts.PageLimit,
		FolderID:  m.folderID,
		SortBy:    sortBy,
		SortOrder: sortOrder,
		Search:    m.search,
		Type:      m.mediaType,
	}
}

// Refresh fetches folders, then the media page, then stats, one after the
// other, and rebuilds the tree. A selected folder that vanished falls back
// to the root.
func (m *Manager) Refresh(ctx context.Context) error {
	return m.refresh(ctx, "manual")
}

func (m *Manager) refresh(ctx context.Context, reason string) error {
	err := m.fetchAll(ctx)
	m.mu.Lock()
	counter := m.refreshCount
	m.mu.Unlock()

	metrics.RecordRefresh(reason, err == nil)
	m.bus.PublishRefresh(counter, reason, err)
	if err != nil {
		m.fail("Refresh failed", err)
	}
	return err
}

func (m *Manager) fetchAll(ctx context.Context) error {
	folders, err := m.backend.ListFolders(ctx, m.sess)
	if err != nil {
		return fmt.Errorf("failed to load folders: %w", err)
	}
	if err := foldertree.Validate(folders); err != nil {
		m.logger.Warn().Err(err).Msg("folder hierarchy is inconsistent")
	}
	tree := foldertree.Build(folders)
	m.expand.Prune(tree)

	m.mu.Lock()
	m.tree = tree
	if _, ok := tree.Find(m.folderID); !ok {
		m.folderID = models.RootFolderID
		m.page = 1
	}
	m.mu.Unlock()

	metrics.SetFolderTreeSize(tree.Count())
	m.bus.PublishFolders(tree.Count(), len(tree.Detached()))

	if err := m.loadPage(ctx); err != nil {
		return err
	}

	stats, err := m.backend.GetStats(ctx, m.sess)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	m.list.SetStats(*stats)
	return nil
}

// loadPage fetches the media page for the current query.
func (m *Manager) loadPage(ctx context.Context) error {
	m.mu.Lock()
	q := m.queryLocked()
	m.mu.Unlock()

	m.list.SetLoading(true)
	page, err := m.backend.ListMedia(ctx, m.sess, q)
	if err != nil {
		m.list.SetError(err)
		return fmt.Errorf("failed to load media: %w", err)
	}
	stats := m.list.Stats()
	m.list.SetPage(q.FolderID, page)
	if page.Stats == (models.MediaStats{}) {
		m.list.SetStats(stats)
	}
	return nil
}

// mutated records a successful mutation and re-fetches. Called only after
// the mutating request has returned. A failed re-fetch is reported on the
// bus and the log but not returned: the mutation itself stands, and the
// view is stale until the next refresh.
func (m *Manager) mutated(ctx context.Context, reason string) {
	m.mu.Lock()
	m.refreshCount++
	m.mu.Unlock()
	_ = m.refresh(ctx, reason)
}

// SelectFolder shows folder id from page 1 and expands its ancestors.
func (m *Manager) SelectFolder(ctx context.Context, id string) error {
	if id == "" {
		id = models.RootFolderID
	}
	m.mu.Lock()
	tree := m.tree
	if _, ok := tree.Find(id); !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownFolder, id)
	}
	m.folderID = id
	m.page = 1
	m.mu.Unlock()

	if err := foldertree.Reveal(tree, m.expand, id); err != nil {
		m.logger.Warn().Err(err).Str("folder", id).Msg("cannot reveal folder")
	}
	m.list.ClearSelection()
	m.bus.PublishSelection("", id)
	return m.reload(ctx)
}

// SetPage moves to page n (1-based) and fetches it.
func (m *Manager) SetPage(ctx context.Context, n int) error {
	if n < 1 {
		n = 1
	}
	m.mu.Lock()
	m.page = n
	m.mu.Unlock()
	return m.reload(ctx)
}

// NextPage moves forward when another page exists.
func (m *Manager) NextPage(ctx context.Context) error {
	p := m.list.Pagination()
	if !p.HasNext() {
		return nil
	}
	return m.SetPage(ctx, p.CurrentPage+1)
}

// PrevPage moves back when not on the first page.
func (m *Manager) PrevPage(ctx context.Context) error {
	p := m.list.Pagination()
	if !p.HasPrev() {
		return nil
	}
	return m.SetPage(ctx, p.CurrentPage-1)
}

// SetSearch filters by free text and returns to page 1.
func (m *Manager) SetSearch(ctx context.Context, search string) error {
	m.mu.Lock()
	m.search = search
	m.page = 1
	m.mu.Unlock()
	return m.reload(ctx)
}

// SetType filters by media type ("" for all) and returns to page 1.
func (m *Manager) SetType(ctx context.Context, t models.MediaType) error {
	if t != "" && !t.Valid() {
		return fmt.Errorf("unknown media type %q", t)
	}
	m.mu.Lock()
	m.mediaType = t
	m.page = 1
	m.mu.Unlock()
	return m.reload(ctx)
}

// SetSort changes the server-side ordering and re-fetches.
func (m *Manager) SetSort(ctx context.Context, sortBy, sortOrder string) error {
	m.list.SetSort(sortBy, sortOrder)
	return m.reload(ctx)
}

// SetView switches grid/list rendering; no fetch needed.
func (m *Manager) SetView(v state.ViewMode) {
	m.list.SetView(v)
}

func (m *Manager) reload(ctx context.Context) error {
	if err := m.loadPage(ctx); err != nil {
		m.fail("Could not load media", err)
		return err
	}
	return nil
}

// SelectItem selects a visible media item.
func (m *Manager) SelectItem(id string) bool {
	return m.list.Select(id)
}

// Details opens the details panel for a visible item.
func (m *Manager) Details(id string) (*Details, error) {
	item, ok := m.list.FindByID(id)
	if !ok {
		return nil, fmt.Errorf("media %s is not on the current page", id)
	}
	return NewDetails(item, m), nil
}

// CreateFolder creates name under parentID ("" for the selected folder).
func (m *Manager) CreateFolder(ctx context.Context, name, parentID string) (*models.Folder, error) {
	name, err := foldertree.ValidateName(name)
	if err != nil {
		return nil, err
	}
	if parentID == "" {
		parentID = m.SelectedFolder()
	}
	f, err := m.backend.CreateFolder(ctx, m.sess, name, parentID)
	if err != nil {
		m.fail("Could not create folder", err)
		return nil, err
	}
	m.notify("Folder created", f.Name)
	m.mutated(ctx, "create_folder")
	return f, nil
}

// BeginRename starts a rename of folder id.
func (m *Manager) BeginRename(id string) (*foldertree.Action, error) {
	if err := m.checkFolder(id); err != nil {
		return nil, err
	}
	return foldertree.NewAction(foldertree.ActionRename, id)
}

// CommitRename finishes a rename started with BeginRename. The action is
// consumed only once the new name is valid.
func (m *Manager) CommitRename(ctx context.Context, action *foldertree.Action, name string) (*models.Folder, error) {
	name, err := foldertree.ValidateName(name)
	if err != nil {
		return nil, err
	}
	if action != nil && action.Kind != foldertree.ActionRename {
		return nil, fmt.Errorf("cannot rename with a %s action", action.Kind)
	}
	id, err := action.Consume()
	if err != nil {
		return nil, err
	}
	f, err := m.backend.RenameFolder(ctx, m.sess, id, name)
	if err != nil {
		m.fail("Could not rename folder", err)
		return nil, err
	}
	m.notify("Folder renamed", f.Name)
	m.mutated(ctx, "rename_folder")
	return f, nil
}

// RenameFolder renames folder id in one step.
func (m *Manager) RenameFolder(ctx context.Context, id, name string) (*models.Folder, error) {
	a, err := m.BeginRename(id)
	if err != nil {
		return nil, err
	}
	return m.CommitRename(ctx, a, name)
}

// BeginDelete starts a delete of folder id.
func (m *Manager) BeginDelete(id string) (*foldertree.Action, error) {
	if err := m.checkFolder(id); err != nil {
		return nil, err
	}
	return foldertree.NewAction(foldertree.ActionDelete, id)
}

// CommitDelete deletes the folder of a BeginDelete action. If it was the
// selected folder, selection moves to its parent. What happens to its
// children is up to the backend; the tree is re-fetched either way.
func (m *Manager) CommitDelete(ctx context.Context, action *foldertree.Action) error {
	if action != nil && action.Kind != foldertree.ActionDelete {
		return fmt.Errorf("cannot delete with a %s action", action.Kind)
	}
	id, err := action.Consume()
	if err != nil {
		return err
	}

	m.mu.Lock()
	parentID := models.RootFolderID
	if n, ok := m.tree.Find(id); ok && n.Parent() != nil {
		parentID = n.Parent().ID
	}
	m.mu.Unlock()

	if err := m.backend.DeleteFolder(ctx, m.sess, id); err != nil {
		m.fail("Could not delete folder", err)
		return err
	}

	m.mu.Lock()
	if m.folderID == id {
		m.folderID = parentID
		m.page = 1
	}
	m.mu.Unlock()

	m.notify("Folder deleted", id)
	m.mutated(ctx, "delete_folder")
	return nil
}

// DeleteFolder deletes folder id in one step.
func (m *Manager) DeleteFolder(ctx context.Context, id string) error {
	a, err := m.BeginDelete(id)
	if err != nil {
		return err
	}
	return m.CommitDelete(ctx, a)
}

func (m *Manager) checkFolder(id string) error {
	if id == "" || id == models.RootFolderID {
		return foldertree.ErrRootTarget
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tree.Find(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFolder, id)
	}
	return nil
}

// UpdateMedia applies a partial update and re-fetches. Details.Save and
// Details.MoveTo both come through here.
func (m *Manager) UpdateMedia(ctx context.Context, id string, u models.MediaUpdate) (*models.MediaItem, error) {
	item, err := m.backend.UpdateMedia(ctx, m.sess, id, u)
	if err != nil {
		m.fail("Could not update media", err)
		return nil, err
	}
	reason := "update_media"
	if u.FolderID != nil && u.Name == nil && u.Tags == nil && u.IsPinned == nil && u.IsPublic == nil {
		reason = "move_media"
	}
	m.mutated(ctx, reason)
	return item, nil
}

// MoveMedia moves item id to folderID.
func (m *Manager) MoveMedia(ctx context.Context, id, folderID string) (*models.MediaItem, error) {
	if folderID == "" {
		folderID = models.RootFolderID
	}
	return m.UpdateMedia(ctx, id, models.MediaUpdate{FolderID: &folderID})
}

// DeleteMedia deletes item id, clearing the selection if it was selected.
func (m *Manager) DeleteMedia(ctx context.Context, id string) error {
	if err := m.backend.DeleteMedia(ctx, m.sess, id); err != nil {
		m.fail("Could not delete media", err)
		return err
	}
	if m.list.SelectedID() == id {
		m.list.ClearSelection()
	}
	m.notify("Media deleted", id)
	m.mutated(ctx, "delete_media")
	return nil
}

// EnableUploads attaches an uploader that sends files through provider and
// persists each completed upload as a media record.
func (m *Manager) EnableUploads(provider cloud.Provider, opts upload.Options) *upload.Uploader {
	if opts.EventBus == nil {
		opts.EventBus = m.bus
	}
	if opts.Logger == nil {
		opts.Logger = m.logger
	}
	var u *upload.Uploader
	userComplete := opts.OnComplete
	opts.OnComplete = func(ctx context.Context, c upload.Candidate) {
		if userComplete != nil {
			userComplete(ctx, c)
		}
		item, err := m.HandleUploadComplete(ctx, c)
		if err != nil {
			return
		}
		if err := u.MarkPersisted(c.ID, item.ID); err != nil {
			m.logger.Warn().Err(err).Str("name", c.Name).Msg("cannot mark upload persisted")
		}
	}
	u = upload.New(provider, opts)

	m.mu.Lock()
	m.uploader = u
	m.mu.Unlock()
	return u
}

// Uploader returns the attached uploader, or nil.
func (m *Manager) Uploader() *upload.Uploader {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploader
}

// Upload queues paths into the selected folder and uploads everything
// pending. It returns the number of files uploaded.
func (m *Manager) Upload(ctx context.Context, paths ...string) (int, error) {
	m.mu.Lock()
	u := m.uploader
	folderID := m.folderID
	m.mu.Unlock()
	if u == nil {
		return 0, ErrNoUploadHandler
	}
	u.Add(folderID, paths...)
	return u.UploadAll(ctx)
}

// HandleUploadComplete creates the media record for an uploaded candidate
// in the folder that was selected when the file was added.
func (m *Manager) HandleUploadComplete(ctx context.Context, c upload.Candidate) (*models.MediaItem, error) {
	if !c.Uploaded || c.Result == nil || c.Result.URL == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotUploaded, c.Name)
	}
	if c.MediaID != "" {
		return nil, fmt.Errorf("candidate %s is already persisted as %s", c.Name, c.MediaID)
	}

	size := c.Size
	if c.Result.Bytes > 0 {
		size = c.Result.Bytes
	}
	item, err := m.backend.CreateMedia(ctx, m.sess, models.MediaCreate{
		Name:     c.Name,
		URL:      c.Result.URL,
		Type:     c.Type,
		Size:     size,
		FolderID: c.FolderID,
		Tags:     []string{},
		PublicID: c.Result.PublicID,
		Format:   c.Result.Format,
		Width:    c.Result.Width,
		Height:   c.Result.Height,
	})
	if err != nil {
		m.fail("Could not save uploaded file", err)
		return nil, err
	}
	m.notify(notify.UploadSavedTitle, item.Name)
	if m.opts.OnUploadPersisted != nil {
		m.opts.OnUploadPersisted(*item)
	}
	m.mutated(ctx, "upload")
	return item, nil
}

func (m *Manager) fail(title string, err error) {
	m.logger.Error().Err(err).Msg(title)
	m.bus.Notify(events.ErrorLevel, title, err.Error(), err)
}

func (m *Manager) notify(title, msg string) {
	m.logger.Info().Str("detail", msg).Msg(title)
	m.bus.Notify(events.InfoLevel, title, msg, nil)
}
