package manager

import (
	"context"
	"strings"
	"sync"

	"github.com/distrohub/mediadesk/internal/models"
	"github.com/distrohub/mediadesk/internal/util/tags"
)

// Updater applies partial media updates. *Manager implements it, so saves
// made through the panel trigger the manager's re-fetch.
type Updater interface {
	UpdateMedia(ctx context.Context, id string, u models.MediaUpdate) (*models.MediaItem, error)
}

// Details is the view/edit panel of one media item. Edits are staged in a
// draft until Save.
type Details struct {
	updater Updater

	mu      sync.Mutex
	item    models.MediaItem
	editing bool

	name     string
	folderID string
	pinned   bool
	public   bool
	tags     *tags.Set
}

// NewDetails opens item in view mode.
func NewDetails(item models.MediaItem, updater Updater) *Details {
	d := &Details{updater: updater}
	d.reset(item)
	return d
}

func (d *Details) reset(item models.MediaItem) {
	d.item = item
	d.editing = false
	d.name = item.Name
	d.folderID = item.FolderID
	d.pinned = item.IsPinned
	d.public = item.IsPublic
	d.tags = tags.NewSet(item.Tags...)
}

// Item returns the item as last saved.
func (d *Details) Item() models.MediaItem {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.item
}

// Edit switches to edit mode.
func (d *Details) Edit() {
	d.mu.Lock()
	d.editing = true
	d.mu.Unlock()
}

// Editing reports whether the panel is in edit mode.
func (d *Details) Editing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.editing
}

func (d *Details) SetName(name string) {
	d.mu.Lock()
	d.editing = true
	d.name = strings.TrimSpace(name)
	d.mu.Unlock()
}

func (d *Details) SetFolder(folderID string) {
	if folderID == "" {
		folderID = models.RootFolderID
	}
	d.mu.Lock()
	d.editing = true
	d.folderID = folderID
	d.mu.Unlock()
}

func (d *Details) SetPinned(pinned bool) {
	d.mu.Lock()
	d.editing = true
	d.pinned = pinned
	d.mu.Unlock()
}

func (d *Details) SetPublic(public bool) {
	d.mu.Lock()
	d.editing = true
	d.public = public
	d.mu.Unlock()
}

// AddTag adds tag to the draft; adding a present tag changes nothing.
func (d *Details) AddTag(tag string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.editing = true
	return d.tags.Add(tag)
}

// RemoveTag removes tag from the draft; removing an absent tag changes
// nothing.
func (d *Details) RemoveTag(tag string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.editing = true
	return d.tags.Remove(tag)
}

// Draft returns the item with staged edits applied.
func (d *Details) Draft() models.MediaItem {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.changesLocked().Apply(d.item)
}

// Changes returns only the fields that differ from the saved item.
func (d *Details) Changes() models.MediaUpdate {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.changesLocked()
}

func (d *Details) changesLocked() models.MediaUpdate {
	var u models.MediaUpdate
	if d.name != "" && d.name != d.item.Name {
		name := d.name
		u.Name = &name
	}
	if d.folderID != d.item.FolderID {
		folder := d.folderID
		u.FolderID = &folder
	}
	if d.pinned != d.item.IsPinned {
		pinned := d.pinned
		u.IsPinned = &pinned
	}
	if d.public != d.item.IsPublic {
		public := d.public
		u.IsPublic = &public
	}
	if !d.tags.Equal(tags.NormalizeTags(d.item.Tags)) {
		t := d.tags.Slice()
		u.Tags = &t
	}
	return u
}

// Save sends the staged changes and returns to view mode. With nothing
// changed no request is made.
func (d *Details) Save(ctx context.Context) (models.MediaItem, error) {
	d.mu.Lock()
	u := d.changesLocked()
	id := d.item.ID
	if u.IsEmpty() {
		d.editing = false
		item := d.item
		d.mu.Unlock()
		return item, nil
	}
	d.mu.Unlock()

	return d.apply(ctx, id, u)
}

// MoveTo moves the item to folderID through the same update contract,
// sending the folder field only. Staged edits are kept.
func (d *Details) MoveTo(ctx context.Context, folderID string) (models.MediaItem, error) {
	if folderID == "" {
		folderID = models.RootFolderID
	}
	d.mu.Lock()
	id := d.item.ID
	current := d.item.FolderID
	d.mu.Unlock()
	if folderID == current {
		return d.Item(), nil
	}

	updated, err := d.updater.UpdateMedia(ctx, id, models.MediaUpdate{FolderID: &folderID})
	if err != nil {
		return d.Item(), err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	staged := d.folderID != d.item.FolderID
	d.item = merged(d.item, updated, models.MediaUpdate{FolderID: &folderID})
	if !staged {
		d.folderID = d.item.FolderID
	}
	return d.item, nil
}

func (d *Details) apply(ctx context.Context, id string, u models.MediaUpdate) (models.MediaItem, error) {
	updated, err := d.updater.UpdateMedia(ctx, id, u)
	if err != nil {
		// Keep the draft so the user can retry.
		return d.Item(), err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset(merged(d.item, updated, u))
	return d.item, nil
}

// merged prefers the backend's copy and falls back to applying u locally
// when the response was empty.
func merged(old models.MediaItem, updated *models.MediaItem, u models.MediaUpdate) models.MediaItem {
	if updated != nil && updated.ID != "" && updated.Name != "" {
		return *updated
	}
	return u.Apply(old)
}

// Cancel discards the draft and returns to view mode.
func (d *Details) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset(d.item)
}
