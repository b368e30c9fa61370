package manager

import (
	"context"
	"errors"
	"testing"

	"github.com/distrohub/mediadesk/internal/models"
)

type recordingUpdater struct {
	updates []models.MediaUpdate
	err     error
	reply   *models.MediaItem
}

func (r *recordingUpdater) UpdateMedia(ctx context.Context, id string, u models.MediaUpdate) (*models.MediaItem, error) {
	r.updates = append(r.updates, u)
	if r.err != nil {
		return nil, r.err
	}
	return r.reply, nil
}

func sampleItem() models.MediaItem {
	return models.MediaItem{ID: "m1", Name: "logo.png", FolderID: "root", Tags: []string{"brand"}}
}

func TestSaveSendsOnlyChangedFields(t *testing.T) {
	up := &recordingUpdater{}
	d := NewDetails(sampleItem(), up)

	d.SetName("Logo.png")
	d.AddTag("brand")
	d.AddTag("2024")
	d.SetPinned(true)

	item, err := d.Save(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(up.updates) != 1 {
		t.Fatalf("updates = %d", len(up.updates))
	}
	u := up.updates[0]
	if u.Name == nil || *u.Name != "Logo.png" || u.IsPinned == nil || !*u.IsPinned {
		t.Errorf("update = %+v", u)
	}
	if u.FolderID != nil || u.IsPublic != nil {
		t.Errorf("unchanged fields sent: %+v", u)
	}
	if u.Tags == nil || len(*u.Tags) != 2 || (*u.Tags)[1] != "2024" {
		t.Errorf("tags = %v", u.Tags)
	}
	if item.Name != "Logo.png" || d.Editing() {
		t.Errorf("after save: %+v editing=%v", item, d.Editing())
	}
}

func TestSaveWithoutChangesSkipsRequest(t *testing.T) {
	up := &recordingUpdater{}
	d := NewDetails(sampleItem(), up)
	d.Edit()
	d.AddTag("brand")
	d.RemoveTag("missing")
	if _, err := d.Save(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(up.updates) != 0 {
		t.Errorf("update sent: %+v", up.updates)
	}
}

func TestTagEditsIdempotent(t *testing.T) {
	d := NewDetails(sampleItem(), &recordingUpdater{})
	if !d.AddTag("sale") || d.AddTag("sale") {
		t.Error("AddTag not idempotent")
	}
	if !d.RemoveTag("brand") || d.RemoveTag("brand") {
		t.Error("RemoveTag not idempotent")
	}
	if got := d.Draft().Tags; len(got) != 1 || got[0] != "sale" {
		t.Errorf("draft tags = %v", got)
	}
}

func TestMoveToSendsFolderOnly(t *testing.T) {
	up := &recordingUpdater{}
	d := NewDetails(sampleItem(), up)
	d.SetName("staged.png")

	item, err := d.MoveTo(context.Background(), "f2")
	if err != nil {
		t.Fatal(err)
	}
	u := up.updates[0]
	if u.FolderID == nil || *u.FolderID != "f2" || u.Name != nil || u.Tags != nil {
		t.Errorf("move update = %+v", u)
	}
	if item.FolderID != "f2" {
		t.Errorf("FolderID = %q", item.FolderID)
	}
	if d.Draft().Name != "staged.png" {
		t.Error("move discarded the staged name")
	}

	if _, err := d.MoveTo(context.Background(), "f2"); err != nil || len(up.updates) != 1 {
		t.Errorf("move to current folder sent a request")
	}
}

func TestSaveFailureKeepsDraft(t *testing.T) {
	up := &recordingUpdater{err: errors.New("409")}
	d := NewDetails(sampleItem(), up)
	d.SetPublic(true)
	if _, err := d.Save(context.Background()); err == nil {
		t.Fatal("Save succeeded")
	}
	if !d.Editing() || !d.Draft().IsPublic {
		t.Error("draft lost after failed save")
	}
	d.Cancel()
	if d.Editing() || d.Draft().IsPublic {
		t.Error("Cancel kept the draft")
	}
}

func TestSaveUsesBackendCopy(t *testing.T) {
	reply := sampleItem()
	reply.Name = "server-name.png"
	up := &recordingUpdater{reply: &reply}
	d := NewDetails(sampleItem(), up)
	d.SetName("local.png")
	item, _ := d.Save(context.Background())
	if item.Name != "server-name.png" {
		t.Errorf("Name = %q, want backend copy", item.Name)
	}
}

func TestUnnormalizedTagsAreNotAChange(t *testing.T) {
	item := sampleItem()
	item.Tags = []string{" brand", "brand", "sale "}
	up := &recordingUpdater{}
	d := NewDetails(item, up)
	d.Edit()

	if u := d.Changes(); u.Tags != nil {
		t.Errorf("stored tags reported as changed: %v", *u.Tags)
	}
	if _, err := d.Save(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(up.updates) != 0 {
		t.Errorf("update sent: %+v", up.updates)
	}
}
