package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestClassifyMediaType(t *testing.T) {
	tests := []struct {
		name string
		mime string
		want MediaType
	}{
		{"photo.bin", "image/png", MediaImage},
		{"clip", "video/mp4", MediaVideo},
		{"x", "application/pdf", MediaDocument},
		{"x", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", MediaDocument},
		{"notes", "text/plain; charset=utf-8", MediaDocument},
		{"slides.PPTX", "", MediaDocument},
		{"holiday.JPG", "application/octet-stream", MediaImage},
		{"movie.mov", "", MediaVideo},
		{"archive.zip", "application/zip", MediaOther},
		{"noext", "", MediaOther},
	}

	for _, tt := range tests {
		if got := ClassifyMediaType(tt.name, tt.mime); got != tt.want {
			t.Errorf("ClassifyMediaType(%q, %q) = %s, want %s", tt.name, tt.mime, got, tt.want)
		}
	}
}

func TestMediaItemUnmarshal(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantID     string
		wantFolder string
		wantType   MediaType
	}{
		{"id field", `{"id":"m1","name":"a.png","type":"image","folderId":"f1"}`, "m1", "f1", MediaImage},
		{"_id field", `{"_id":"m2","name":"b.mp4","type":"video","folderId":"f2"}`, "m2", "f2", MediaVideo},
		{"null folder", `{"id":"m3","name":"c.pdf","type":"document","folderId":null}`, "m3", RootFolderID, MediaDocument},
		{"missing folder", `{"id":"m4","name":"d.txt","type":"document"}`, "m4", RootFolderID, MediaDocument},
		{"unknown type", `{"id":"m5","name":"e.gif","type":"sticker"}`, "m5", RootFolderID, MediaImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m MediaItem
			if err := json.Unmarshal([]byte(tt.body), &m); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if m.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", m.ID, tt.wantID)
			}
			if m.FolderID != tt.wantFolder {
				t.Errorf("FolderID = %q, want %q", m.FolderID, tt.wantFolder)
			}
			if m.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", m.Type, tt.wantType)
			}
		})
	}
}

func TestFolderUnmarshal(t *testing.T) {
	var folders []Folder
	body := `[{"_id":"a","name":"A","parentId":null},{"id":"b","name":"B","parentId":"a"},{"id":"c","name":"C","parentId":""}]`
	if err := json.Unmarshal([]byte(body), &folders); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if folders[0].ID != "a" || !folders[0].IsTopLevel() {
		t.Errorf("folders[0] = %+v, want top-level id a", folders[0])
	}
	if folders[1].ParentID != "a" {
		t.Errorf("folders[1].ParentID = %q, want a", folders[1].ParentID)
	}
	if folders[2].ParentID != RootFolderID {
		t.Errorf("folders[2].ParentID = %q, want root", folders[2].ParentID)
	}
}

func TestMediaUpdateOmitsUnsetFields(t *testing.T) {
	folder := "f9"
	u := MediaUpdate{FolderID: &folder}

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"folderId":"f9"}` {
		t.Errorf("Marshal = %s, want only folderId", data)
	}
	if u.IsEmpty() {
		t.Error("IsEmpty() = true for an update with a folder")
	}
	if !(MediaUpdate{}).IsEmpty() {
		t.Error("IsEmpty() = false for a zero update")
	}

	// An explicit empty tag list is sent, clearing tags.
	empty := []string{}
	data, _ = json.Marshal(MediaUpdate{Tags: &empty})
	if string(data) != `{"tags":[]}` {
		t.Errorf("Marshal = %s, want empty tags", data)
	}
}

func TestMediaUpdateApply(t *testing.T) {
	name := "renamed.png"
	pinned := true
	item := MediaItem{ID: "m1", Name: "old.png", FolderID: "root", Tags: []string{"a"}}

	got := MediaUpdate{Name: &name, IsPinned: &pinned}.Apply(item)
	if got.Name != name || !got.IsPinned {
		t.Errorf("Apply() = %+v", got)
	}
	if got.FolderID != "root" || len(got.Tags) != 1 {
		t.Errorf("Apply() changed unset fields: %+v", got)
	}
	if item.Name != "old.png" {
		t.Error("Apply() mutated its input")
	}
}

func TestMediaQueryValues(t *testing.T) {
	q := MediaQuery{
		Page:      2,
		Limit:     20,
		FolderID:  "f1",
		SortBy:    "name",
		SortOrder: SortAsc,
		Search:    "  logo ",
		Type:      MediaImage,
	}
	got := q.Values().Encode()
	want := "folder=f1&limit=20&page=2&search=logo&sortBy=name&sortOrder=asc&type=image"
	if got != want {
		t.Errorf("Values() = %s, want %s", got, want)
	}

	if enc := (MediaQuery{Search: "   "}).Values().Encode(); enc != "" {
		t.Errorf("Values() for blank query = %q, want empty", enc)
	}
}

func TestPageNormalize(t *testing.T) {
	var p MediaPage
	if err := json.NewDecoder(strings.NewReader(`{"items":[{"id":"m1","name":"a.png"}]}`)).Decode(&p); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	p.Normalize(3)

	if p.Pagination.CurrentPage != 3 {
		t.Errorf("CurrentPage = %d, want 3", p.Pagination.CurrentPage)
	}
	if p.Pagination.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", p.Pagination.TotalPages)
	}
	if p.Pagination.HasNext() {
		t.Error("HasNext() = true on the last page")
	}
	if !p.Pagination.HasPrev() {
		t.Error("HasPrev() = false on page 3")
	}

	var empty MediaPage
	empty.Normalize(0)
	if empty.Items == nil || empty.Pagination.CurrentPage != 1 {
		t.Errorf("Normalize on empty page = %+v", empty)
	}
}
