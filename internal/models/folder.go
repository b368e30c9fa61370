package models

import (
	"encoding/json"
	"strings"
)

// RootFolderID is the sentinel parent of top-level folders. The backend
// sends it as "root", empty or null; all three are normalized to it.
const RootFolderID = "root"

// Folder is a node of the media folder hierarchy.
type Folder struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ParentID  string `json:"parentId"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// UnmarshalJSON accepts "_id" and a null parentId.
func (f *Folder) UnmarshalJSON(data []byte) error {
	type alias Folder
	aux := struct {
		*alias
		MongoID  string  `json:"_id"`
		ParentID *string `json:"parentId"`
	}{alias: (*alias)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if f.ID == "" {
		f.ID = aux.MongoID
	}
	f.ParentID = NormalizeFolderID(aux.ParentID)
	return nil
}

// IsTopLevel reports whether the folder hangs directly off the root.
func (f Folder) IsTopLevel() bool {
	return f.ParentID == RootFolderID
}

// NormalizeFolderID maps nil and blank ids to RootFolderID.
func NormalizeFolderID(id *string) string {
	if id == nil {
		return RootFolderID
	}
	s := strings.TrimSpace(*id)
	if s == "" || s == "null" {
		return RootFolderID
	}
	return s
}

// FolderCreate is the body for POST /media-manager/folders/{userId}.
type FolderCreate struct {
	Name     string `json:"name"`
	ParentID string `json:"parentId"`
}

// FolderUpdate is the body for PUT /media-manager/folders/{userId}/{folderId}.
type FolderUpdate struct {
	Name string `json:"name"`
}
