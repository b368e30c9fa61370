package models

import (
	"encoding/json"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// MediaType buckets media for filtering and display.
type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaDocument MediaType = "document"
	MediaOther    MediaType = "other"
)

// Valid reports whether t is one of the known buckets.
func (t MediaType) Valid() bool {
	switch t {
	case MediaImage, MediaVideo, MediaDocument, MediaOther:
		return true
	}
	return false
}

var documentMIMEs = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/rtf":    true,
	"text/rtf":           true,
	"application/vnd.ms-excel":      true,
	"application/vnd.ms-powerpoint": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"application/vnd.oasis.opendocument.text":                                  true,
	"application/vnd.oasis.opendocument.spreadsheet":                           true,
	"text/plain": true,
	"text/csv":   true,
}

var extensionTypes = map[string]MediaType{
	".jpg": MediaImage, ".jpeg": MediaImage, ".png": MediaImage, ".gif": MediaImage,
	".webp": MediaImage, ".svg": MediaImage, ".bmp": MediaImage, ".heic": MediaImage,
	".mp4": MediaVideo, ".mov": MediaVideo, ".avi": MediaVideo, ".mkv": MediaVideo,
	".webm": MediaVideo, ".m4v": MediaVideo,
	".pdf": MediaDocument, ".doc": MediaDocument, ".docx": MediaDocument,
	".xls": MediaDocument, ".xlsx": MediaDocument, ".ppt": MediaDocument,
	".pptx": MediaDocument, ".txt": MediaDocument, ".rtf": MediaDocument,
	".csv": MediaDocument, ".odt": MediaDocument, ".ods": MediaDocument,
}

// ClassifyMediaType buckets a file by MIME prefix first, then by known
// document MIME types, then by extension.
func ClassifyMediaType(name, mime string) MediaType {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	switch {
	case strings.HasPrefix(mime, "image/"):
		return MediaImage
	case strings.HasPrefix(mime, "video/"):
		return MediaVideo
	case documentMIMEs[mime]:
		return MediaDocument
	}

	if t, ok := extensionTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return MediaOther
}

// MediaItem is a persisted media record owned by the backend.
type MediaItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Type      MediaType `json:"type"`
	Size      int64     `json:"size"`
	FolderID  string    `json:"folderId"`
	Tags      []string  `json:"tags"`
	IsPinned  bool      `json:"isPinned"`
	IsPublic  bool      `json:"isPublic"`
	PublicID  string    `json:"publicId,omitempty"`
	Format    string    `json:"format,omitempty"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// UnmarshalJSON accepts either "id" or "_id" and normalizes an empty or
// null folder to the root sentinel.
func (m *MediaItem) UnmarshalJSON(data []byte) error {
	type alias MediaItem
	aux := struct {
		*alias
		MongoID  string  `json:"_id"`
		FolderID *string `json:"folderId"`
	}{alias: (*alias)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if m.ID == "" {
		m.ID = aux.MongoID
	}
	m.FolderID = NormalizeFolderID(aux.FolderID)
	if !m.Type.Valid() {
		m.Type = ClassifyMediaType(m.Name, "")
	}
	return nil
}

// HasTag reports whether tag is attached to the item.
func (m *MediaItem) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// MediaCreate is the body for direct media record creation.
type MediaCreate struct {
	Name     string    `json:"name"`
	URL      string    `json:"url"`
	Type     MediaType `json:"type"`
	Size     int64     `json:"size"`
	FolderID string    `json:"folderId"`
	Tags     []string  `json:"tags"`
	IsPublic bool      `json:"isPublic"`
	PublicID string    `json:"publicId,omitempty"`
	Format   string    `json:"format,omitempty"`
	Width    int       `json:"width,omitempty"`
	Height   int       `json:"height,omitempty"`
}

// MediaUpdate is the single partial-update contract for media records.
// Nil fields are omitted and left unchanged by the backend.
type MediaUpdate struct {
	Name     *string   `json:"name,omitempty"`
	FolderID *string   `json:"folderId,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
	IsPinned *bool     `json:"isPinned,omitempty"`
	IsPublic *bool     `json:"isPublic,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u MediaUpdate) IsEmpty() bool {
	return u.Name == nil && u.FolderID == nil && u.Tags == nil &&
		u.IsPinned == nil && u.IsPublic == nil
}

// Apply returns a copy of item with the update's fields applied.
func (u MediaUpdate) Apply(item MediaItem) MediaItem {
	if u.Name != nil {
		item.Name = *u.Name
	}
	if u.FolderID != nil {
		item.FolderID = *u.FolderID
	}
	if u.Tags != nil {
		item.Tags = append([]string(nil), (*u.Tags)...)
	}
	if u.IsPinned != nil {
		item.IsPinned = *u.IsPinned
	}
	if u.IsPublic != nil {
		item.IsPublic = *u.IsPublic
	}
	return item
}

// Sort orders accepted by the media list endpoint.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// MediaQuery selects one page of the media library.
type MediaQuery struct {
	Page      int
	Limit     int
	FolderID  string
	SortBy    string
	SortOrder string
	Search    string
	Type      MediaType
}

// Values encodes the query for GET /media-manager/media/{userId}.
// Zero fields are omitted.
func (q MediaQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.FolderID != "" {
		v.Set("folder", q.FolderID)
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		v.Set("sortOrder", q.SortOrder)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	if q.Type != "" {
		v.Set("type", string(q.Type))
	}
	return v
}

// MediaStats summarizes the library of one user.
type MediaStats struct {
	TotalFiles   int   `json:"totalFiles"`
	TotalSize    int64 `json:"totalSize"`
	Images       int   `json:"images"`
	Videos       int   `json:"videos"`
	Documents    int   `json:"documents"`
	Others       int   `json:"others"`
	TotalFolders int   `json:"totalFolders"`
}

// MediaPage is one page of the media library.
type MediaPage = Page[MediaItem, MediaStats]
