package api

import (
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"strings"

	"github.com/distrohub/mediadesk/internal/models"
	"github.com/distrohub/mediadesk/internal/session"
)

// ListFolders returns every folder of the session user as a flat list.
// The backend answers with a JSON array; an {folders: [...]} envelope is
// accepted too.
func (c *Client) ListFolders(ctx context.Context, sess *session.Session) ([]models.Folder, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.doJSON(ctx, sess, "list_folders", nethttp.MethodGet, userPath(foldersPrefix, sess.UserID), nil, nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}

	folders := []models.Folder{}
	if len(raw) == 0 {
		return folders, nil
	}
	if raw[0] != '[' {
		var env map[string]json.RawMessage
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("failed to decode folders: %w", err)
		}
		for _, key := range []string{"folders", "items", "data"} {
			if v, ok := env[key]; ok {
				raw = v
				break
			}
		}
	}
	if err := json.Unmarshal(raw, &folders); err != nil {
		return nil, fmt.Errorf("failed to decode folders: %w", err)
	}
	if folders == nil {
		folders = []models.Folder{}
	}
	return folders, nil
}

// CreateFolder creates a folder under parentID ("" or "root" for top level).
func (c *Client) CreateFolder(ctx context.Context, sess *session.Session, name, parentID string) (*models.Folder, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if parentID == "" {
		parentID = models.RootFolderID
	}
	body := models.FolderCreate{Name: name, ParentID: parentID}

	var raw json.RawMessage
	if err := c.doJSON(ctx, sess, "create_folder", nethttp.MethodPost, userPath(foldersPrefix, sess.UserID), nil, body, &raw); err != nil {
		return nil, fmt.Errorf("failed to create folder %q: %w", name, err)
	}
	var folder models.Folder
	if err := decodeEntity(raw, &folder, "folder", "data"); err != nil {
		return nil, fmt.Errorf("failed to decode created folder: %w", err)
	}
	return &folder, nil
}

// RenameFolder changes only the folder's name.
func (c *Client) RenameFolder(ctx context.Context, sess *session.Session, id, name string) (*models.Folder, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ErrMissingID
	}
	name = strings.TrimSpace(name)

	var raw json.RawMessage
	if err := c.doJSON(ctx, sess, "rename_folder", nethttp.MethodPut, userPath(foldersPrefix, sess.UserID, id), nil, models.FolderUpdate{Name: name}, &raw); err != nil {
		return nil, fmt.Errorf("failed to rename folder %s: %w", id, err)
	}
	var folder models.Folder
	if err := decodeEntity(raw, &folder, "folder", "data"); err != nil {
		return nil, fmt.Errorf("failed to decode renamed folder: %w", err)
	}
	if folder.ID == "" {
		folder.ID = id
	}
	return &folder, nil
}

// DeleteFolder deletes a folder. What happens to its children and media is
// up to the backend; callers re-fetch instead of assuming.
func (c *Client) DeleteFolder(ctx context.Context, sess *session.Session, id string) error {
	if err := sess.Validate(); err != nil {
		return err
	}
	if id == "" || id == models.RootFolderID {
		return ErrMissingID
	}
	if err := c.doJSON(ctx, sess, "delete_folder", nethttp.MethodDelete, userPath(foldersPrefix, sess.UserID, id), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete folder %s: %w", id, err)
	}
	return nil
}
