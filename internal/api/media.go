package api

import (
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"

	"github.com/distrohub/mediadesk/internal/models"
	"github.com/distrohub/mediadesk/internal/session"
)

const (
	mediaPrefix   = "/media-manager/media"
	foldersPrefix = "/media-manager/folders"
	statsPrefix   = "/media-manager/stats"
)

// ListMedia returns one page of the session user's library.
func (c *Client) ListMedia(ctx context.Context, sess *session.Session, q models.MediaQuery) (*models.MediaPage, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	var page models.MediaPage
	if err := c.doJSON(ctx, sess, "list_media", nethttp.MethodGet, userPath(mediaPrefix, sess.UserID), q.Values(), nil, &page); err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	page.Normalize(q.Page)
	return &page, nil
}

// CreateMedia persists a media record, typically after a hosted upload.
func (c *Client) CreateMedia(ctx context.Context, sess *session.Session, body models.MediaCreate) (*models.MediaItem, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	if body.FolderID == "" {
		body.FolderID = models.RootFolderID
	}
	var raw json.RawMessage
	if err := c.doJSON(ctx, sess, "create_media", nethttp.MethodPost, userPath(mediaPrefix, sess.UserID), nil, body, &raw); err != nil {
		return nil, fmt.Errorf("failed to create media %q: %w", body.Name, err)
	}
	var item models.MediaItem
	if err := decodeEntity(raw, &item, "media", "item", "data"); err != nil {
		return nil, fmt.Errorf("failed to decode created media: %w", err)
	}
	return &item, nil
}

// UpdateMedia applies a partial update. Only the non-nil fields of u are
// sent; it backs both the details save and the move-to-folder action.
func (c *Client) UpdateMedia(ctx context.Context, sess *session.Session, id string, u models.MediaUpdate) (*models.MediaItem, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ErrMissingID
	}
	if u.IsEmpty() {
		return nil, ErrEmptyUpdate
	}
	var raw json.RawMessage
	if err := c.doJSON(ctx, sess, "update_media", nethttp.MethodPut, userPath(mediaPrefix, sess.UserID, id), nil, u, &raw); err != nil {
		return nil, fmt.Errorf("failed to update media %s: %w", id, err)
	}
	var item models.MediaItem
	if err := decodeEntity(raw, &item, "media", "item", "data"); err != nil {
		return nil, fmt.Errorf("failed to decode updated media: %w", err)
	}
	if item.ID == "" {
		item.ID = id
	}
	return &item, nil
}

// DeleteMedia removes a media record. The hosted file is left to the backend.
func (c *Client) DeleteMedia(ctx context.Context, sess *session.Session, id string) error {
	if err := sess.Validate(); err != nil {
		return err
	}
	if id == "" {
		return ErrMissingID
	}
	if err := c.doJSON(ctx, sess, "delete_media", nethttp.MethodDelete, userPath(mediaPrefix, sess.UserID, id), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete media %s: %w", id, err)
	}
	return nil
}

// GetStats returns the library summary of the session user.
func (c *Client) GetStats(ctx context.Context, sess *session.Session) (*models.MediaStats, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.doJSON(ctx, sess, "get_stats", nethttp.MethodGet, userPath(statsPrefix, sess.UserID), nil, nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to get media stats: %w", err)
	}
	var stats models.MediaStats
	if err := decodeEntity(raw, &stats, "stats", "data"); err != nil {
		return nil, fmt.Errorf("failed to decode media stats: %w", err)
	}
	return &stats, nil
}

// decodeEntity decodes raw into out, unwrapping the first envelope key
// that holds an object. Bare objects decode directly.
func decodeEntity(raw json.RawMessage, out interface{}, envelopeKeys ...string) error {
	if len(raw) == 0 {
		return nil
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err == nil {
		for _, key := range envelopeKeys {
			if v, ok := env[key]; ok && len(v) > 0 && v[0] == '{' {
				return json.Unmarshal(v, out)
			}
		}
	}
	return json.Unmarshal(raw, out)
}
