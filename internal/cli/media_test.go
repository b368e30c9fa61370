package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/distrohub/mediadesk/internal/cloud"
	"github.com/distrohub/mediadesk/internal/cloud/upload"
	"github.com/distrohub/mediadesk/internal/manager"
	"github.com/distrohub/mediadesk/internal/models"
	"github.com/distrohub/mediadesk/internal/progress"
	"github.com/distrohub/mediadesk/internal/session"
	"github.com/distrohub/mediadesk/internal/state"
)

// memBackend is an in-memory library with a single flat folder list.
type memBackend struct {
	folders []models.Folder
	media   []models.MediaItem
}

func (b *memBackend) ListFolders(ctx context.Context, sess *session.Session) ([]models.Folder, error) {
	return b.folders, nil
}

func (b *memBackend) CreateFolder(ctx context.Context, sess *session.Session, name, parentID string) (*models.Folder, error) {
	f := models.Folder{ID: "f" + name, Name: name, ParentID: parentID}
	b.folders = append(b.folders, f)
	return &f, nil
}

func (b *memBackend) RenameFolder(ctx context.Context, sess *session.Session, id, name string) (*models.Folder, error) {
	return nil, errors.New("not supported")
}

func (b *memBackend) DeleteFolder(ctx context.Context, sess *session.Session, id string) error {
	return errors.New("not supported")
}

func (b *memBackend) ListMedia(ctx context.Context, sess *session.Session, q models.MediaQuery) (*models.MediaPage, error) {
	var in []models.MediaItem
	for _, m := range b.media {
		if m.FolderID == q.FolderID {
			in = append(in, m)
		}
	}
	start := (q.Page - 1) * q.Limit
	if start > len(in) {
		start = len(in)
	}
	end := start + q.Limit
	if end > len(in) {
		end = len(in)
	}
	pages := (len(in) + q.Limit - 1) / q.Limit
	return &models.MediaPage{
		Items:      append([]models.MediaItem{}, in[start:end]...),
		Pagination: models.Pagination{CurrentPage: q.Page, TotalPages: pages},
	}, nil
}

func (b *memBackend) CreateMedia(ctx context.Context, sess *session.Session, body models.MediaCreate) (*models.MediaItem, error) {
	if strings.HasPrefix(body.Name, "reject") {
		return nil, errors.New("rejected")
	}
	it := models.MediaItem{ID: "m-" + body.Name, Name: body.Name, URL: body.URL, FolderID: body.FolderID}
	b.media = append(b.media, it)
	return &it, nil
}

func (b *memBackend) UpdateMedia(ctx context.Context, sess *session.Session, id string, u models.MediaUpdate) (*models.MediaItem, error) {
	return nil, errors.New("not supported")
}

func (b *memBackend) DeleteMedia(ctx context.Context, sess *session.Session, id string) error {
	return nil
}

func (b *memBackend) GetStats(ctx context.Context, sess *session.Session) (*models.MediaStats, error) {
	return &models.MediaStats{TotalFiles: len(b.media)}, nil
}

// stubProvider fails uploads of files whose name starts with "bad".
type stubProvider struct{}

func (stubProvider) Name() string { return "stub" }

func (stubProvider) Upload(ctx context.Context, obj cloud.Object, onProgress cloud.ProgressFunc) (*cloud.UploadResult, error) {
	if strings.HasPrefix(obj.Name, "bad") {
		return nil, errors.New("provider refused")
	}
	n, err := io.Copy(io.Discard, obj.Body)
	if err != nil {
		return nil, err
	}
	return &cloud.UploadResult{URL: "https://cdn.example/" + obj.Name, Bytes: n}, nil
}

func newTestManager(t *testing.T, b *memBackend) *manager.Manager {
	t.Helper()
	sess, err := session.New("u1", "d1", "")
	if err != nil {
		t.Fatal(err)
	}
	m := manager.New(b, sess, manager.Options{PageLimit: 2})
	if err := m.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	return m
}

func writeFiles(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	var out []string
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte("data-"+n), 0o644); err != nil {
			t.Fatal(err)
		}
		out = append(out, p)
	}
	return out
}

func TestRunUploads(t *testing.T) {
	tests := []struct {
		name        string
		files       []string
		answers     []ErrorAction
		wantSaved   int
		wantAsked   int
		wantErr     bool
		wantAborted bool
	}{
		{"all succeed", []string{"a.png", "b.png"}, nil, 2, 0, false, false},
		{"continue once then again", []string{"bad1.png", "bad2.png", "c.png"}, []ErrorAction{ErrorContinueOnce, ErrorContinueOnce}, 1, 2, true, false},
		{"continue all stops asking", []string{"bad1.png", "bad2.png", "c.png"}, []ErrorAction{ErrorContinueAll}, 1, 1, true, false},
		{"abort", []string{"bad1.png", "c.png"}, []ErrorAction{ErrorAbort}, 0, 1, true, true},
		{"saved upload that backend rejects", []string{"reject.png"}, []ErrorAction{ErrorContinueOnce}, 0, 1, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &memBackend{}
			m := newTestManager(t, b)
			u := m.EnableUploads(stubProvider{}, upload.Options{KeepPersisted: true})
			paths := writeFiles(t, tt.files...)

			asked := 0
			ask := func(name string, err error) (ErrorAction, error) {
				a := tt.answers[asked]
				asked++
				return a, nil
			}
			ui := progress.NewUploadUI(len(paths))
			results, err := runUploads(context.Background(), m, u, paths, newBarSet(ui), "All Media", false, ask)
			ui.Wait()

			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, errUploadAborted) != tt.wantAborted {
				t.Errorf("aborted = %v, want %v", errors.Is(err, errUploadAborted), tt.wantAborted)
			}
			if len(results) != tt.wantSaved {
				t.Errorf("saved %d, want %d", len(results), tt.wantSaved)
			}
			if asked != tt.wantAsked {
				t.Errorf("asked %d times, want %d", asked, tt.wantAsked)
			}
			for _, r := range results {
				if r.MediaID == "" || !strings.HasPrefix(r.URL, "https://cdn.example/") {
					t.Errorf("incomplete result %+v", r)
				}
			}
		})
	}
}

func TestFindMediaWalksPages(t *testing.T) {
	b := &memBackend{}
	for _, n := range []string{"a", "b", "c", "d", "e"} {
		b.media = append(b.media, models.MediaItem{ID: n, Name: n + ".png", FolderID: models.RootFolderID})
	}
	m := newTestManager(t, b)

	it, err := findMedia(context.Background(), m, "e")
	if err != nil {
		t.Fatal(err)
	}
	if it.ID != "e" || m.List().Pagination().CurrentPage != 3 {
		t.Errorf("found %q on page %d", it.ID, m.List().Pagination().CurrentPage)
	}
	if _, err := m.Details("e"); err != nil {
		t.Errorf("details after find: %v", err)
	}

	if _, err := findMedia(context.Background(), m, "zzz"); err == nil {
		t.Error("expected not found")
	}
}

func TestRenderMedia(t *testing.T) {
	items := []models.MediaItem{
		{ID: "m1", Name: "logo.png", Type: models.MediaImage, Size: 2048, IsPinned: true, Tags: []string{"brand"}, CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "m2", Name: "a very long catalogue name that will not fit in a card.pdf", Type: models.MediaDocument, Size: 10},
	}

	var list bytes.Buffer
	renderMedia(&list, items, state.ViewList)
	for _, want := range []string{"logo.png", "2024-03-01", "pinned #brand", "2.0 KB"} {
		if !strings.Contains(list.String(), want) {
			t.Errorf("list view missing %q:\n%s", want, list.String())
		}
	}

	var grid bytes.Buffer
	renderMedia(&grid, items, state.ViewGrid)
	if !strings.Contains(grid.String(), "[img]") || !strings.Contains(grid.String(), "...") {
		t.Errorf("grid view:\n%s", grid.String())
	}

	var empty bytes.Buffer
	renderMedia(&empty, nil, state.ViewGrid)
	if !strings.Contains(empty.String(), "No media found") {
		t.Errorf("empty view: %q", empty.String())
	}
}

func TestClip(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"much longer text", 10, "much lo..."},
		{"héllo wörld", 8, "héllo..."},
		{"abc", 2, "ab"},
	}
	for _, tt := range tests {
		if got := clip(tt.in, tt.n); got != tt.want {
			t.Errorf("clip(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
