// Package upload holds the local queue of files picked for upload and
// pushes them one at a time to the configured hosted provider.
package upload

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/distrohub/mediadesk/internal/cloud"
	"github.com/distrohub/mediadesk/internal/constants"
	"github.com/distrohub/mediadesk/internal/events"
	"github.com/distrohub/mediadesk/internal/logging"
	"github.com/distrohub/mediadesk/internal/metrics"
	"github.com/distrohub/mediadesk/internal/models"
)

var (
	// ErrUnknownCandidate is returned for ids that are not queued.
	ErrUnknownCandidate = errors.New("no such upload candidate")
	// ErrRemoved is recorded when a candidate is removed mid-upload.
	ErrRemoved = errors.New("upload removed")
)

// Candidate is a file picked for upload. It exists from selection until
// it is removed or persisted as a media record.
type Candidate struct {
	ID         string
	Path       string
	Name       string
	Size       int64
	MIME       string
	Type       models.MediaType
	PreviewURL string
	FolderID   string // folder selected when the file was added

	Progress int // 0-100
	Uploaded bool
	Err      error
	Result   *cloud.UploadResult
	MediaID  string // set once a media record exists for it
}

// Pending reports whether the candidate still needs an upload attempt.
func (c Candidate) Pending() bool {
	return !c.Uploaded
}

// Options configures an Uploader. All callbacks run on the uploading
// goroutine.
type Options struct {
	// OnComplete is called exactly once per successful upload, with the
	// context of the UploadAll or Upload call.
	OnComplete func(ctx context.Context, c Candidate)
	// OnRemove is called when a candidate with a MediaID is removed.
	OnRemove func(Candidate)
	// OnProgress receives raw byte counts, for progress bars.
	OnProgress func(c Candidate, sent int64)
	// KeepPersisted keeps candidates after MarkPersisted so they can still
	// be removed (which then reaches OnRemove).
	KeepPersisted bool

	EventBus *events.EventBus
	Logger   *logging.Logger
}

// Uploader is the candidate queue. Safe for concurrent use; uploads
// themselves run sequentially.
type Uploader struct {
	provider cloud.Provider
	opts     Options
	logger   *logging.Logger

	mu         sync.Mutex
	candidates []*Candidate
	cancels    map[string]context.CancelFunc
}

// New creates an uploader that sends files to provider.
func New(provider cloud.Provider, opts Options) *Uploader {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Uploader{
		provider: provider,
		opts:     opts,
		logger:   logger.Component("uploader"),
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Add queues one candidate per path, all targeting folderID. A path that
// cannot be read still yields a candidate, with Err set.
func (u *Uploader) Add(folderID string, paths ...string) []Candidate {
	if folderID == "" {
		folderID = models.RootFolderID
	}
	added := make([]Candidate, 0, len(paths))
	for _, p := range paths {
		c := newCandidate(folderID, p)
		u.mu.Lock()
		u.candidates = append(u.candidates, c)
		u.mu.Unlock()

		if c.Err != nil {
			u.logger.Warn().Err(c.Err).Str("path", p).Msg("cannot queue file")
		}
		u.publish(events.EventUploadAdded, *c, 0)
		added = append(added, *c)
	}
	return added
}

func newCandidate(folderID, path string) *Candidate {
	c := &Candidate{
		ID:       uuid.NewString(),
		Path:     path,
		Name:     filepath.Base(path),
		FolderID: folderID,
	}

	abs, err := filepath.Abs(path)
	if err == nil {
		c.Path = abs
		c.PreviewURL = (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	}

	c.Type = models.ClassifyMediaType(c.Name, "")
	fi, err := os.Stat(c.Path)
	switch {
	case err != nil:
		c.Err = err
		return c
	case fi.IsDir():
		c.Err = fmt.Errorf("%s is a directory", path)
		return c
	}
	c.Size = fi.Size()

	if mt, err := mimetype.DetectFile(c.Path); err == nil {
		c.MIME = mt.String()
	} else {
		c.Err = err
	}
	c.Type = models.ClassifyMediaType(c.Name, c.MIME)
	return c
}

// Candidates returns a snapshot of the queue in insertion order.
func (u *Uploader) Candidates() []Candidate {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]Candidate, len(u.candidates))
	for i, c := range u.candidates {
		out[i] = *c
	}
	return out
}

// Get returns a snapshot of one candidate.
func (u *Uploader) Get(id string) (Candidate, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if c := u.find(id); c != nil {
		return *c, true
	}
	return Candidate{}, false
}

// Len returns the number of queued candidates.
func (u *Uploader) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.candidates)
}

func (u *Uploader) find(id string) *Candidate {
	for _, c := range u.candidates {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// UploadAll uploads every pending candidate in order, waiting for each to
// finish before starting the next. Candidates that previously failed are
// retried. It returns the number uploaded and the first error seen; a
// failed file does not stop the batch, a cancelled ctx does.
func (u *Uploader) UploadAll(ctx context.Context) (int, error) {
	var (
		uploaded int
		firstErr error
	)
	for _, id := range u.pendingIDs() {
		if err := ctx.Err(); err != nil {
			return uploaded, err
		}
		err := u.Upload(ctx, id)
		switch {
		case err == nil:
			uploaded++
		case errors.Is(err, ErrUnknownCandidate), errors.Is(err, ErrRemoved):
			// removed while queued or in flight
		case firstErr == nil:
			firstErr = err
		}
	}
	return uploaded, firstErr
}

func (u *Uploader) pendingIDs() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	var ids []string
	for _, c := range u.candidates {
		if c.Pending() {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// Upload sends one candidate. On success the candidate is marked uploaded
// at 100% and OnComplete runs; on failure Err is recorded and the
// candidate stays pending.
func (u *Uploader) Upload(ctx context.Context, id string) error {
	u.mu.Lock()
	c := u.find(id)
	if c == nil {
		u.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownCandidate, id)
	}
	if c.Uploaded {
		u.mu.Unlock()
		return nil
	}
	c.Err = nil
	c.Progress = 0
	ctx, cancel := context.WithTimeout(ctx, constants.UploadOperationTimeout)
	u.cancels[id] = cancel
	snap := *c
	u.mu.Unlock()
	defer func() {
		cancel()
		u.mu.Lock()
		delete(u.cancels, id)
		u.mu.Unlock()
	}()

	start := time.Now()
	result, err := u.send(ctx, snap)
	elapsed := time.Since(start)

	u.mu.Lock()
	c = u.find(id)
	if c == nil {
		u.mu.Unlock()
		u.logger.Debug().Str("name", snap.Name).Msg("upload discarded after removal")
		return fmt.Errorf("%w: %s", ErrRemoved, snap.Name)
	}
	if err != nil {
		c.Err = err
		snap = *c
		u.mu.Unlock()

		metrics.RecordUpload(u.providerName(), 0, elapsed, false)
		u.logger.Error().Err(err).Str("name", snap.Name).Msg("upload failed")
		u.publishErr(snap, err)
		return err
	}
	c.Uploaded = true
	c.Progress = 100
	c.Result = result
	snap = *c
	u.mu.Unlock()

	metrics.RecordUpload(u.providerName(), snap.Size, elapsed, true)
	u.logger.Info().Str("name", snap.Name).Str("url", result.URL).Dur("elapsed", elapsed).Msg("upload complete")
	u.publish(events.EventUploadComplete, snap, snap.Size)
	if u.opts.OnComplete != nil {
		u.opts.OnComplete(ctx, snap)
	}
	return nil
}

func (u *Uploader) send(ctx context.Context, c Candidate) (*cloud.UploadResult, error) {
	if u.provider == nil {
		return nil, errors.New("no upload provider configured")
	}
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lastPct := -1
	onProgress := func(sent int64) {
		pct := percent(sent, c.Size)
		if u.opts.OnProgress != nil {
			u.opts.OnProgress(c, sent)
		}
		if pct == lastPct {
			return
		}
		lastPct = pct
		u.mu.Lock()
		if cur := u.find(c.ID); cur != nil {
			cur.Progress = pct
		}
		u.mu.Unlock()
		c.Progress = pct
		u.publish(events.EventUploadProgress, c, sent)
	}

	result, err := u.provider.Upload(ctx, cloud.Object{
		Key:    c.ID,
		Name:   c.Name,
		MIME:   c.MIME,
		Size:   c.Size,
		Body:   f,
		Folder: c.FolderID,
	}, onProgress)
	if err != nil {
		return nil, err
	}
	if result == nil || result.URL == "" {
		return nil, errors.New("provider returned no URL")
	}
	return result, nil
}

// percent keeps in-flight progress below 100 so that 100 always means the
// provider confirmed the upload.
func percent(sent, total int64) int {
	if total <= 0 {
		return 0
	}
	p := int(sent * 100 / total)
	if p > 99 {
		p = 99
	}
	if p < 0 {
		p = 0
	}
	return p
}

// Remove drops a candidate. If its upload is running, the in-flight
// request is cancelled through its context rather than left to finish in
// the background, so a removed file never turns into a media record. If a
// media record already exists for it, OnRemove is notified.
func (u *Uploader) Remove(id string) error {
	u.mu.Lock()
	idx := -1
	for i, c := range u.candidates {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		u.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownCandidate, id)
	}
	c := *u.candidates[idx]
	u.candidates = append(u.candidates[:idx], u.candidates[idx+1:]...)
	if cancel, ok := u.cancels[id]; ok {
		cancel()
	}
	u.mu.Unlock()

	u.publish(events.EventUploadRemoved, c, 0)
	if c.MediaID != "" && u.opts.OnRemove != nil {
		u.opts.OnRemove(c)
	}
	return nil
}

// MarkPersisted records the media record created for an uploaded
// candidate and drops it from the queue (unless KeepPersisted is set).
func (u *Uploader) MarkPersisted(id, mediaID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for i, c := range u.candidates {
		if c.ID != id {
			continue
		}
		if !c.Uploaded {
			return fmt.Errorf("candidate %s has not been uploaded", c.Name)
		}
		c.MediaID = mediaID
		if !u.opts.KeepPersisted {
			u.candidates = append(u.candidates[:i], u.candidates[i+1:]...)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownCandidate, id)
}

// Clear drops all candidates that are not uploading.
func (u *Uploader) Clear() {
	u.mu.Lock()
	defer u.mu.Unlock()
	kept := u.candidates[:0]
	for _, c := range u.candidates {
		if _, running := u.cancels[c.ID]; running {
			kept = append(kept, c)
		}
	}
	u.candidates = kept
}

func (u *Uploader) publish(t events.EventType, c Candidate, sent int64) {
	u.opts.EventBus.PublishUpload(t, events.UploadEvent{
		CandidateID: c.ID,
		Name:        c.Name,
		FolderID:    c.FolderID,
		Progress:    c.Progress,
		BytesSent:   sent,
		BytesTotal:  c.Size,
		URL:         resultURL(c),
		Error:       c.Err,
	})
}

func (u *Uploader) publishErr(c Candidate, err error) {
	u.publish(events.EventUploadFailed, c, 0)
	u.opts.EventBus.Notify(events.ErrorLevel, "Upload failed", c.Name, err)
}

func (u *Uploader) providerName() string {
	if u.provider == nil {
		return "none"
	}
	return u.provider.Name()
}

func resultURL(c Candidate) string {
	if c.Result == nil {
		return ""
	}
	return c.Result.URL
}
