package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/distrohub/mediadesk/internal/cloud/upload"
	"github.com/distrohub/mediadesk/internal/logging"
	"github.com/distrohub/mediadesk/internal/manager"
	"github.com/distrohub/mediadesk/internal/progress"
	"github.com/distrohub/mediadesk/internal/util/filter"
	"github.com/distrohub/mediadesk/internal/util/format"
)

// errUploadAborted is returned when the user picks Abort after a failure.
var errUploadAborted = errors.New("upload aborted by user")

// uploadRequest is what the upload commands collect from their flags.
type uploadRequest struct {
	Roots           []string
	FolderID        string
	Recursive       bool
	Filter          filter.Config
	ContinueOnError bool
	DryRun          bool
}

// uploadResult pairs a local file with the media record it became.
type uploadResult struct {
	Path    string
	MediaID string
	URL     string
}

// collectUploads expands the request roots into files to upload.
func collectUploads(req uploadRequest) ([]string, error) {
	files, err := filter.CollectFiles(req.Roots, req.Recursive, req.Filter)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to upload")
	}
	return files, nil
}

// barSet maps candidate ids to progress bars.
type barSet struct {
	ui   *progress.BatchUI
	mu   sync.Mutex
	bars map[string]*progress.Bar
}

func newBarSet(ui *progress.BatchUI) *barSet {
	return &barSet{ui: ui, bars: make(map[string]*progress.Bar)}
}

func (s *barSet) get(c upload.Candidate, target string) *progress.Bar {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bars[c.ID]
	if !ok {
		b = s.ui.AddBar(c.Path, target, c.Size)
		s.bars[c.ID] = b
	}
	return b
}

// executeMediaUpload uploads every file of req into the target folder, one
// after the other, and saves each as a media record. After a failure the
// user picks whether to go on unless req.ContinueOnError is set.
func executeMediaUpload(ctx context.Context, req uploadRequest, logger *logging.Logger) ([]uploadResult, error) {
	files, err := collectUploads(req)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, f := range files {
		if info, err := os.Stat(f); err == nil {
			total += info.Size()
		}
	}

	if req.DryRun {
		fmt.Printf("Would upload %d %s (%s):\n", len(files), format.Pluralize("file", int64(len(files))), format.FormatFileSize(total))
		for _, f := range files {
			fmt.Printf("  %s\n", f)
		}
		return nil, nil
	}

	m, cfg, err := newManager()
	if err != nil {
		return nil, err
	}
	if req.FolderID != "" {
		if err := m.SelectFolder(ctx, req.FolderID); err != nil {
			return nil, err
		}
	}
	target := m.Tree().Path(m.SelectedFolder())

	fmt.Printf("Uploading %d %s (%s) to %s\n\n", len(files), format.Pluralize("file", int64(len(files))),
		format.FormatFileSize(total), target)

	ui := progress.NewUploadUI(len(files))
	bars := newBarSet(ui)

	u, err := enableUploads(m, cfg, upload.Options{
		KeepPersisted: true,
		OnProgress: func(c upload.Candidate, sent int64) {
			bars.get(c, target).SetBytes(sent)
		},
	})
	if err != nil {
		ui.Wait()
		return nil, err
	}

	results, err := runUploads(ctx, m, u, files, bars, target, req.ContinueOnError, promptUploadError)
	ui.Wait()

	if len(results) > 0 {
		fmt.Printf("\n✓ Uploaded %d of %d %s\n", len(results), len(files), format.Pluralize("file", int64(len(files))))
		for i, r := range results {
			fmt.Printf("  [%d] %s  %s\n", i+1, r.MediaID, r.URL)
		}
	}
	if err != nil {
		logger.Debug().Err(err).Msg("upload batch ended with an error")
	}
	return results, err
}

// runUploads drives the uploader file by file so a failure can be answered
// before the next file starts.
func runUploads(
	ctx context.Context,
	m *manager.Manager,
	u *upload.Uploader,
	files []string,
	bars *barSet,
	target string,
	continueAll bool,
	ask func(name string, err error) (ErrorAction, error),
) ([]uploadResult, error) {
	var results []uploadResult
	failed := 0

	candidates := u.Add(m.SelectedFolder(), files...)
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		bar := bars.get(c, target)
		err := c.Err
		if err == nil {
			err = u.Upload(ctx, c.ID)
		}
		if err == nil {
			done, _ := u.Get(c.ID)
			if done.MediaID == "" {
				err = fmt.Errorf("uploaded %s but could not save it to the library", c.Name)
			} else {
				bar.Complete(done.MediaID, nil)
				url := ""
				if done.Result != nil {
					url = done.Result.URL
				}
				results = append(results, uploadResult{Path: c.Path, MediaID: done.MediaID, URL: url})
				continue
			}
		}

		bar.Complete("", err)
		failed++
		if errors.Is(err, context.Canceled) {
			return results, err
		}
		if continueAll {
			continue
		}
		action, perr := ask(c.Name, err)
		if perr != nil {
			return results, perr
		}
		switch action {
		case ErrorAbort:
			return results, errUploadAborted
		case ErrorContinueAll:
			continueAll = true
		}
	}

	if failed > 0 {
		return results, fmt.Errorf("upload failed: %d of %d %s failed", failed, len(files), format.Pluralize("file", int64(len(files))))
	}
	return results, nil
}

// uploadFlags are shared by 'media upload' and the 'upload' shortcut.
type uploadFlags struct {
	folderID        string
	recursive       bool
	continueOnError bool
	dryRun          bool
	include         string
	exclude         string
}

func (f *uploadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.folderID, "folder-id", "d", "", "Upload to specific folder (optional, default: root)")
	cmd.Flags().BoolVarP(&f.recursive, "recursive", "r", false, "Walk directories recursively")
	cmd.Flags().BoolVar(&f.continueOnError, "continue-on-error", false, "Do not stop to ask after a failed file")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "List what would be uploaded and exit")
	cmd.Flags().StringVar(&f.include, "include", "", "Only files matching these patterns (comma-separated)")
	cmd.Flags().StringVar(&f.exclude, "exclude", "", "Skip files matching these patterns (comma-separated)")
}

func (f *uploadFlags) request(roots []string) uploadRequest {
	return uploadRequest{
		Roots:     roots,
		FolderID:  f.folderID,
		Recursive: f.recursive,
		Filter: filter.Config{
			Include: filter.ParsePatternList(f.include),
			Exclude: filter.ParsePatternList(f.exclude),
		},
		ContinueOnError: f.continueOnError,
		DryRun:          f.dryRun,
	}
}

func (f *uploadFlags) run(roots []string) error {
	_, err := executeMediaUpload(GetContext(), f.request(roots), GetLogger())
	return err
}
