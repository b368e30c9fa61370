package cli

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"path/filepath"

	"github.com/distrohub/mediadesk/internal/cloud/download"
	"github.com/distrohub/mediadesk/internal/logging"
	"github.com/distrohub/mediadesk/internal/models"
	"github.com/distrohub/mediadesk/internal/progress"
	"github.com/distrohub/mediadesk/internal/util/format"
	"github.com/distrohub/mediadesk/internal/util/paths"
)

// errDownloadAborted is returned when the user picks Abort at a conflict.
var errDownloadAborted = errors.New("download aborted")

// planDownloads binds each item to a path under outputDir. Items sharing
// a name get their media id appended so no two downloads write one file.
func planDownloads(items []models.MediaItem, outputDir string) ([]paths.MediaDownload, int) {
	files := make([]paths.MediaDownload, 0, len(items))
	for _, it := range items {
		files = append(files, paths.MediaDownload{
			MediaID:   it.ID,
			Name:      it.Name,
			URL:       it.URL,
			LocalPath: filepath.Join(outputDir, download.LocalName(it.Name, it.URL)),
			Size:      it.Size,
		})
	}
	return paths.ResolveCollisions(files)
}

// localState reports whether a finished file or a part file is present.
func localState(localPath string) (exists, partial bool) {
	if _, err := os.Stat(localPath); err == nil {
		return true, false
	}
	if _, err := os.Stat(download.PartialPath(localPath)); err == nil {
		return false, true
	}
	return false, false
}

// decideConflict returns the action for one conflicting file and the mode
// to carry to the next one. A "do for all" mode answers without asking.
func decideConflict(mode DownloadConflictAction, ask func() (DownloadConflictAction, error)) (DownloadConflictAction, DownloadConflictAction, error) {
	if mode.All() {
		return mode, mode, nil
	}
	a, err := ask()
	if err != nil {
		return DownloadAbort, mode, err
	}
	if a.All() {
		return a, a, nil
	}
	return a, mode, nil
}

// downloadResult counts what executeMediaDownload did.
type downloadResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Bytes      int64
}

// executeMediaDownload downloads items into outputDir one after the other.
// mode is the initial conflict answer; anything but a "do for all" mode
// prompts on the first conflict.
func executeMediaDownload(
	ctx context.Context,
	items []models.MediaItem,
	outputDir string,
	mode DownloadConflictAction,
	client *nethttp.Client,
	logger *logging.Logger,
) (downloadResult, error) {
	var res downloadResult
	if len(items) == 0 {
		return res, fmt.Errorf("nothing to download")
	}
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return res, fmt.Errorf("failed to create output directory: %w", err)
	}

	files, renamed := planDownloads(items, outputDir)
	if renamed > 0 {
		logger.Warn().Int("count", renamed).Msg("Duplicate names: media ids appended to file names")
	}

	fmt.Printf("Downloading %d %s to: %s\n\n", len(files), format.Pluralize("file", int64(len(files))), outputDir)

	var ui *progress.BatchUI
	if len(files) > 1 {
		ui = progress.NewDownloadUI(len(files))
		defer ui.Wait()
	}

	for _, f := range files {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if f.URL == "" {
			logger.Warn().Str("media", f.MediaID).Msg("Media has no hosted URL, skipping")
			res.Skipped++
			continue
		}

		resume := false
		if exists, partial := localState(f.LocalPath); exists || partial {
			var action DownloadConflictAction
			var err error
			action, mode, err = decideConflict(mode, func() (DownloadConflictAction, error) {
				return promptDownloadConflict(f.Name, f.LocalPath, partial)
			})
			if err != nil {
				return res, err
			}
			switch action {
			case DownloadAbort:
				return res, errDownloadAborted
			case DownloadSkipOnce, DownloadSkipAll:
				res.Skipped++
				continue
			case DownloadResumeOnce, DownloadResumeAll:
				if exists {
					// Nothing left to resume.
					res.Skipped++
					continue
				}
				resume = true
			}
		}

		opts := download.Options{Logger: logger, Resume: resume}
		var bar *progress.Bar
		if ui != nil {
			bar = ui.AddBar(f.Name, f.LocalPath, f.Size)
			opts.Reporter = progress.BarReporter{Bar: bar}
			opts.OnRetry = func(attempt int, err error) { bar.SetRetry(attempt) }
		} else {
			opts.Reporter = progress.NewCLIProgress(os.Stderr)
		}

		n, err := download.Media(ctx, client, f.URL, f.LocalPath, opts)
		if bar != nil {
			bar.Complete(f.MediaID, err)
		}
		if err != nil {
			logger.Error().Err(err).Str("media", f.MediaID).Msg("Download failed")
			res.Failed++
			if errors.Is(err, context.Canceled) {
				return res, err
			}
			continue
		}
		res.Downloaded++
		res.Bytes += n
	}

	if res.Failed > 0 {
		return res, fmt.Errorf("%d of %d downloads failed", res.Failed, len(files))
	}
	return res, nil
}
