package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/distrohub/mediadesk/internal/http"
	"github.com/distrohub/mediadesk/internal/manager"
	"github.com/distrohub/mediadesk/internal/models"
	"github.com/distrohub/mediadesk/internal/state"
	"github.com/distrohub/mediadesk/internal/util/filter"
	"github.com/distrohub/mediadesk/internal/util/format"
)

// newMediaCmd creates the 'media' command group.
func newMediaCmd() *cobra.Command {
	mediaCmd := &cobra.Command{
		Use:     "media",
		Aliases: []string{"files"},
		Short:   "Media operations (list, show, update, move, delete, upload, download)",
		Long:    `Commands for browsing and editing the media library.`,
	}

	mediaCmd.AddCommand(newMediaListCmd())
	mediaCmd.AddCommand(newMediaShowCmd())
	mediaCmd.AddCommand(newMediaUpdateCmd())
	mediaCmd.AddCommand(newMediaMoveCmd())
	mediaCmd.AddCommand(newMediaDeleteCmd())
	mediaCmd.AddCommand(newMediaDownloadCmd())
	mediaCmd.AddCommand(newMediaUploadCmd())

	return mediaCmd
}

// browseFlags are the list filters shared by list and download --all.
type browseFlags struct {
	folder    string
	page      int
	limit     int
	search    string
	mediaType string
	sortBy    string
	order     string
	include   string
	exclude   string
}

func (b *browseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&b.folder, "folder", "", "Folder ID to list (default: root)")
	cmd.Flags().IntVar(&b.page, "page", 1, "Page number")
	cmd.Flags().IntVar(&b.limit, "limit", 0, "Items per page (default from config)")
	cmd.Flags().StringVarP(&b.search, "search", "s", "", "Free-text search")
	cmd.Flags().StringVarP(&b.mediaType, "type", "t", "", "Media type: image, video, document, other")
	cmd.Flags().StringVar(&b.sortBy, "sort-by", "", "Sort field (default from config)")
	cmd.Flags().StringVar(&b.order, "order", "", "Sort order: asc or desc")
	cmd.Flags().StringVar(&b.include, "include", "", "Only names matching these patterns (comma-separated)")
	cmd.Flags().StringVar(&b.exclude, "exclude", "", "Skip names matching these patterns (comma-separated)")
}

func (b *browseFlags) validate() error {
	if b.mediaType != "" && !models.MediaType(b.mediaType).Valid() {
		return fmt.Errorf("--type must be one of image, video, document, other; got %q", b.mediaType)
	}
	if b.order != "" && b.order != models.SortAsc && b.order != models.SortDesc {
		return fmt.Errorf("--order must be asc or desc, got %q", b.order)
	}
	if b.page < 1 {
		return fmt.Errorf("--page must be at least 1, got %d", b.page)
	}
	return nil
}

func (b *browseFlags) filter() filter.Config {
	return filter.Config{
		Include: filter.ParsePatternList(b.include),
		Exclude: filter.ParsePatternList(b.exclude),
	}
}

// open builds a manager positioned on the requested folder and page.
func (b *browseFlags) open(ctx context.Context) (*manager.Manager, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	m, _, err := newManager(func(o *manager.Options) {
		if b.limit > 0 {
			o.PageLimit = b.limit
		}
		if b.sortBy != "" {
			o.SortBy = b.sortBy
		}
		if b.order != "" {
			o.SortOrder = b.order
		}
	})
	if err != nil {
		return nil, err
	}
	if b.folder != "" {
		if err := m.SelectFolder(ctx, b.folder); err != nil {
			return nil, err
		}
	}
	if b.mediaType != "" {
		if err := m.SetType(ctx, models.MediaType(b.mediaType)); err != nil {
			return nil, err
		}
	}
	if b.search != "" {
		if err := m.SetSearch(ctx, b.search); err != nil {
			return nil, err
		}
	}
	if b.page > 1 {
		if err := m.SetPage(ctx, b.page); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// newMediaListCmd creates the 'media list' command.
func newMediaListCmd() *cobra.Command {
	var b browseFlags
	var view string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List media in a folder",
		Long: `List one page of media in a folder.

Examples:
  # First page of the root folder
  mediadesk media list

  # Videos in a folder, newest first, as a table
  mediadesk media list --folder 65a1f0c2 --type video --sort-by createdAt --order desc --view list

  # Second page of a search
  mediadesk media list --search invoice --page 2

  # Only PNGs on the page
  mediadesk media list --include "*.png"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if view != "" && view != string(state.ViewGrid) && view != string(state.ViewList) {
				return fmt.Errorf("--view must be grid or list, got %q", view)
			}
			m, err := b.open(GetContext())
			if err != nil {
				return err
			}
			if view != "" {
				m.SetView(state.ParseViewMode(view))
			}

			list := m.List()
			items := list.Items()
			if f := b.filter(); !f.IsZero() {
				items = filter.ApplyToMedia(items, f)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n\n", m.Tree().Path(m.SelectedFolder()))
			renderMedia(out, items, list.View())
			renderPagination(out, list.Pagination(), list.Stats())
			return nil
		},
	}

	b.register(cmd)
	cmd.Flags().StringVar(&view, "view", "", "Render as grid or list (default from config)")

	return cmd
}

// findMedia walks the pages of the selected folder until id is visible,
// leaving the manager on that page.
func findMedia(ctx context.Context, m *manager.Manager, id string) (models.MediaItem, error) {
	if it, ok := m.List().FindByID(id); ok {
		return it, nil
	}
	for page := 1; ; page++ {
		if page != m.List().Pagination().CurrentPage {
			if err := m.SetPage(ctx, page); err != nil {
				return models.MediaItem{}, err
			}
		}
		if it, ok := m.List().FindByID(id); ok {
			return it, nil
		}
		if !m.List().Pagination().HasNext() {
			break
		}
	}
	return models.MediaItem{}, fmt.Errorf("media %s not found in folder %s", id, m.Tree().Path(m.SelectedFolder()))
}

// openMedia builds a manager on folder and loads the details panel for id.
func openMedia(ctx context.Context, folder, id string) (*manager.Manager, *manager.Details, error) {
	m, _, err := newManager()
	if err != nil {
		return nil, nil, err
	}
	if folder != "" {
		if err := m.SelectFolder(ctx, folder); err != nil {
			return nil, nil, err
		}
	}
	if _, err := findMedia(ctx, m, id); err != nil {
		return nil, nil, err
	}
	d, err := m.Details(id)
	if err != nil {
		return nil, nil, err
	}
	return m, d, nil
}

// newMediaShowCmd creates the 'media show' command.
func newMediaShowCmd() *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "show <media-id>",
		Short: "Show one media item",
		Long: `Show all fields of a media item, including its hosted URL.

Example:
  mediadesk media show 66b2e1d4 --folder 65a1f0c2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, d, err := openMedia(GetContext(), folder, args[0])
			if err != nil {
				return err
			}
			it := d.Item()
			renderMediaItem(cmd.OutOrStdout(), it, m.Tree().Path(it.FolderID))
			return nil
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Folder the item is in (default: root)")

	return cmd
}

// newMediaUpdateCmd creates the 'media update' command.
func newMediaUpdateCmd() *cobra.Command {
	var folder, name string
	var pinned, public bool
	var addTags, removeTags []string

	cmd := &cobra.Command{
		Use:   "update <media-id>",
		Short: "Edit name, flags and tags of a media item",
		Long: `Edit a media item. Only fields that actually change are sent.

Examples:
  mediadesk media update 66b2e1d4 --name "Spring catalogue.pdf"
  mediadesk media update 66b2e1d4 --pinned --add-tag promo --add-tag 2024
  mediadesk media update 66b2e1d4 --public=false --remove-tag draft`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := openMedia(GetContext(), folder, args[0])
			if err != nil {
				return err
			}

			d.Edit()
			if cmd.Flags().Changed("name") {
				if strings.TrimSpace(name) == "" {
					return fmt.Errorf("--name must not be empty")
				}
				d.SetName(name)
			}
			if cmd.Flags().Changed("pinned") {
				d.SetPinned(pinned)
			}
			if cmd.Flags().Changed("public") {
				d.SetPublic(public)
			}
			for _, t := range addTags {
				d.AddTag(t)
			}
			for _, t := range removeTags {
				d.RemoveTag(t)
			}

			if d.Changes().IsEmpty() {
				d.Cancel()
				fmt.Println("Nothing to change.")
				return nil
			}

			it, err := d.Save(GetContext())
			if err != nil {
				return fmt.Errorf("failed to update media: %w", err)
			}
			fmt.Printf("✓ Media updated\n")
			fmt.Printf("  Name: %s\n", it.Name)
			fmt.Printf("  Pinned: %s  Public: %s\n", format.YesNo(it.IsPinned), format.YesNo(it.IsPublic))
			if len(it.Tags) > 0 {
				fmt.Printf("  Tags: %s\n", strings.Join(it.Tags, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Folder the item is in (default: root)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "New display name")
	cmd.Flags().BoolVar(&pinned, "pinned", false, "Pin or unpin the item")
	cmd.Flags().BoolVar(&public, "public", false, "Make the item public or private")
	cmd.Flags().StringSliceVar(&addTags, "add-tag", nil, "Tag to add (repeatable)")
	cmd.Flags().StringSliceVar(&removeTags, "remove-tag", nil, "Tag to remove (repeatable)")

	return cmd
}

// newMediaMoveCmd creates the 'media move' command.
func newMediaMoveCmd() *cobra.Command {
	var folder, to string

	cmd := &cobra.Command{
		Use:   "move <media-id>",
		Short: "Move a media item to another folder",
		Long: `Move a media item to another folder. Use --to root for the top level.

Example:
  mediadesk media move 66b2e1d4 --folder 65a1f0c2 --to 65a1f9e0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, d, err := openMedia(GetContext(), folder, args[0])
			if err != nil {
				return err
			}
			if to == "" {
				to = models.RootFolderID
			}
			if _, ok := m.Tree().Find(to); !ok {
				return fmt.Errorf("%w: %s", manager.ErrUnknownFolder, to)
			}

			it, err := d.MoveTo(GetContext(), to)
			if err != nil {
				return fmt.Errorf("failed to move media: %w", err)
			}
			fmt.Printf("✓ Moved '%s' to %s\n", it.Name, m.Tree().Path(to))
			return nil
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Folder the item is in (default: root)")
	cmd.Flags().StringVar(&to, "to", "", "Destination folder ID (required)")
	cmd.MarkFlagRequired("to")

	return cmd
}

// newMediaDeleteCmd creates the 'media delete' command.
func newMediaDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <media-id> [media-id...]",
		Short: "Delete media items",
		Long: `Delete one or more media items.

Example:
  mediadesk media delete 66b2e1d4 66b2e1d5 --yes`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			if !yes {
				ok, err := promptConfirm(fmt.Sprintf("Delete %d media %s?", len(args), format.Pluralize("item", int64(len(args)))))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("Cancelled.")
					return nil
				}
			}

			m, _, err := newManager()
			if err != nil {
				return err
			}

			failed := 0
			for _, id := range args {
				if err := m.DeleteMedia(GetContext(), id); err != nil {
					logger.Error().Err(err).Str("media", id).Msg("Delete failed")
					failed++
					continue
				}
				fmt.Printf("✓ Deleted %s\n", id)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d deletes failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

// downloadFlags are shared by 'media download' and the 'download' shortcut.
type downloadFlags struct {
	browse    browseFlags
	all       bool
	outDir    string
	overwrite bool
	skip      bool
	resume    bool
}

func (f *downloadFlags) register(cmd *cobra.Command) {
	f.browse.register(cmd)
	cmd.Flags().BoolVar(&f.all, "all", false, "Download every item of the listed page")
	cmd.Flags().StringVarP(&f.outDir, "outdir", "o", ".", "Output directory")
	cmd.Flags().BoolVar(&f.overwrite, "overwrite", false, "Overwrite existing files without asking")
	cmd.Flags().BoolVar(&f.skip, "skip", false, "Skip existing files without asking")
	cmd.Flags().BoolVar(&f.resume, "resume", false, "Resume partial downloads without asking")
}

// conflictMode maps the conflict flags onto a sticky answer.
func (f *downloadFlags) conflictMode() (DownloadConflictAction, error) {
	n := 0
	mode := DownloadSkipOnce
	if f.overwrite {
		n++
		mode = DownloadOverwriteAll
	}
	if f.skip {
		n++
		mode = DownloadSkipAll
	}
	if f.resume {
		n++
		mode = DownloadResumeAll
	}
	if n > 1 {
		return mode, fmt.Errorf("--overwrite, --skip and --resume are mutually exclusive")
	}
	return mode, nil
}

func (f *downloadFlags) run(args []string) error {
	ctx := GetContext()
	logger := GetLogger()

	mode, err := f.conflictMode()
	if err != nil {
		return err
	}
	if f.all == (len(args) > 0) {
		return fmt.Errorf("pass media IDs or --all, not both or neither")
	}

	m, err := f.browse.open(ctx)
	if err != nil {
		return err
	}

	var items []models.MediaItem
	if f.all {
		items = m.List().Items()
	} else {
		for _, id := range args {
			it, err := findMedia(ctx, m, id)
			if err != nil {
				return err
			}
			items = append(items, it)
		}
	}
	if fc := f.browse.filter(); !fc.IsZero() {
		items = filter.ApplyToMedia(items, fc)
	}
	if len(items) == 0 {
		fmt.Println("Nothing to download.")
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := http.CreateTransferClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	res, err := executeMediaDownload(ctx, items, f.outDir, mode, client, logger)
	fmt.Fprintf(os.Stderr, "\n%d downloaded (%s), %d skipped, %d failed\n",
		res.Downloaded, format.FormatFileSize(res.Bytes), res.Skipped, res.Failed)
	return err
}

// newMediaDownloadCmd creates the 'media download' command.
func newMediaDownloadCmd() *cobra.Command {
	var f downloadFlags

	cmd := &cobra.Command{
		Use:   "download [media-id...]",
		Short: "Download media files",
		Long: `Download media from their hosted URLs.

Items are looked up in --folder (default: root). Existing files prompt
unless --overwrite, --skip or --resume is given. Interrupted downloads
leave a .part file that --resume continues.

Examples:
  # Download two items from a folder
  mediadesk media download 66b2e1d4 66b2e1d5 --folder 65a1f0c2 -o ./out

  # Download the first page of images, skipping existing files
  mediadesk media download --all --type image --skip`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(args)
		},
	}

	f.register(cmd)

	return cmd
}

// newMediaUploadCmd creates the 'media upload' command.
func newMediaUploadCmd() *cobra.Command {
	var f uploadFlags

	cmd := &cobra.Command{
		Use:   "upload <path> [path...]",
		Short: "Upload files to the media library",
		Long: `Upload files to the hosted provider and save each as a media item.

Directories are listed; --recursive walks them. Files upload one at a
time, and a failure asks whether to continue unless --continue-on-error
is given.

Examples:
  # Upload to the root folder
  mediadesk media upload logo.png brochure.pdf

  # Upload a directory tree into a folder, images only
  mediadesk media upload ./assets --recursive --include "*.png,*.jpg" --folder-id 65a1f0c2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(args)
		},
	}

	f.register(cmd)

	return cmd
}
