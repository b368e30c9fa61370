// Package cli provides command shortcuts for common operations.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/distrohub/mediadesk/internal/state"
	"github.com/distrohub/mediadesk/internal/util/filter"
)

// AddShortcuts adds shortcut commands to the root command.
// Shortcuts provide convenient aliases for commonly-used operations.
func AddShortcuts(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newUploadShortcut())
	rootCmd.AddCommand(newDownloadShortcut())
	rootCmd.AddCommand(newLsShortcut())
}

// newUploadShortcut creates the 'upload' shortcut command.
// Shortcut for: media upload
func newUploadShortcut() *cobra.Command {
	var f uploadFlags

	cmd := &cobra.Command{
		Use:   "upload <path> [path...]",
		Short: "Upload files (shortcut for 'media upload')",
		Long: `Shortcut for uploading files to the media library.

Equivalent to: mediadesk media upload <paths>

Examples:
  mediadesk upload logo.png brochure.pdf
  mediadesk upload ./assets --recursive --folder-id 65a1f0c2
  mediadesk upload ./assets -r --exclude "*.tmp" --dry-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(args)
		},
	}

	f.register(cmd)

	return cmd
}

// newDownloadShortcut creates the 'download' shortcut command.
// Shortcut for: media download
func newDownloadShortcut() *cobra.Command {
	var f downloadFlags

	cmd := &cobra.Command{
		Use:   "download [media-id...]",
		Short: "Download media (shortcut for 'media download')",
		Long: `Shortcut for downloading media from their hosted URLs.

Equivalent to: mediadesk media download <ids>

Examples:
  mediadesk download 66b2e1d4
  mediadesk download 66b2e1d4 66b2e1d5 --outdir ./downloads
  mediadesk download --all --folder 65a1f0c2 --resume`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.run(args)
		},
	}

	f.register(cmd)

	return cmd
}

// newLsShortcut creates the 'ls' shortcut command.
// Shortcut for: media list --view list
func newLsShortcut() *cobra.Command {
	var b browseFlags

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List media (shortcut for 'media list --view list')",
		Long: `Shortcut for listing media as a table.

Equivalent to: mediadesk media list --view list

Examples:
  mediadesk ls
  mediadesk ls --folder 65a1f0c2 --limit 50
  mediadesk ls --type image --search logo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := b.open(GetContext())
			if err != nil {
				return err
			}

			list := m.List()
			items := list.Items()
			if f := b.filter(); !f.IsZero() {
				items = filter.ApplyToMedia(items, f)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%d shown)\n\n", m.Tree().Path(m.SelectedFolder()), len(items))
			renderMedia(out, items, state.ViewList)
			renderPagination(out, list.Pagination(), list.Stats())
			return nil
		},
	}

	b.register(cmd)

	return cmd
}
