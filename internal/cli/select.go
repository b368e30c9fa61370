package cli

import (
	"encoding/json"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/distrohub/mediadesk/internal/cloud/providers"
	"github.com/distrohub/mediadesk/internal/cloud/upload"
	"github.com/distrohub/mediadesk/internal/events"
	"github.com/distrohub/mediadesk/internal/manager"
)

// newSelectCmd creates the 'select' command.
func newSelectCmd() *cobra.Command {
	var folder string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Pick a media item interactively",
		Long: `Open an interactive picker over the media library.

Browse folders and pages, upload new files into the open folder, and
confirm one item. The chosen item is printed as "<id>\t<url>" (or as JSON
with --json) so the command can feed other tools.

Examples:
  mediadesk select
  URL=$(mediadesk select --folder 650aa1b2 | cut -f2)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := getAPIClient()
			if err != nil {
				return err
			}
			sess, err := getSession(cfg)
			if err != nil {
				return err
			}
			ctx := GetContext()
			provider, err := providers.New(ctx, cfg, nil, GetLogger())
			if err != nil {
				return fmt.Errorf("failed to configure upload provider: %w", err)
			}

			sel := manager.NewSelector(func() *manager.Manager {
				m := manager.New(client, sess, managerOptions(cfg))
				m.EnableUploads(provider, upload.Options{})
				return m
			})
			if err := sel.Manager().Refresh(ctx); err != nil {
				return err
			}
			if folder != "" {
				if err := sel.Manager().SelectFolder(ctx, folder); err != nil {
					return err
				}
			}

			// The picker owns the terminal; bus notifications go to its
			// status line instead of stderr.
			shutdownNotifier()
			var feed <-chan events.Event
			if bus := GetEventBus(); bus != nil {
				feed = bus.SubscribeAll()
				defer bus.UnsubscribeAll(feed)
			}
			model := newSelectModel(ctx, sel, feed)

			if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
				return fmt.Errorf("picker failed: %w", err)
			}

			item, ok := model.Chosen()
			if !ok {
				return nil
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(item)
			}
			fmt.Fprintf(out, "%s\t%s\n", item.ID, item.URL)
			return nil
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Folder to open first")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the chosen item as JSON")

	return cmd
}
