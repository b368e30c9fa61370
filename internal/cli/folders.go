package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/distrohub/mediadesk/internal/foldertree"
	"github.com/distrohub/mediadesk/internal/models"
)

// newFoldersCmd creates the 'folders' command group.
func newFoldersCmd() *cobra.Command {
	foldersCmd := &cobra.Command{
		Use:   "folders",
		Short: "Folder operations (list, create, rename, delete)",
		Long:  `Commands for managing media library folders.`,
	}

	foldersCmd.AddCommand(newFoldersListCmd())
	foldersCmd.AddCommand(newFoldersCreateCmd())
	foldersCmd.AddCommand(newFoldersRenameCmd())
	foldersCmd.AddCommand(newFoldersDeleteCmd())

	return foldersCmd
}

// newFoldersListCmd creates the 'folders list' command.
func newFoldersListCmd() *cobra.Command {
	var reveal string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the folder tree",
		Long: `Show the folder tree under "All Media".

Folders whose parent is unknown, or that sit on a parent cycle, are listed
under the root and marked "(detached)".

Example:
  mediadesk folders list
  mediadesk folders list --reveal 65a1f0c2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := newManager()
			if err != nil {
				return err
			}

			tree := m.Tree()
			expand := m.Expand()
			if reveal != "" {
				if err := m.SelectFolder(GetContext(), reveal); err != nil {
					return err
				}
			} else {
				// Without a target show everything.
				expand.ExpandAll(tree)
			}

			if err := foldertree.Render(cmd.OutOrStdout(), tree, expand, m.SelectedFolder()); err != nil {
				return err
			}
			if d := tree.Detached(); len(d) > 0 {
				fmt.Fprintf(os.Stderr, "\n%d folder(s) could not be placed under their parent.\n", len(d))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reveal, "reveal", "", "Select a folder and expand only its ancestors")

	return cmd
}

// newFoldersCreateCmd creates the 'folders create' command.
func newFoldersCreateCmd() *cobra.Command {
	var name string
	var parentID string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new folder",
		Long: `Create a new folder in the media library.

Example:
  # Create folder under the root
  mediadesk folders create --name "Invoices"

  # Create subfolder
  mediadesk folders create --name "2024" --parent-id 65a1f0c2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			if _, err := foldertree.ValidateName(name); err != nil {
				return err
			}

			m, _, err := newManager()
			if err != nil {
				return err
			}
			if parentID == "" {
				parentID = models.RootFolderID
			}

			logger.Debug().Str("name", name).Str("parent", parentID).Msg("Creating folder")
			folder, err := m.CreateFolder(GetContext(), name, parentID)
			if err != nil {
				return fmt.Errorf("failed to create folder: %w", err)
			}

			fmt.Printf("✓ Folder created successfully\n")
			fmt.Printf("  Name: %s\n", folder.Name)
			fmt.Printf("  ID: %s\n", folder.ID)
			fmt.Printf("  Path: %s\n", m.Tree().Path(folder.ID))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Folder name (required)")
	cmd.Flags().StringVar(&parentID, "parent-id", "", "Parent folder ID (default: root)")

	cmd.MarkFlagRequired("name")

	return cmd
}

// newFoldersRenameCmd creates the 'folders rename' command.
func newFoldersRenameCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "rename <folder-id>",
		Short: "Rename a folder",
		Long: `Rename a folder. Only the name changes; the folder keeps its place.

Example:
  mediadesk folders rename 65a1f0c2 --name "Receipts"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := newManager()
			if err != nil {
				return err
			}

			action, err := m.BeginRename(args[0])
			if err != nil {
				return err
			}
			folder, err := m.CommitRename(GetContext(), action, name)
			if err != nil {
				return fmt.Errorf("failed to rename folder: %w", err)
			}

			fmt.Printf("✓ Folder renamed to %q\n", folder.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "New folder name (required)")
	cmd.MarkFlagRequired("name")

	return cmd
}

// newFoldersDeleteCmd creates the 'folders delete' command.
func newFoldersDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <folder-id>",
		Short: "Delete a folder",
		Long: `Delete a folder. What happens to its subfolders and media is decided by
the backend; the tree is re-read afterwards.

Example:
  mediadesk folders delete 65a1f0c2
  mediadesk folders delete 65a1f0c2 --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := newManager()
			if err != nil {
				return err
			}

			action, err := m.BeginDelete(args[0])
			if err != nil {
				return err
			}
			node, _ := m.Tree().Find(args[0])
			if !yes {
				ok, err := promptConfirm(fmt.Sprintf("Delete folder '%s' (%d subfolder(s))?", m.Tree().Path(node.ID), len(node.Children)))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("Cancelled.")
					return nil
				}
			}

			if err := m.CommitDelete(GetContext(), action); err != nil {
				return fmt.Errorf("failed to delete folder: %w", err)
			}

			fmt.Printf("✓ Folder deleted\n")
			fmt.Printf("  %d folder(s) remain\n", m.Tree().Count())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}
