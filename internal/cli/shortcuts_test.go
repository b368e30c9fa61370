package cli

import (
	"testing"

	"github.com/spf13/cobra"
)

// TestUploadShortcut tests the upload shortcut command
func TestUploadShortcut(t *testing.T) {
	cmd := newUploadShortcut()
	if cmd == nil {
		t.Fatal("newUploadShortcut() returned nil")
	}

	if cmd.Use != "upload <path> [path...]" {
		t.Errorf("Expected Use='upload <path> [path...]', got '%s'", cmd.Use)
	}

	if cmd.RunE == nil {
		t.Error("RunE function is nil")
	}

	for _, name := range []string{"folder-id", "recursive", "include", "exclude", "continue-on-error", "dry-run"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("--%s flag not found", name)
		}
	}
}

// TestDownloadShortcut tests the download shortcut command
func TestDownloadShortcut(t *testing.T) {
	cmd := newDownloadShortcut()
	if cmd == nil {
		t.Fatal("newDownloadShortcut() returned nil")
	}

	if cmd.Use != "download [media-id...]" {
		t.Errorf("Expected Use='download [media-id...]', got '%s'", cmd.Use)
	}

	for _, name := range []string{"outdir", "all", "folder", "overwrite", "skip", "resume"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("--%s flag not found", name)
		}
	}
}

// TestLsShortcut tests the ls shortcut command
func TestLsShortcut(t *testing.T) {
	cmd := newLsShortcut()
	if cmd == nil {
		t.Fatal("newLsShortcut() returned nil")
	}

	if cmd.Use != "ls" {
		t.Errorf("Expected Use='ls', got '%s'", cmd.Use)
	}

	for _, name := range []string{"limit", "folder", "type", "search", "page"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("--%s flag not found", name)
		}
	}
}

// TestShortcutCommands tests that all shortcut commands exist
func TestShortcutCommands(t *testing.T) {
	shortcuts := []struct {
		name     string
		createFn func() *cobra.Command
	}{
		{"upload", newUploadShortcut},
		{"download", newDownloadShortcut},
		{"ls", newLsShortcut},
	}

	for _, sc := range shortcuts {
		t.Run(sc.name, func(t *testing.T) {
			cmd := sc.createFn()
			if cmd == nil {
				t.Fatalf("Shortcut command '%s' creation returned nil", sc.name)
			}

			if cmd.RunE == nil {
				t.Errorf("Shortcut command '%s' has no RunE function", sc.name)
			}

			if cmd.Short == "" {
				t.Errorf("Shortcut command '%s' has empty Short description", sc.name)
			}

			if cmd.Long == "" {
				t.Errorf("Shortcut command '%s' has empty Long description", sc.name)
			}
		})
	}
}

// TestAddShortcuts tests that AddShortcuts adds commands to root
func TestAddShortcuts(t *testing.T) {
	rootCmd := NewRootCmd()

	AddShortcuts(rootCmd)

	expectedShortcuts := []string{"upload", "download", "ls"}
	foundShortcuts := make(map[string]bool)

	for _, cmd := range rootCmd.Commands() {
		foundShortcuts[cmd.Name()] = true
	}

	for _, expected := range expectedShortcuts {
		if !foundShortcuts[expected] {
			t.Errorf("Shortcut command '%s' not found in root command", expected)
		}
	}
}

func TestDownloadConflictFlags(t *testing.T) {
	tests := []struct {
		name    string
		flags   downloadFlags
		want    DownloadConflictAction
		wantErr bool
	}{
		{"none prompts", downloadFlags{}, DownloadSkipOnce, false},
		{"overwrite", downloadFlags{overwrite: true}, DownloadOverwriteAll, false},
		{"skip", downloadFlags{skip: true}, DownloadSkipAll, false},
		{"resume", downloadFlags{resume: true}, DownloadResumeAll, false},
		{"two at once", downloadFlags{skip: true, resume: true}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.flags.conflictMode()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("mode = %v, want %v", got, tt.want)
			}
		})
	}
}
