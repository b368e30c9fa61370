// Package cli provides the command-line interface for mediadesk.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/distrohub/mediadesk/internal/config"
	"github.com/distrohub/mediadesk/internal/constants"
	"github.com/distrohub/mediadesk/internal/events"
	"github.com/distrohub/mediadesk/internal/logging"
	"github.com/distrohub/mediadesk/internal/notify"
	"github.com/distrohub/mediadesk/internal/version"
)

var (
	// Global flags
	cfgFile       string
	userID        string
	distributorID string
	token         string
	apiBaseURL    string
	verbose       bool
	debug         bool
	jsonLog       bool
	quiet         bool
	desktopNotify bool

	// Global logger and the bus its notifications go to
	logger   *logging.Logger
	eventBus *events.EventBus

	stopNotifier func()

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mediadesk",
		Short: "mediadesk - media library and distributor reports",
		Long: `mediadesk ` + version.Version + ` - Built: ` + version.BuildTime + `
Client for the distributor platform's media library and reports.

  folders   browse and organise media folders
  media     list, edit, move, download and delete media
  upload    upload files into a folder
  select    interactive media picker
  reports   commitment reports with CSV/PDF export
  serve     local report dashboard`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			eventBus = events.NewEventBus(constants.EventBusDefaultBuffer)
			logger = logging.NewLogger(jsonLog, eventBus)
			if verbose || debug {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
			n := notify.NewNotifier(os.Stderr, &notify.Config{
				Enabled:  !quiet,
				ShowInfo: true,
				Desktop:  !quiet && (desktopNotify || desktopFromConfig()),
				Logger:   logger.Component("notify"),
			})
			stopNotifier = n.Attach(eventBus)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			shutdownNotifier()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path (default ~/.config/mediadesk/config.ini)")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "Act as this user id (overrides config)")
	rootCmd.PersistentFlags().StringVar(&distributorID, "distributor", "", "Distributor id for reports (overrides config)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Bearer token (overrides config)")
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api-url", "", "Backend API base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "Write logs as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Do not print notifications")
	rootCmd.PersistentFlags().BoolVar(&desktopNotify, "desktop-notify", false, "Also show saved uploads and errors as desktop notifications")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	completionCmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for mediadesk.

  bash:       source <(mediadesk completion bash)
  zsh:        mediadesk completion zsh > "${fpath[1]}/_mediadesk"
  fish:       mediadesk completion fish | source
  powershell: mediadesk completion powershell | Out-String | Invoke-Expression`,
	}
	rootCmd.AddCommand(completionCmd)

	completionCmd.AddCommand(&cobra.Command{
		Use:   "bash",
		Short: "Generate bash completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenBashCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "zsh",
		Short: "Generate zsh completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenZshCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "fish",
		Short: "Generate fish completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "powershell",
		Short: "Generate PowerShell completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenPowerShellCompletion(cmd.OutOrStdout())
		},
	})

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Keep draining so repeated Ctrl+C does not block the sender.
	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\n\nReceived signal %v, cancelling operations...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	// PersistentPostRun does not run when RunE fails.
	shutdownNotifier()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newFoldersCmd())
	rootCmd.AddCommand(newMediaCmd())
	rootCmd.AddCommand(newSelectCmd())
	rootCmd.AddCommand(newReportsCmd())
	rootCmd.AddCommand(newServeCmd())

	AddShortcuts(rootCmd)
}

// desktopFromConfig reads notify.desktop. A config that cannot be loaded
// leaves desktop notifications off; the command reports the error itself.
func desktopFromConfig() bool {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return false
	}
	return cfg.Notify.Desktop
}

func shutdownNotifier() {
	if stopNotifier != nil {
		stopNotifier()
		stopNotifier = nil
	}
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetEventBus returns the bus notifications are published on. It may be
// nil before the root command ran; publishing on a nil bus is a no-op.
func GetEventBus() *events.EventBus {
	return eventBus
}

// GetContext returns the global CLI context with signal handling.
// This context will be cancelled when the user presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}
