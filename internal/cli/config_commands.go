// Package cli provides configuration management commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/distrohub/mediadesk/internal/config"
	"github.com/distrohub/mediadesk/internal/foldertree"
	"github.com/distrohub/mediadesk/internal/util/format"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage mediadesk configuration",
		Long: `Configuration management commands for mediadesk.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  test  - Test API connection
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// configPath returns --config or the default location.
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultConfigPath()
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for mediadesk.

The configuration will be saved to ~/.config/mediadesk/config.ini

Use --force to overwrite existing configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			path, err := configPath()
			if err != nil {
				return err
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Printf("Configuration already exists at: %s\n", path)
					fmt.Println("Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			cfg := config.New()
			if err := runConfigInit(stdinPrompter, cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := config.Save(cfg, path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			logger.Info().Str("path", path).Msg("Configuration saved")

			fmt.Println()
			fmt.Printf("✓ Configuration saved to: %s\n", path)
			if err := cfg.ValidateUpload(); err != nil {
				fmt.Printf("  Uploads are not ready yet: %v\n", err)
			}
			fmt.Println()
			fmt.Println("Test your configuration with: mediadesk config test")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")

	return cmd
}

// runConfigInit asks for every setting and stores the answers in cfg.
// Values already in cfg are offered as defaults.
func runConfigInit(p *prompter, cfg *config.Config) error {
	fmt.Fprintln(p.out, "mediadesk Configuration Setup")
	fmt.Fprintln(p.out, "=============================")
	fmt.Fprintln(p.out)

	var err error
	if cfg.API.BaseURL, err = p.require("API base URL", cfg.API.BaseURL); err != nil {
		return err
	}
	cfg.API.BaseURL = strings.TrimSuffix(strings.TrimSpace(cfg.API.BaseURL), "/")
	if cfg.Session.UserID, err = p.ask("User ID (empty to read it from the token)", cfg.Session.UserID); err != nil {
		return err
	}
	if cfg.Session.Token, err = p.ask("Session token (optional)", cfg.Session.Token); err != nil {
		return err
	}
	if cfg.Session.UserID == "" && cfg.Session.Token == "" {
		return fmt.Errorf("either a user ID or a session token is required")
	}
	if cfg.Session.DistributorID, err = p.ask("Distributor ID", firstNonEmpty(cfg.Session.DistributorID, cfg.Session.UserID)); err != nil {
		return err
	}

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Upload Provider (hosted, s3, azure)")
	fmt.Fprintln(p.out, "-----------------------------------")
	if cfg.Upload.Provider, err = p.ask("Provider", firstNonEmpty(cfg.Upload.Provider, "hosted")); err != nil {
		return err
	}
	cfg.Upload.Provider = strings.ToLower(strings.TrimSpace(cfg.Upload.Provider))
	switch cfg.Upload.Provider {
	case "hosted":
		if cfg.Upload.HostedURL, err = p.ask("Upload endpoint URL", cfg.Upload.HostedURL); err != nil {
			return err
		}
		if cfg.Upload.UploadPreset, err = p.ask("Upload preset", cfg.Upload.UploadPreset); err != nil {
			return err
		}
		if cfg.Upload.HostedFolder, err = p.ask("Hosted folder (optional)", cfg.Upload.HostedFolder); err != nil {
			return err
		}
	case "s3":
		if cfg.Upload.S3Bucket, err = p.ask("Bucket", cfg.Upload.S3Bucket); err != nil {
			return err
		}
		if cfg.Upload.S3Region, err = p.ask("Region", cfg.Upload.S3Region); err != nil {
			return err
		}
		if cfg.Upload.S3Endpoint, err = p.ask("Endpoint (optional, for S3-compatible stores)", cfg.Upload.S3Endpoint); err != nil {
			return err
		}
		if cfg.Upload.S3PublicBaseURL, err = p.ask("Public base URL (optional)", cfg.Upload.S3PublicBaseURL); err != nil {
			return err
		}
	case "azure":
		if cfg.Upload.AzureContainerURL, err = p.ask("Container SAS URL", cfg.Upload.AzureContainerURL); err != nil {
			return err
		}
		if cfg.Upload.AzurePublicBaseURL, err = p.ask("Public base URL (optional)", cfg.Upload.AzurePublicBaseURL); err != nil {
			return err
		}
	default:
		return config.ErrUnknownProvider
	}

	fmt.Fprintln(p.out)
	useProxy, err := p.confirm("Configure proxy?")
	if err != nil {
		return err
	}
	if !useProxy {
		cfg.Proxy.Mode = "no-proxy"
		return nil
	}

	fmt.Fprintln(p.out, "Proxy modes: no-proxy, system, basic, ntlm")
	if cfg.Proxy.Mode, err = p.ask("Proxy mode", "system"); err != nil {
		return err
	}
	if cfg.Proxy.Mode == "no-proxy" || cfg.Proxy.Mode == "system" {
		return nil
	}
	if cfg.Proxy.Host, err = p.require("Proxy host", cfg.Proxy.Host); err != nil {
		return err
	}
	port, err := p.ask("Proxy port", "8080")
	if err != nil {
		return err
	}
	if cfg.Proxy.Port, err = strconv.Atoi(port); err != nil || cfg.Proxy.Port <= 0 {
		return fmt.Errorf("invalid proxy port %q", port)
	}
	if cfg.Proxy.User, err = p.ask("Proxy user (optional)", cfg.Proxy.User); err != nil {
		return err
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current configuration settings.

This command shows the merged configuration from:
  1. Configuration file (~/.config/mediadesk/config.ini)
  2. .env file and environment variables (MEDIADESK_API_BASE_URL, ...)
  3. Command-line flags (--api-url, --user, --token, ...)

Priority: flags > environment > config file > defaults`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			path, _ := configPath()
			printConfig(cmd.OutOrStdout(), cfg, path)
			return nil
		},
	}

	return cmd
}

// secret never shows any part of a credential.
func secret(v string) string {
	if v == "" {
		return "<not set>"
	}
	return fmt.Sprintf("<set (%d chars)>", len(v))
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

// printConfig writes cfg with every credential masked.
func printConfig(w io.Writer, cfg *config.Config, path string) {
	fmt.Fprintln(w, "Current Configuration")
	fmt.Fprintln(w, "=====================")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "API Settings:")
	fmt.Fprintf(w, "  Base URL:     %s\n", orDash(cfg.API.BaseURL))
	fmt.Fprintf(w, "  Timeout:      %s\n", cfg.API.Timeout())
	fmt.Fprintf(w, "  Max Retries:  %d\n", cfg.API.MaxRetries)
	fmt.Fprintf(w, "  Rate Limit:   %.1f/s (burst %.0f)\n", cfg.API.RatePerSecond, cfg.API.Burst)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Session:")
	fmt.Fprintf(w, "  User ID:        %s\n", orDash(cfg.Session.UserID))
	fmt.Fprintf(w, "  Distributor ID: %s\n", orDash(cfg.Session.DistributorID))
	fmt.Fprintf(w, "  Token:          %s\n", secret(cfg.Session.Token))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Upload:")
	fmt.Fprintf(w, "  Provider: %s\n", cfg.Upload.Provider)
	switch cfg.Upload.Provider {
	case "s3":
		fmt.Fprintf(w, "  Bucket:     %s\n", orDash(cfg.Upload.S3Bucket))
		fmt.Fprintf(w, "  Region:     %s\n", orDash(cfg.Upload.S3Region))
		fmt.Fprintf(w, "  Endpoint:   %s\n", orDash(cfg.Upload.S3Endpoint))
		fmt.Fprintf(w, "  Prefix:     %s\n", orDash(cfg.Upload.S3Prefix))
		fmt.Fprintf(w, "  Access Key: %s\n", secret(cfg.Upload.S3AccessKeyID))
		fmt.Fprintf(w, "  Secret Key: %s\n", secret(cfg.Upload.S3SecretKey))
	case "azure":
		fmt.Fprintf(w, "  Container URL:     %s\n", secret(cfg.Upload.AzureContainerURL))
		fmt.Fprintf(w, "  Connection String: %s\n", secret(cfg.Upload.AzureConnectionString))
		fmt.Fprintf(w, "  Container:         %s\n", orDash(cfg.Upload.AzureContainer))
	default:
		fmt.Fprintf(w, "  Endpoint: %s\n", orDash(cfg.Upload.HostedURL))
		fmt.Fprintf(w, "  Preset:   %s\n", orDash(cfg.Upload.UploadPreset))
		fmt.Fprintf(w, "  Folder:   %s\n", orDash(cfg.Upload.HostedFolder))
	}
	if err := cfg.ValidateUpload(); err != nil {
		fmt.Fprintf(w, "  (not ready: %v)\n", err)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Proxy Settings:")
	fmt.Fprintf(w, "  Proxy Mode: %s\n", cfg.Proxy.Mode)
	if cfg.Proxy.Host != "" {
		fmt.Fprintf(w, "  Proxy Host: %s\n", cfg.Proxy.Host)
		fmt.Fprintf(w, "  Proxy Port: %d\n", cfg.Proxy.Port)
		fmt.Fprintf(w, "  Proxy User: %s\n", orDash(cfg.Proxy.User))
		fmt.Fprintf(w, "  Password:   %s\n", secret(cfg.Proxy.Password))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Media Browsing:")
	fmt.Fprintf(w, "  Page Limit: %d\n", cfg.Media.PageLimit)
	fmt.Fprintf(w, "  Sort:       %s %s\n", cfg.Media.SortBy, cfg.Media.SortOrder)
	fmt.Fprintf(w, "  View:       %s\n", cfg.Media.View)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Dashboard:")
	fmt.Fprintf(w, "  Address:      %s\n", cfg.Dashboard.Addr)
	fmt.Fprintf(w, "  CORS Origins: %s\n", orDash(cfg.Dashboard.CORSOrigins))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Configuration file: %s\n", path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(w, "  (file does not exist - using defaults)")
	}
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test API connection",
		Long: `Test the API connection with current configuration.

Reads the folder list and library stats of the configured user.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			fmt.Println("Testing API Connection")
			fmt.Println("======================")
			fmt.Println()

			client, cfg, err := getAPIClient()
			if err != nil {
				return err
			}
			sess, err := getSession(cfg)
			if err != nil {
				return err
			}

			fmt.Printf("API URL: %s\n", cfg.API.BaseURL)
			fmt.Printf("User:    %s\n", sess.UserID)
			fmt.Println("Testing connection...")
			fmt.Println()

			ctx, cancel := context.WithTimeout(GetContext(), 10*time.Second)
			defer cancel()

			folders, err := client.ListFolders(ctx, sess)
			if err != nil {
				logger.Error().Err(err).Msg("Connection test failed")
				fmt.Println("✗ Connection FAILED")
				fmt.Printf("  Error: %v\n", err)
				return fmt.Errorf("connection test failed")
			}
			st, err := client.GetStats(ctx, sess)
			if err != nil {
				logger.Error().Err(err).Msg("Connection test failed")
				fmt.Println("✗ Connection FAILED")
				fmt.Printf("  Error: %v\n", err)
				return fmt.Errorf("connection test failed")
			}

			logger.Info().Msg("Connection test successful")

			tree := foldertree.Build(folders)
			fmt.Println("✓ Connection SUCCESSFUL")
			fmt.Println()
			fmt.Println("Library:")
			fmt.Printf("  Folders: %d", tree.Count())
			if d := len(tree.Detached()); d > 0 {
				fmt.Printf(" (%d detached)", d)
			}
			fmt.Println()
			fmt.Printf("  Files:   %d (%s)\n", st.TotalFiles, format.FormatFileSize(st.TotalSize))

			if err := cfg.ValidateUpload(); err != nil {
				fmt.Printf("\nUploads are not configured: %v\n", err)
			}
			return nil
		},
	}

	return cmd
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Long:  `Display the path to the configuration file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			if cfgFile == "" {
				fmt.Println("Default configuration path:")
			} else {
				fmt.Println("Configuration path (from --config flag):")
			}

			fmt.Printf("  %s\n", path)
			fmt.Println()

			if fileInfo, err := os.Stat(path); err == nil {
				fmt.Println("Status: ✓ File exists")
				fmt.Printf("Size:   %d bytes\n", fileInfo.Size())
				fmt.Printf("Modified: %s\n", fileInfo.ModTime().Format("2006-01-02 15:04:05"))
			} else {
				fmt.Println("Status: File does not exist")
				fmt.Println()
				fmt.Println("Create a configuration file with: mediadesk config init")
			}

			return nil
		},
	}

	return cmd
}
