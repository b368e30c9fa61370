package cli

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/distrohub/mediadesk/internal/config"
)

// TestConfigPath tests the config path command
func TestConfigPath(t *testing.T) {
	cmd := newConfigPathCmd()
	if cmd == nil {
		t.Fatal("newConfigPathCmd() returned nil")
	}

	if cmd.Use != "path" {
		t.Errorf("Expected Use='path', got '%s'", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("Short description is empty")
	}
}

// TestConfigInit tests the config init command structure
func TestConfigInit(t *testing.T) {
	cmd := newConfigInitCmd()
	if cmd == nil {
		t.Fatal("newConfigInitCmd() returned nil")
	}

	if cmd.Use != "init" {
		t.Errorf("Expected Use='init', got '%s'", cmd.Use)
	}

	if cmd.RunE == nil {
		t.Error("RunE function is nil")
	}

	if cmd.Flags().Lookup("force") == nil {
		t.Error("--force flag not found")
	}
}

// TestConfigCmd tests the config command group
func TestConfigCmd(t *testing.T) {
	cmd := newConfigCmd()
	if cmd == nil {
		t.Fatal("newConfigCmd() returned nil")
	}

	if cmd.Use != "config" {
		t.Errorf("Expected Use='config', got '%s'", cmd.Use)
	}

	subcommands := cmd.Commands()
	expectedSubs := []string{"init", "show", "test", "path"}

	if len(subcommands) != len(expectedSubs) {
		t.Errorf("Expected %d subcommands, got %d", len(expectedSubs), len(subcommands))
	}

	foundSubs := make(map[string]bool)
	for _, sub := range subcommands {
		foundSubs[sub.Name()] = true
	}

	for _, expected := range expectedSubs {
		if !foundSubs[expected] {
			t.Errorf("Subcommand '%s' not found", expected)
		}
	}
}

func scriptedPrompter(lines ...string) (*prompter, *bytes.Buffer) {
	out := &bytes.Buffer{}
	in := strings.Join(lines, "\n") + "\n"
	return &prompter{in: bufio.NewReader(strings.NewReader(in)), out: out}, out
}

func TestRunConfigInit(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
		check   func(t *testing.T, cfg *config.Config)
		wantErr error
	}{
		{
			name: "hosted without proxy",
			answers: []string{
				"https://api.example.com/api/", "u1", "", "",
				"", "https://upload.example.com/auto/upload", "unsigned", "",
				"n",
			},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.API.BaseURL != "https://api.example.com/api" {
					t.Errorf("base url = %q", cfg.API.BaseURL)
				}
				if cfg.Session.DistributorID != "u1" {
					t.Errorf("distributor defaults to user, got %q", cfg.Session.DistributorID)
				}
				if cfg.Upload.Provider != "hosted" || cfg.Upload.UploadPreset != "unsigned" {
					t.Errorf("upload = %+v", cfg.Upload)
				}
				if cfg.Proxy.Mode != "no-proxy" {
					t.Errorf("proxy mode = %q", cfg.Proxy.Mode)
				}
			},
		},
		{
			name: "s3 with basic proxy",
			answers: []string{
				"", "https://api.example.com", "", "tok", "dist9",
				"S3", "media-bucket", "eu-west-1", "", "",
				"y", "basic", "proxy.local", "3128", "alice",
			},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Session.Token != "tok" || cfg.Session.DistributorID != "dist9" {
					t.Errorf("session = %+v", cfg.Session)
				}
				if cfg.Upload.Provider != "s3" || cfg.Upload.S3Bucket != "media-bucket" || cfg.Upload.S3Region != "eu-west-1" {
					t.Errorf("upload = %+v", cfg.Upload)
				}
				if cfg.Proxy.Host != "proxy.local" || cfg.Proxy.Port != 3128 || cfg.Proxy.User != "alice" {
					t.Errorf("proxy = %+v", cfg.Proxy)
				}
			},
		},
		{
			name:    "unknown provider",
			answers: []string{"https://api.example.com", "u1", "", "", "ftp"},
			wantErr: config.ErrUnknownProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := scriptedPrompter(tt.answers...)
			cfg := config.New()
			err := runConfigInit(p, cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("runConfigInit: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestRunConfigInitNeedsIdentity(t *testing.T) {
	p, _ := scriptedPrompter("https://api.example.com", "", "")
	if err := runConfigInit(p, config.New()); err == nil {
		t.Fatal("expected error without user id or token")
	}
}

// TestConfigSaveAndLoad tests config save and load functionality
func TestConfigSaveAndLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.ini")

	cfg := config.New()
	cfg.API.BaseURL = "https://api.example.com/api"
	cfg.Session.UserID = "64f1c0ffee"
	cfg.Session.Token = "secret-token"
	cfg.Upload.Provider = "azure"
	cfg.Upload.AzureContainerURL = "https://acct.blob.core.windows.net/media?sv=x"
	cfg.Media.PageLimit = 40

	if err := config.Save(cfg, configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loaded, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if loaded.API.BaseURL != cfg.API.BaseURL {
		t.Errorf("BaseURL mismatch: expected '%s', got '%s'", cfg.API.BaseURL, loaded.API.BaseURL)
	}
	if loaded.Session.Token != cfg.Session.Token {
		t.Errorf("Token mismatch")
	}
	if loaded.Upload.Provider != "azure" || loaded.Upload.AzureContainerURL != cfg.Upload.AzureContainerURL {
		t.Errorf("Upload mismatch: %+v", loaded.Upload)
	}
	if loaded.Media.PageLimit != 40 {
		t.Errorf("PageLimit mismatch: got %d", loaded.Media.PageLimit)
	}
}

func TestPrintConfigMasksSecrets(t *testing.T) {
	cfg := config.New()
	cfg.API.BaseURL = "https://api.example.com"
	cfg.Session.Token = "eyJhbGciOi.secret.sig"
	cfg.Upload.Provider = "s3"
	cfg.Upload.S3SecretKey = "wJalrXUtnFEMI"
	cfg.Proxy.Host = "proxy.local"
	cfg.Proxy.Password = "hunter2"

	var out bytes.Buffer
	printConfig(&out, cfg, filepath.Join(t.TempDir(), "missing.ini"))
	s := out.String()

	for _, leaked := range []string{"eyJhbGciOi", "wJalrXUtnFEMI", "hunter2"} {
		if strings.Contains(s, leaked) {
			t.Errorf("secret %q printed", leaked)
		}
	}
	if !strings.Contains(s, "<set (21 chars)>") {
		t.Errorf("token length not shown:\n%s", s)
	}
	if !strings.Contains(s, "file does not exist") {
		t.Error("missing file not reported")
	}
}

func TestPrompterAsk(t *testing.T) {
	p, out := scriptedPrompter("", "value", "", "", "x")
	if v, _ := p.ask("Region", "us-east-1"); v != "us-east-1" {
		t.Errorf("default not used: %q", v)
	}
	if v, _ := p.ask("Region", "us-east-1"); v != "value" {
		t.Errorf("answer not used: %q", v)
	}
	if v, _ := p.require("Host", ""); v != "x" {
		t.Errorf("require = %q", v)
	}
	if strings.Count(out.String(), "host is required") != 2 {
		t.Errorf("expected two re-asks:\n%s", out.String())
	}
}
