package cli

import (
	"fmt"
	"strings"

	"github.com/distrohub/mediadesk/internal/api"
	"github.com/distrohub/mediadesk/internal/cloud/providers"
	"github.com/distrohub/mediadesk/internal/cloud/upload"
	"github.com/distrohub/mediadesk/internal/config"
	"github.com/distrohub/mediadesk/internal/logging"
	"github.com/distrohub/mediadesk/internal/manager"
	"github.com/distrohub/mediadesk/internal/session"
	"github.com/distrohub/mediadesk/internal/state"
)

// loadConfig reads the config file and applies the global flag overrides.
// Flags win over environment, which wins over the file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	applyFlagOverrides(cfg)
	if !verbose && !debug {
		logging.SetGlobalLevel(logging.ParseLevel(cfg.Log.Level))
	}
	return cfg, nil
}

func applyFlagOverrides(cfg *config.Config) {
	if apiBaseURL != "" {
		cfg.API.BaseURL = strings.TrimSuffix(strings.TrimSpace(apiBaseURL), "/")
	}
	if userID != "" {
		cfg.Session.UserID = userID
	}
	if distributorID != "" {
		cfg.Session.DistributorID = distributorID
	}
	if token != "" {
		cfg.Session.Token = token
	}
}

// getAPIClient loads configuration and creates an API client.
// This is the standard way to get an API client in CLI commands.
func getAPIClient() (*api.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	client, err := api.NewClient(cfg, GetLogger())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, cfg, nil
}

// getSession builds the acting session from the merged configuration.
func getSession(cfg *config.Config) (*session.Session, error) {
	sess, err := session.FromConfig(cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}
	return sess, nil
}

// managerOptions maps the [media] section onto manager options.
func managerOptions(cfg *config.Config) manager.Options {
	return manager.Options{
		PageLimit: cfg.Media.PageLimit,
		SortBy:    cfg.Media.SortBy,
		SortOrder: cfg.Media.SortOrder,
		View:      state.ParseViewMode(cfg.Media.View),
		EventBus:  GetEventBus(),
		Logger:    GetLogger(),
	}
}

// newManager builds a media manager and loads the folder tree and the
// first page. tweaks adjust the options before anything is fetched.
func newManager(tweaks ...func(*manager.Options)) (*manager.Manager, *config.Config, error) {
	client, cfg, err := getAPIClient()
	if err != nil {
		return nil, nil, err
	}
	sess, err := getSession(cfg)
	if err != nil {
		return nil, nil, err
	}
	opts := managerOptions(cfg)
	for _, t := range tweaks {
		t(&opts)
	}
	m := manager.New(client, sess, opts)
	if err := m.Refresh(GetContext()); err != nil {
		return nil, nil, err
	}
	return m, cfg, nil
}

// enableUploads attaches the configured hosted provider to m.
func enableUploads(m *manager.Manager, cfg *config.Config, opts upload.Options) (*upload.Uploader, error) {
	provider, err := providers.New(GetContext(), cfg, nil, GetLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to configure upload provider: %w", err)
	}
	return m.EnableUploads(provider, opts), nil
}
