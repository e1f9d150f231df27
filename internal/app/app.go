// Package app wires configuration, storage, clients, and services into a
// single shared core used by cmd/networth-server.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/networth-app/networth/internal/clients/plaid"
	"github.com/networth-app/networth/internal/common"
	"github.com/networth-app/networth/internal/interfaces"
	"github.com/networth-app/networth/internal/services/link"
	"github.com/networth-app/networth/internal/services/overview"
	"github.com/networth-app/networth/internal/storage"
)

// devCipherKey keeps local development runnable without provisioning a
// key. Production refuses to start without an explicit cipher key.
const devCipherKey = "6465762d6f6e6c792d636970686572216465762d6f6e6c792d63697068657221"

// App holds all initialized services, clients, and storage.
type App struct {
	Config          *common.Config
	Logger          *common.Logger
	Storage         interfaces.StorageManager
	ProviderClient  interfaces.ProviderClient
	OverviewService interfaces.OverviewService
	LinkService     interfaces.LinkService
	StartupTime     time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, the provider client, and all services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	// Load configuration - check provided path, NETWORTH_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("NETWORTH_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "networth.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/networth.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLogger(config.Logging.Level)

	if config.Storage.CipherKey == "" {
		if config.IsProduction() {
			return nil, fmt.Errorf("storage cipher key is required in production")
		}
		logger.Warn().Msg("No cipher key configured - using development default")
		config.Storage.CipherKey = devCipherKey
	}

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if config.Provider.ClientID == "" || config.Provider.Secret == "" {
		logger.Warn().Msg("Provider credentials not configured - linking and overview will be unavailable")
	}

	providerClient := plaid.NewClient(config.Provider.ClientID, config.Provider.Secret,
		plaid.WithBaseURL(config.Provider.BaseURL),
		plaid.WithLogger(logger),
		plaid.WithRateLimit(config.Provider.RateLimit),
		plaid.WithTimeout(config.Provider.GetTimeout()),
	)

	overviewService := overview.NewService(storageManager, providerClient, logger)
	overviewService.SetMaxReadyRetries(config.Provider.MaxReadyRetries)
	linkService := link.NewService(storageManager, providerClient, logger)

	a := &App{
		Config:          config,
		Logger:          logger,
		Storage:         storageManager,
		ProviderClient:  providerClient,
		OverviewService: overviewService,
		LinkService:     linkService,
		StartupTime:     startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
