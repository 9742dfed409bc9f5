package app

import (
	"fmt"
	"os"
	"path/filepath"

	"sethosts/internal/config"
	"sethosts/internal/paths"
	"sethosts/internal/storage"
	"sethosts/internal/storage/sqlite"
)

// App represents the application context
type App struct {
	Storage storage.Storage
	Config  *config.File
	DBPath  string
}

// New creates a new application instance. configPath may be empty, in which
// case ~/.config/sethosts/config.json is used when present and the embedded
// defaults otherwise.
func New(configPath, dbPath string) (*App, error) {
	if configPath == "" {
		if dir, err := paths.ConfigDir(); err == nil {
			candidate := filepath.Join(dir, "config.json")
			if _, err := os.Stat(candidate); err == nil {
				configPath = candidate
			}
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if dbPath == "" {
		dataDir, err := paths.DataDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get data directory: %w", err)
		}
		dbPath = filepath.Join(dataDir, "sethosts.db")
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	paths.ChownToRealUser(dbPath)

	return &App{
		Storage: store,
		Config:  cfg,
		DBPath:  dbPath,
	}, nil
}

// Close closes the application and releases resources
func (a *App) Close() error {
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
