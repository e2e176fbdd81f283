package commands

import (
	"database/sql"
	"time"

	"github.com/odsconseil/bms/config"
	"github.com/odsconseil/bms/db"
	"github.com/odsconseil/bms/errors"
	"github.com/odsconseil/bms/internal/httpclient"
	"github.com/odsconseil/bms/logger"
	"github.com/odsconseil/bms/provider"
)

// openDatabase opens and migrates the database. An empty path falls
// back to the configured one.
func openDatabase(cfg *config.Config, dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		dbPath = cfg.Database.Path
	}
	if dbPath == "" {
		dbPath = "bms.db"
	}

	database, err := db.OpenWithMigrations(dbPath, logger.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", dbPath)
	}
	return database, nil
}

// buildProviderChain assembles the configured search providers in
// priority order: Google, then Bing, then the BOAMP board scraper.
func buildProviderChain(cfg *config.Config) *provider.Chain {
	timeout := time.Duration(cfg.Providers.TimeoutSeconds) * time.Second
	client := httpclient.New(timeout)

	providers := []provider.Provider{
		provider.NewGoogle(cfg.Providers.Google.APIKey, cfg.Providers.Google.CSEID, client, cfg.Providers.MaxResults),
		provider.NewBing(cfg.Providers.Bing.APIKey, client, cfg.Providers.MaxResults),
		provider.NewBOAMP(client, cfg.Providers.MaxResults),
	}

	return provider.NewChain(providers, timeout, logger.Logger)
}
