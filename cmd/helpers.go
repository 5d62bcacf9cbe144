// Package cmd provides CLI commands for the recap tool.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/recap-cli/config"
	"github.com/otherjamesbrown/recap-cli/credentials"
	"github.com/otherjamesbrown/recap-cli/pkg/db"
	"github.com/otherjamesbrown/recap-cli/pkg/graph"
	"github.com/otherjamesbrown/recap-cli/pkg/logging"
)

// connectToDatabase opens a connection pool from CLI configuration.
func connectToDatabase(ctx context.Context, cfg *config.CLIConfig) (*pgxpool.Pool, error) {
	dbCfg := db.DefaultConfig()
	dbCfg.Host = cfg.Database.Host
	dbCfg.Port = cfg.Database.Port
	dbCfg.Database = cfg.Database.Name
	dbCfg.User = cfg.Database.User
	dbCfg.Password = cfg.Database.Password
	if cfg.Database.SSLMode != "" {
		dbCfg.SSLMode = cfg.Database.SSLMode
	}

	pool, err := db.Connect(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}

// newGraphClient builds an authenticated API client from configuration and
// stored credentials. The delegated refresh-token flow wins when the stored
// credentials carry one; otherwise the client-credentials grant is used.
func newGraphClient(cfg *config.CLIConfig, logger logging.Logger) (*graph.Client, error) {
	store, err := credentials.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	creds, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("no stored credentials, run 'recap auth set' first: %w", err)
	}

	tenantID := creds.TenantID
	if tenantID == "" {
		tenantID = cfg.Graph.TenantID
	}
	clientID := creds.ClientID
	if clientID == "" {
		clientID = cfg.Graph.ClientID
	}

	var tokens graph.TokenSource
	if creds.RefreshToken != "" {
		tokens = graph.NewRefreshTokenSource("", tenantID, clientID, creds.RefreshToken)
	} else {
		tokens = graph.NewAppTokenSource("", tenantID, clientID, creds.ClientSecret)
	}

	return graph.NewClient(graph.Config{
		BaseURL: cfg.Graph.BaseURL,
		Tokens:  tokens,
		Logger:  logger,
	})
}

// newCommandLogger builds a logger from CLI configuration.
func newCommandLogger(cfg *config.CLIConfig) logging.Logger {
	logCfg := logging.DefaultConfig()
	if cfg.Logging.Level != "" {
		logCfg.Level = logging.Level(cfg.Logging.Level)
	}
	logCfg.JSONFormat = cfg.Logging.JSON
	return logging.NewLogger(logCfg)
}

// printJSON renders v as indented JSON on stdout.
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// printYAML renders v as YAML on stdout.
func printYAML(v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}
