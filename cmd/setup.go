package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/tracklift/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the database and runs migrations, or with --rollback reverts the latest one.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("rollback") {
		return r.rollbackDatabase()
	}

	path, err := r.config.Database.ResolvedPath()
	if err != nil {
		return err
	}
	r.logger.Info("initializing database", "path", path)

	db, err := r.openDatabase()
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	version, err := shared.SchemaVersion(db)
	if err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", path)
	return r.writePlain("✓ Database ready at %s (schema version %d)\n", path, version)
}

func (r *Runner) rollbackDatabase() error {
	db, path, err := r.connect()
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := shared.RollbackMigration(db)
	if err != nil {
		return err
	}

	r.logger.Warn("migration rolled back", "path", path, "migration", m.String())
	return r.writePlain("✓ Rolled back migration %s\n", m)
}

// SetupConfig writes the example configuration to --path or the user config directory.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if path == "" {
		path = shared.ConfigSearchPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlain("Next: set credentials.spotify.client_id and client_secret, then run 'tracklift serve'\n")
	return nil
}
