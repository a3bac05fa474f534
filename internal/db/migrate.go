package db

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/necronomicon/backend/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrate applies every pending migration found in dir to the database at
// databaseURL. An up to date schema is not an error.
func Migrate(dir, databaseURL string) error {
	src, err := sourceURL(dir)
	if err != nil {
		return err
	}

	m, err := migrate.New(src, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	logger.Info("[DB] Schema migrated", "version", version, "dirty", dirty)
	return nil
}

func sourceURL(dir string) (string, error) {
	if dir == "" {
		dir = "migrations"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(abs), nil
}
