// Package container wires the conversion service together and manages its
// lifecycle.
package container

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/deped/expenditure-matrix/internal/config"
	"github.com/deped/expenditure-matrix/internal/schema"
	"github.com/deped/expenditure-matrix/internal/storage"
	"github.com/deped/expenditure-matrix/internal/workbook"
	"github.com/deped/expenditure-matrix/pkg/database"
)

// ProvideDatabase opens the history database and applies pending migrations
func ProvideDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*database.DB, error) {
	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).Run(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// ProvideArchive returns nil when archiving is disabled
func ProvideArchive(cfg config.StorageConfig, logger *zap.Logger) *storage.MatrixArchive {
	if !cfg.ArchiveEnabled {
		return nil
	}
	return storage.NewMatrixArchive(cfg.ArchiveDir, logger)
}

// ProvideTemplate reads the Expenditure Matrix template and checks that it
// carries the target sheet, so a bad template fails at startup rather than
// on the first request.
func ProvideTemplate(path string, target schema.Target) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read matrix template: %w", err)
	}

	doc, err := workbook.OpenBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open matrix template %s: %w", path, err)
	}
	defer doc.Close()

	for _, name := range doc.SheetList() {
		if name == target.Sheet {
			return data, nil
		}
	}
	return nil, fmt.Errorf("matrix template %s has no sheet %q", path, target.Sheet)
}
