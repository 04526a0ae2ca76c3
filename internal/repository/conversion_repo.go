package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/deped/expenditure-matrix/internal/models"
)

// ErrConversionNotFound is returned when no conversion has the requested ID
var ErrConversionNotFound = errors.New("conversion not found")

// ConversionRepository stores the conversion history
type ConversionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewConversionRepository creates a new conversion repository
func NewConversionRepository(db *sql.DB, logger *zap.Logger) *ConversionRepository {
	return &ConversionRepository{
		db:     db,
		logger: logger,
	}
}

// Create records a finished conversion
func (r *ConversionRepository) Create(ctx context.Context, c *models.Conversion) error {
	query := `
		INSERT INTO conversions (
			conversion_id, source_files, skipped_files, activity_count, item_count,
			status, error_message, output_path, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		c.ConversionID,
		c.SourceFiles,
		c.SkippedFiles,
		c.ActivityCount,
		c.ItemCount,
		c.Status,
		c.ErrorMessage,
		c.OutputPath,
		c.DurationMS,
	)
	if err != nil {
		r.logger.Error("Failed to create conversion record",
			zap.String("conversion_id", c.ConversionID), zap.Error(err))
		return fmt.Errorf("failed to create conversion: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	c.ID = id
	return nil
}

// GetByConversionID retrieves one conversion by its public ID
func (r *ConversionRepository) GetByConversionID(ctx context.Context, conversionID string) (*models.Conversion, error) {
	query := `
		SELECT id, conversion_id, source_files, skipped_files, activity_count, item_count,
			status, error_message, output_path, duration_ms, created_at
		FROM conversions
		WHERE conversion_id = ?
	`

	c, err := scanConversion(r.db.QueryRowContext(ctx, query, conversionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConversionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversion: %w", err)
	}
	return c, nil
}

// List returns conversions newest first
func (r *ConversionRepository) List(ctx context.Context, limit, offset int) ([]*models.Conversion, error) {
	query := `
		SELECT id, conversion_id, source_files, skipped_files, activity_count, item_count,
			status, error_message, output_path, duration_ms, created_at
		FROM conversions
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list conversions", zap.Error(err))
		return nil, fmt.Errorf("failed to list conversions: %w", err)
	}
	defer rows.Close()

	conversions := []*models.Conversion{}
	for rows.Next() {
		c, err := scanConversion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversion: %w", err)
		}
		conversions = append(conversions, c)
	}
	return conversions, rows.Err()
}

// Count returns the number of recorded conversions
func (r *ConversionRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM conversions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count conversions: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanConversion(s scanner) (*models.Conversion, error) {
	var c models.Conversion
	err := s.Scan(
		&c.ID,
		&c.ConversionID,
		&c.SourceFiles,
		&c.SkippedFiles,
		&c.ActivityCount,
		&c.ItemCount,
		&c.Status,
		&c.ErrorMessage,
		&c.OutputPath,
		&c.DurationMS,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
