package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/deped/expenditure-matrix/internal/config"
	transport "github.com/deped/expenditure-matrix/internal/interfaces/http"
	"github.com/deped/expenditure-matrix/internal/repository"
	"github.com/deped/expenditure-matrix/internal/schema"
	"github.com/deped/expenditure-matrix/internal/service"
	"github.com/deped/expenditure-matrix/pkg/database"
)

// Container owns the database, the conversion service and the HTTP server.
// Components come up in dependency order and are torn down in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger

	db        *database.DB
	history   *repository.ConversionRepository
	converter *service.Converter
	server    *transport.Server

	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// NewContainer creates a container. It does not initialize components;
// call Start.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes the database, the converter and the HTTP server
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	sch := schema.Default()

	template, err := ProvideTemplate(c.config.Conversion.TemplatePath, sch.Target)
	if err != nil {
		return err
	}

	db, err := ProvideDatabase(ctx, c.config.Database, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.db = db
	c.history = repository.NewConversionRepository(db.DB, c.logger)
	c.logger.Info("Database initialized", zap.String("path", c.config.Database.Path))

	var archive service.Archiver
	if a := ProvideArchive(c.config.Storage, c.logger); a != nil {
		archive = a
		c.logger.Info("Matrix archive enabled", zap.String("dir", c.config.Storage.ArchiveDir))
	}

	c.converter = service.NewConverter(service.ConverterConfig{
		Template:      template,
		FailurePolicy: c.config.Conversion.FailurePolicy,
		Schema:        sch,
	}, c.history, archive, c.logger)

	c.server = transport.NewServer(c.config.Server, c.converter, c.logger)

	c.ready.Store(true)
	c.logger.Info("Container started",
		zap.String("schema_version", sch.Version),
		zap.String("failure_policy", c.config.Conversion.FailurePolicy))
	return nil
}

// Close releases every component in reverse order
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	var errs []error
	if c.server != nil {
		if err := c.server.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop server: %w", err))
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)
	return errors.Join(errs...)
}

// Ready reports whether Start has completed
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Converter returns the conversion service
func (c *Container) Converter() *service.Converter {
	return c.converter
}

// Server returns the HTTP server
func (c *Container) Server() *transport.Server {
	return c.server
}
