// Package service runs whole conversions: source workbooks in, one
// Expenditure Matrix out, with history and archival around it.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deped/expenditure-matrix/internal/config"
	"github.com/deped/expenditure-matrix/internal/extractor"
	"github.com/deped/expenditure-matrix/internal/matrix"
	"github.com/deped/expenditure-matrix/internal/models"
	"github.com/deped/expenditure-matrix/internal/schema"
	"github.com/deped/expenditure-matrix/internal/storage"
	"github.com/deped/expenditure-matrix/internal/workbook"
)

// ErrSourceLoad marks a source workbook that could not be opened
var ErrSourceLoad = errors.New("failed to load source workbook")

// Source is one uploaded Budget Estimate workbook
type Source struct {
	Name string
	Data []byte
}

// FileFailure is a source skipped under the skip policy
type FileFailure struct {
	File string `json:"file"`
	Err  error  `json:"-"`
}

func (f FileFailure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		File  string `json:"file"`
		Error string `json:"error"`
	}{f.File, f.Err.Error()})
}

// ConversionResult is a generated matrix and its bookkeeping
type ConversionResult struct {
	ConversionID string
	FileName     string
	Data         []byte
	Stats        matrix.Stats
	Skipped      []FileFailure
	ArchivePath  string
}

// HistoryStore records conversions
type HistoryStore interface {
	Create(ctx context.Context, c *models.Conversion) error
	List(ctx context.Context, limit, offset int) ([]*models.Conversion, error)
	Count(ctx context.Context) (int, error)
}

// Archiver keeps generated matrices
type Archiver interface {
	Save(conversionID string, createdAt time.Time, data []byte) (string, error)
}

// ConversionService converts Budget Estimates into an Expenditure Matrix
type ConversionService interface {
	Convert(ctx context.Context, sources []Source) (*ConversionResult, error)
	ListConversions(ctx context.Context, limit, offset int) ([]*models.Conversion, int, error)
}

// ConverterConfig holds the conversion settings
type ConverterConfig struct {
	Template      []byte // pristine Expenditure Matrix template
	FailurePolicy string // config.FailurePolicyAbort or config.FailurePolicySkip
	Schema        schema.Schema
}

// Converter implements ConversionService
type Converter struct {
	cfg       ConverterConfig
	extractor *extractor.Extractor
	generator *matrix.Generator
	history   HistoryStore // optional
	archive   Archiver     // optional
	logger    *zap.Logger
}

// NewConverter creates a converter. history and archive may be nil.
func NewConverter(cfg ConverterConfig, history HistoryStore, archive Archiver, logger *zap.Logger) *Converter {
	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = config.FailurePolicyAbort
	}
	return &Converter{
		cfg:       cfg,
		extractor: extractor.NewExtractor(cfg.Schema.Source, logger),
		generator: matrix.NewGenerator(cfg.Schema.Target, logger),
		history:   history,
		archive:   archive,
		logger:    logger,
	}
}

type extraction struct {
	activities []*models.Activity
	err        error
}

// Convert extracts every source concurrently and generates one matrix
func (c *Converter) Convert(ctx context.Context, sources []Source) (*ConversionResult, error) {
	start := time.Now()
	result := &ConversionResult{ConversionID: uuid.NewString()}
	result.FileName = storage.MatrixFileName(result.ConversionID)

	log := c.logger.With(zap.String("conversion_id", result.ConversionID))
	log.Info("Conversion started",
		zap.Int("files", len(sources)),
		zap.String("failure_policy", c.cfg.FailurePolicy))

	err := c.convert(ctx, sources, result, log)
	c.record(ctx, sources, result, err, time.Since(start), log)
	if err != nil {
		log.Error("Conversion failed", zap.Error(err))
		return nil, err
	}

	log.Info("Conversion completed",
		zap.Int("activities", result.Stats.Activities),
		zap.Int("skipped", len(result.Skipped)),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

func (c *Converter) convert(ctx context.Context, sources []Source, result *ConversionResult, log *zap.Logger) error {
	extracted := c.extractAll(sources)

	var lists [][]*models.Activity
	var errs []error
	for i, e := range extracted {
		if e.err == nil {
			lists = append(lists, e.activities)
			continue
		}
		if c.cfg.FailurePolicy == config.FailurePolicySkip {
			log.Warn("Skipping source workbook",
				zap.String("file", sources[i].Name),
				zap.Error(e.err))
			result.Skipped = append(result.Skipped, FileFailure{File: sources[i].Name, Err: e.err})
			continue
		}
		errs = append(errs, e.err)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	activities, err := matrix.Merge(lists...)
	if err != nil {
		return err
	}

	template, err := workbook.OpenBytes(c.cfg.Template)
	if err != nil {
		return fmt.Errorf("failed to open matrix template: %w", err)
	}
	defer template.Close()

	data, stats, err := c.generator.Generate(ctx, template, activities)
	if err != nil {
		return err
	}
	result.Data = data
	result.Stats = stats

	if c.archive != nil {
		path, err := c.archive.Save(result.ConversionID, time.Now(), data)
		if err != nil {
			log.Warn("Failed to archive matrix", zap.Error(err))
		} else {
			result.ArchivePath = path
		}
	}
	return nil
}

// extractAll loads and extracts each source on its own goroutine. Results
// keep the upload order.
func (c *Converter) extractAll(sources []Source) []extraction {
	results := make([]extraction, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			results[i] = c.extractOne(src)
		}(i, src)
	}
	wg.Wait()

	return results
}

func (c *Converter) extractOne(src Source) (out extraction) {
	defer func() {
		if r := recover(); r != nil {
			out.err = fmt.Errorf("%w %s: panic: %v", ErrSourceLoad, src.Name, r)
		}
	}()

	doc, err := workbook.OpenBytes(src.Data)
	if err != nil {
		return extraction{err: fmt.Errorf("%w %s: %w", ErrSourceLoad, src.Name, err)}
	}
	defer doc.Close()

	activities, err := c.extractor.Extract(src.Name, doc)
	return extraction{activities: activities, err: err}
}

func (c *Converter) record(ctx context.Context, sources []Source, result *ConversionResult, convErr error, elapsed time.Duration, log *zap.Logger) {
	if c.history == nil {
		return
	}

	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name
	}
	skipped := make([]string, len(result.Skipped))
	for i, s := range result.Skipped {
		skipped[i] = s.File
	}
	namesJSON, _ := json.Marshal(names)
	skippedJSON, _ := json.Marshal(skipped)

	conv := &models.Conversion{
		ConversionID:  result.ConversionID,
		SourceFiles:   string(namesJSON),
		SkippedFiles:  string(skippedJSON),
		ActivityCount: result.Stats.Activities,
		ItemCount:     result.Stats.Items,
		Status:        models.ConversionStatusSucceeded,
		OutputPath:    result.ArchivePath,
		DurationMS:    elapsed.Milliseconds(),
	}
	if convErr != nil {
		conv.Status = models.ConversionStatusFailed
		conv.ErrorMessage = convErr.Error()
	}

	// the request context may already be canceled
	if err := c.history.Create(context.WithoutCancel(ctx), conv); err != nil {
		log.Error("Failed to record conversion", zap.Error(err))
	}
}

// ListConversions returns a page of history and the total count
func (c *Converter) ListConversions(ctx context.Context, limit, offset int) ([]*models.Conversion, int, error) {
	if c.history == nil {
		return []*models.Conversion{}, 0, nil
	}
	list, err := c.history.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := c.history.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
