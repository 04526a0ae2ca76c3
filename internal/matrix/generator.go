// Package matrix synthesizes the Expenditure Matrix from extracted activities.
//
// Activities are merged, sorted by program and output, and their pooled
// travel allowances folded into a Program Support Fund activity. A layout
// pass then places each activity's rows below a cursor, the template's
// row-blocks are cloned into place and filled, and the grand-total row is
// written over the recorded activity anchors.
package matrix

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/deped/expenditure-matrix/internal/models"
	"github.com/deped/expenditure-matrix/internal/schema"
	"github.com/deped/expenditure-matrix/internal/workbook"
)

// Stats summarizes a generated matrix
type Stats struct {
	Activities    int
	Items         int
	Programs      int
	Outputs       int
	PSFItems      int
	GrandTotalRow int
	Duration      time.Duration
}

// Generator runs the synthesis pipeline over a template document
type Generator struct {
	target    schema.Target
	synth     *Synthesizer
	finalizer *Finalizer
	logger    *zap.Logger
}

// NewGenerator creates a generator for the given target layout
func NewGenerator(t schema.Target, logger *zap.Logger) *Generator {
	return &Generator{
		target:    t,
		synth:     NewSynthesizer(t, logger),
		finalizer: NewFinalizer(t),
		logger:    logger,
	}
}

// Generate fills template with activities and returns the serialized matrix.
// The template document is modified in place.
func (g *Generator) Generate(ctx context.Context, template workbook.Document, activities []*models.Activity) ([]byte, Stats, error) {
	start := time.Now()
	var stats Stats

	ordered, err := Prepare(activities)
	if err != nil {
		return nil, stats, err
	}
	if !hasSheet(template, g.target.Sheet) {
		return nil, stats, fmt.Errorf("%w: %q", ErrTemplateSheetMissing, g.target.Sheet)
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	var cursor Cursor
	for _, a := range ordered {
		layout, next := Plan(cursor, a, g.target)
		if err := g.synth.Write(template, layout, a); err != nil {
			return nil, stats, fmt.Errorf("failed to write activity %q: %w", a.Info.ActivityTitle, err)
		}
		cursor = next

		if layout.Program != nil {
			stats.Programs++
		}
		if layout.Output != nil {
			stats.Outputs++
		}
		if a.Info.Program == models.PSFProgram {
			stats.PSFItems = len(a.Expenses)
		}
		stats.Items += len(a.Expenses)
	}
	stats.Activities = cursor.Index

	data, totalRow, err := g.finalizer.Finalize(template, cursor)
	if err != nil {
		return nil, stats, err
	}
	stats.GrandTotalRow = totalRow
	stats.Duration = time.Since(start)

	g.logger.Info("Expenditure matrix generated",
		zap.Int("activities", stats.Activities),
		zap.Int("items", stats.Items),
		zap.Int("programs", stats.Programs),
		zap.Int("outputs", stats.Outputs),
		zap.Int("grand_total_row", stats.GrandTotalRow),
		zap.Duration("duration", stats.Duration))

	return data, stats, nil
}

func hasSheet(doc workbook.Reader, name string) bool {
	for _, s := range doc.SheetList() {
		if s == name {
			return true
		}
	}
	return false
}
