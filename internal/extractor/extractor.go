// Package extractor reads Activity records out of Budget Estimate workbooks.
package extractor

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/deped/expenditure-matrix/internal/models"
	"github.com/deped/expenditure-matrix/internal/schema"
	"github.com/deped/expenditure-matrix/internal/workbook"
)

// Extractor pulls activities from source workbooks
type Extractor struct {
	src        schema.Source
	classifier *Classifier
	auxiliary  map[string]struct{}
	logger     *zap.Logger
}

// NewExtractor creates an extractor bound to one source schema
func NewExtractor(src schema.Source, logger *zap.Logger) *Extractor {
	aux := make(map[string]struct{}, len(src.AuxiliarySheets))
	for _, s := range src.AuxiliarySheets {
		aux[s] = struct{}{}
	}
	return &Extractor{
		src:        src,
		classifier: NewClassifier(src.AirOnlyDestinations),
		auxiliary:  aux,
		logger:     logger,
	}
}

// blockOptions controls how one expense block is read
type blockOptions struct {
	releaseManner string
	directPayment bool // a flag in the direct-payment column switches the manner to Direct Payment
	travel        bool
}

// Extract returns one activity per qualifying sheet of doc
func (e *Extractor) Extract(file string, doc workbook.Reader) ([]*models.Activity, error) {
	var activities []*models.Activity

	for _, sheet := range doc.SheetList() {
		if _, skip := e.auxiliary[sheet]; skip {
			continue
		}
		marker, err := doc.CellValue(sheet, e.src.MarkerCell)
		if err != nil {
			return nil, &ParseError{File: file, Sheet: sheet, Err: err}
		}
		if strings.TrimSpace(marker) != e.src.MarkerText {
			e.logger.Debug("Skipping non-qualifying sheet",
				zap.String("file", file),
				zap.String("sheet", sheet))
			continue
		}

		activity, err := e.extractSheet(file, sheet, doc)
		if err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}

	e.logger.Info("Extracted activities",
		zap.String("file", file),
		zap.Int("activity_count", len(activities)))

	return activities, nil
}

// extractSheet reads a qualifying sheet; every failure leaves as a *ParseError
func (e *Extractor) extractSheet(file, sheet string, doc workbook.Reader) (activity *models.Activity, err error) {
	title := ""
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected fault: %v", r)
		}
		if err == nil {
			return
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			e.logger.Error("Failed to extract sheet",
				zap.String("file", file),
				zap.String("sheet", sheet),
				zap.String("activity_title", title),
				zap.Error(err))
			err = &ParseError{File: file, Sheet: sheet, ActivityTitle: title, Err: err}
		}
		activity = nil
	}()

	title, err = e.text(doc, sheet, e.src.ActivityTitle)
	if err != nil {
		return nil, err
	}

	month, err := e.startMonth(doc, sheet)
	if err != nil {
		return nil, &ParseError{File: file, Sheet: sheet, ActivityTitle: title, Err: err}
	}

	info := models.ActivityInfo{ActivityTitle: title, Month: month}
	for cell, dst := range map[string]*string{
		e.src.Program:           &info.Program,
		e.src.Output:            &info.Output,
		e.src.OutputIndicator:   &info.OutputIndicator,
		e.src.ActivityIndicator: &info.ActivityIndicator,
		e.src.Venue:             &info.Venue,
	} {
		if *dst, err = e.text(doc, sheet, cell); err != nil {
			return nil, err
		}
	}
	if info.OutputPhysicalTarget, err = e.target(doc, sheet, e.src.OutputPhysicalTarget); err != nil {
		return nil, err
	}
	if info.ActivityPhysicalTarget, err = e.target(doc, sheet, e.src.ActivityPhysicalTarget); err != nil {
		return nil, err
	}

	activity = &models.Activity{
		Info:       info,
		Expenses:   []models.ExpenseItem{},
		SourceFile: file,
		Sheet:      sheet,
	}

	reads := []struct {
		block schema.ExpenseBlock
		opts  blockOptions
	}{
		{e.src.BoardLodging, blockOptions{releaseManner: models.ReleaseForDownloadBoard, directPayment: true}},
		{e.src.TravelPool, blockOptions{releaseManner: models.ReleaseCashAdvance, travel: true}},
		{e.src.TravelNonPool, blockOptions{releaseManner: models.ReleaseCashAdvance, travel: true}},
		{e.src.TravelOther, blockOptions{releaseManner: models.ReleaseCashAdvance, travel: true}},
		{e.src.Honorarium, blockOptions{releaseManner: models.ReleaseDirectPayment}},
		{e.src.Other, blockOptions{releaseManner: models.ReleaseCashAdvance}},
	}
	for _, r := range reads {
		items, pooled, err := e.readBlock(doc, sheet, r.block, r.opts, info.Venue)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", r.block.Name, err)
		}
		activity.Expenses = append(activity.Expenses, items...)
		activity.TEVPSF = append(activity.TEVPSF, pooled...)
	}

	e.logger.Debug("Extracted activity",
		zap.String("file", file),
		zap.String("sheet", sheet),
		zap.String("activity_title", title),
		zap.Int("expense_count", len(activity.Expenses)),
		zap.Int("tev_psf_count", len(activity.TEVPSF)))

	return activity, nil
}

// readBlock reads block.Rows rows starting at the block origin. A row yields
// an item only when its quantity is a positive number.
func (e *Extractor) readBlock(doc workbook.Reader, sheet string, block schema.ExpenseBlock, opts blockOptions, venue string) (items, pooled []models.ExpenseItem, err error) {
	for r := 0; r < block.Rows; r++ {
		qty, err := e.number(doc, sheet, block.Cell(r, e.src.QuantityOffset))
		if err != nil {
			return nil, nil, err
		}
		if qty <= 0 {
			continue
		}
		freq, err := e.number(doc, sheet, block.Cell(r, e.src.FreqOffset))
		if err != nil {
			return nil, nil, err
		}
		if freq <= 0 {
			freq = 1
		}
		unitCost, err := e.number(doc, sheet, block.Cell(r, e.src.UnitCostOffset))
		if err != nil {
			return nil, nil, err
		}
		label, err := e.text(doc, sheet, block.Cell(r, 0))
		if err != nil {
			return nil, nil, err
		}

		composed := block.Prefix
		if label != "" {
			composed = block.Prefix + " - " + label
		}

		item := models.ExpenseItem{
			ExpenseItem:   composed,
			Quantity:      qty,
			Freq:          freq,
			UnitCost:      unitCost,
			ReleaseManner: opts.releaseManner,
		}

		if opts.directPayment {
			flag, err := e.text(doc, sheet, block.Cell(r, e.src.DirectPaymentOffset))
			if err != nil {
				return nil, nil, err
			}
			if isChecked(flag) {
				item.ReleaseManner = models.ReleaseDirectPayment
			}
		}

		isPool := opts.travel && IsTravelPool(composed)
		if isPool {
			item.ReleaseManner = models.ReleaseForDownloadPSF
			item.TEVLocation = label
		}

		c := e.classifier.Classify(ClassifyInput{
			Label:    composed,
			Quantity: qty,
			Freq:     freq,
			UnitCost: unitCost,
			Venue:    venue,
			Travel:   opts.travel,
			Pooled:   isPool,
		})
		item.ExpenseGroup = c.ExpenseGroup
		item.GAAObject = c.GAAObject
		item.HasPPMP = c.HasPPMP
		item.HasAPPSupplies = c.HasAPPSupplies
		item.HasAPPTicket = c.HasAPPTicket

		if isPool {
			pooled = append(pooled, item)
		} else {
			items = append(items, item)
		}
	}
	return items, pooled, nil
}

func (e *Extractor) text(doc workbook.Reader, sheet, cell string) (string, error) {
	v, err := doc.CellValue(sheet, cell)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", cell, err)
	}
	return strings.TrimSpace(v), nil
}

// number reads a cell as a number; blank or non-numeric cells read as 0
func (e *Extractor) number(doc workbook.Reader, sheet, cell string) (float64, error) {
	v, err := doc.CellRaw(sheet, cell)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", cell, err)
	}
	n, ok := parseNumber(v)
	if !ok {
		return 0, nil
	}
	return n, nil
}

func (e *Extractor) target(doc workbook.Reader, sheet, cell string) (int, error) {
	n, err := e.number(doc, sheet, cell)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, nil
	}
	return int(math.Round(n)), nil
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1-2-06",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	time.RFC3339,
}

// startMonth returns the 0-based month of the start date
func (e *Extractor) startMonth(doc workbook.Reader, sheet string) (int, error) {
	raw, err := doc.CellRaw(sheet, e.src.StartDate)
	if err != nil {
		return 0, fmt.Errorf("failed to read start date: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrMissingStartDate
	}

	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidStartDate, raw)
		}
		return int(t.Month()) - 1, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return int(t.Month()) - 1, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStartDate, raw)
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func isChecked(flag string) bool {
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case "y", "yes", "x", "true", "1", "/", "✓", "dp":
		return true
	}
	return false
}
