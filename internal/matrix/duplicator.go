package matrix

import (
	"fmt"
	"strconv"

	"github.com/deped/expenditure-matrix/internal/schema"
	"github.com/deped/expenditure-matrix/internal/workbook"
)

// RowCopyMap tells the duplicator to clone SrcRow NumRows times at TargetRow
type RowCopyMap struct {
	TargetRow int
	SrcRow    int
	NumRows   int
}

// Duplicator clones template rows cell by cell
type Duplicator struct {
	sheet string
	width int // columns 1..width are copied
}

// NewDuplicator creates a duplicator for the matrix sheet of t
func NewDuplicator(t schema.Target) *Duplicator {
	return &Duplicator{sheet: t.Sheet, width: t.LastCol}
}

type templateCell struct {
	value       string
	formula     string
	style       int
	validations []workbook.Validation
}

// Duplicate inserts m.NumRows rows at m.TargetRow, each a clone of m.SrcRow.
// Formula cells become shared-formula references anchored at the template cell.
// It returns the template row's index after the insertion.
func (d *Duplicator) Duplicate(doc workbook.Document, m RowCopyMap) (int, error) {
	src := m.SrcRow
	if m.NumRows <= 0 {
		return src, nil
	}
	if err := doc.InsertRows(d.sheet, m.TargetRow, m.NumRows); err != nil {
		return src, err
	}
	if m.TargetRow <= src {
		src += m.NumRows
	}

	cells, err := d.readRow(doc, src)
	if err != nil {
		return src, err
	}

	for i := 0; i < m.NumRows; i++ {
		row := m.TargetRow + i
		for col, tc := range cells {
			if err := d.writeCell(doc, schema.MustCell(col+1, row), schema.MustCell(col+1, src), tc); err != nil {
				return src, err
			}
		}
	}
	return src, nil
}

func (d *Duplicator) readRow(doc workbook.Document, row int) ([]templateCell, error) {
	cells := make([]templateCell, d.width)
	for col := 1; col <= d.width; col++ {
		addr := schema.MustCell(col, row)
		tc := &cells[col-1]

		var err error
		if tc.formula, err = doc.CellFormula(d.sheet, addr); err != nil {
			return nil, fmt.Errorf("failed to read formula %s: %w", addr, err)
		}
		if tc.value, err = doc.CellRaw(d.sheet, addr); err != nil {
			return nil, fmt.Errorf("failed to read value %s: %w", addr, err)
		}
		if tc.style, err = doc.CellStyle(d.sheet, addr); err != nil {
			return nil, fmt.Errorf("failed to read style %s: %w", addr, err)
		}
		if tc.validations, err = doc.CellValidations(d.sheet, addr); err != nil {
			return nil, err
		}
	}
	return cells, nil
}

func (d *Duplicator) writeCell(doc workbook.Document, cell, anchor string, tc templateCell) error {
	if tc.style != 0 {
		if err := doc.SetCellStyle(d.sheet, cell, tc.style); err != nil {
			return fmt.Errorf("failed to copy style to %s: %w", cell, err)
		}
	}

	switch {
	case tc.formula != "":
		if err := doc.SetSharedFormula(d.sheet, cell, anchor); err != nil {
			return fmt.Errorf("failed to share formula %s into %s: %w", anchor, cell, err)
		}
	case tc.value != "":
		if err := doc.SetCellValue(d.sheet, cell, typedValue(tc.value)); err != nil {
			return fmt.Errorf("failed to copy value to %s: %w", cell, err)
		}
	}

	for _, v := range tc.validations {
		if err := doc.AddValidation(d.sheet, cell, v); err != nil {
			return fmt.Errorf("failed to copy validation to %s: %w", cell, err)
		}
	}
	return nil
}

// typedValue keeps numeric template values numeric
func typedValue(raw string) interface{} {
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
