package matrix

import (
	"fmt"
	"strings"

	"github.com/deped/expenditure-matrix/internal/schema"
	"github.com/deped/expenditure-matrix/internal/workbook"
)

// maxSumArgs is the argument limit of a spreadsheet function call
const maxSumArgs = 255

// Finalizer closes the matrix: it drops the trailing template rows and
// writes the grand totals over the activity anchors
type Finalizer struct {
	target schema.Target
}

func NewFinalizer(t schema.Target) *Finalizer {
	return &Finalizer{target: t}
}

// Finalize writes the grand-total row after c and serializes doc.
// It returns the grand-total row index with the bytes.
func (f *Finalizer) Finalize(doc workbook.Document, c Cursor) ([]byte, int, error) {
	t := f.target

	unused := t.GuidanceRows
	if c.Spare {
		unused++
	}
	if err := doc.RemoveRows(t.Sheet, c.Row+1, unused); err != nil {
		return nil, 0, fmt.Errorf("failed to remove guidance rows: %w", err)
	}

	totalRow := c.Row + 1
	cols := append([]string{t.ColTotalCost, t.ColObligationTotal, t.ColDisbursementTotal}, t.MonthColumns()...)
	for _, col := range cols {
		cell := schema.Addr(col, totalRow)
		if err := doc.SetCellFormula(t.Sheet, cell, SumOf(col, c.Anchors)); err != nil {
			return nil, 0, fmt.Errorf("failed to write grand total %s: %w", cell, err)
		}
	}

	buf, err := doc.WriteToBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to serialize matrix: %w", err)
	}
	return buf.Bytes(), totalRow, nil
}

// SumOf renders SUM(col r1,col r2,...) over rows in order. Lists longer than
// the function argument limit are nested in chunks.
func SumOf(col string, rows []int) string {
	args := make([]string, len(rows))
	for i, r := range rows {
		args[i] = schema.Addr(col, r)
	}
	for len(args) > maxSumArgs {
		var nested []string
		for i := 0; i < len(args); i += maxSumArgs {
			end := i + maxSumArgs
			if end > len(args) {
				end = len(args)
			}
			nested = append(nested, "SUM("+strings.Join(args[i:end], ",")+")")
		}
		args = nested
	}
	return "SUM(" + strings.Join(args, ",") + ")"
}
