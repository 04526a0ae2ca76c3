// Package testutil builds in-memory Budget Estimate workbooks and Expenditure
// Matrix templates that follow the current schema, for use in tests.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/deped/expenditure-matrix/internal/models"
	"github.com/deped/expenditure-matrix/internal/schema"
)

// BlockRow is one row of a source expense block
type BlockRow struct {
	Label         string
	Quantity      interface{}
	Freq          interface{}
	UnitCost      interface{}
	DirectPayment string
}

// SourceSheet describes one sheet of a Budget Estimate workbook
type SourceSheet struct {
	Name   string
	Marker string // defaults to the schema marker text
	Info   models.ActivityInfo
	// StartDate is written as-is; nil leaves the cell empty
	StartDate interface{}
	// Blocks is keyed by schema.ExpenseBlock.Name
	Blocks map[string][]BlockRow
}

// SourceWorkbook builds a Budget Estimate workbook with one sheet per entry
func SourceWorkbook(t testing.TB, sheets ...SourceSheet) []byte {
	t.Helper()
	src := schema.Default().Source

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", s.Name))
		} else {
			_, err := f.NewSheet(s.Name)
			require.NoError(t, err)
		}

		marker := s.Marker
		if marker == "" {
			marker = src.MarkerText
		}
		set := func(cell string, v interface{}) {
			require.NoError(t, f.SetCellValue(s.Name, cell, v))
		}
		set(src.MarkerCell, marker)
		set(src.Program, s.Info.Program)
		set(src.Output, s.Info.Output)
		set(src.OutputIndicator, s.Info.OutputIndicator)
		set(src.ActivityTitle, s.Info.ActivityTitle)
		set(src.ActivityIndicator, s.Info.ActivityIndicator)
		set(src.Venue, s.Info.Venue)
		set(src.OutputPhysicalTarget, s.Info.OutputPhysicalTarget)
		set(src.ActivityPhysicalTarget, s.Info.ActivityPhysicalTarget)
		if s.StartDate != nil {
			set(src.StartDate, s.StartDate)
		}

		for _, block := range []schema.ExpenseBlock{
			src.BoardLodging, src.TravelPool, src.TravelNonPool,
			src.TravelOther, src.Honorarium, src.Other,
		} {
			for r, row := range s.Blocks[block.Name] {
				require.Less(t, r, block.Rows, "too many rows for block %s", block.Name)
				set(block.Cell(r, 0), row.Label)
				if row.Quantity != nil {
					set(block.Cell(r, src.QuantityOffset), row.Quantity)
				}
				if row.Freq != nil {
					set(block.Cell(r, src.FreqOffset), row.Freq)
				}
				if row.UnitCost != nil {
					set(block.Cell(r, src.UnitCostOffset), row.UnitCost)
				}
				if row.DirectPayment != "" {
					set(block.Cell(r, src.DirectPaymentOffset), row.DirectPayment)
				}
			}
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// Date is a convenience for start dates
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Template styles, exposed so tests can assert they survive duplication
type TemplateStyles struct {
	Program  int
	Output   int
	Activity int
	Expense  int
}

// MatrixTemplate builds an Expenditure Matrix template and returns it with
// the style IDs used on each template row
func MatrixTemplate(t testing.TB) (*excelize.File, TemplateStyles) {
	t.Helper()
	tgt := schema.Default().Target

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", tgt.Sheet))
	_, err := f.NewSheet("Lists")
	require.NoError(t, err)

	var styles TemplateStyles
	styles.Program, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}})
	require.NoError(t, err)
	styles.Output, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Italic: true}})
	require.NoError(t, err)
	styles.Activity, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Italic: true}, NumFmt: 4})
	require.NoError(t, err)
	styles.Expense, err = f.NewStyle(&excelize.Style{NumFmt: 4})
	require.NoError(t, err)

	set := func(cell string, v interface{}) {
		require.NoError(t, f.SetCellValue(tgt.Sheet, cell, v))
	}
	styleRow := func(row, style int) {
		first := schema.MustCell(1, row)
		last := schema.MustCell(tgt.LastCol, row)
		require.NoError(t, f.SetCellStyle(tgt.Sheet, first, last, style))
	}

	set("A1", "EXPENDITURE MATRIX")
	set("A3", "Fiscal Year")
	set(schema.Addr(tgt.ColProgram, 7), "PROGRAM / OUTPUT / ACTIVITY")
	set(schema.Addr(tgt.ColExpenseItem, 7), "EXPENSE ITEM")

	styleRow(tgt.ProgramRow, styles.Program)
	styleRow(tgt.OutputRow, styles.Output)
	styleRow(tgt.ActivityRow, styles.Activity)
	styleRow(tgt.ExpenseRow, styles.Expense)

	er := tgt.ExpenseRow
	require.NoError(t, f.SetCellFormula(tgt.Sheet, schema.Addr(tgt.ColTotalCost, er),
		schema.Addr(tgt.ColQuantity, er)+"*"+schema.Addr(tgt.ColUnitCost, er)+"*"+schema.Addr(tgt.ColFreq, er)))
	require.NoError(t, f.SetCellFormula(tgt.Sheet, schema.Addr(tgt.ColObligationTotal, er),
		"SUM("+schema.Addr(tgt.ObligationCol(0), er)+":"+schema.Addr(tgt.ObligationCol(11), er)+")"))
	require.NoError(t, f.SetCellFormula(tgt.Sheet, schema.Addr(tgt.ColDisbursementTotal, er),
		"SUM("+schema.Addr(tgt.DisbursementCol(0), er)+":"+schema.Addr(tgt.DisbursementCol(11), er)+")"))
	set(schema.Addr(tgt.ColFreq, er), 1)

	yesNo := excelize.NewDataValidation(true)
	yesNo.Sqref = schema.Addr(tgt.ColPPMP, er) + ":" + schema.Addr(tgt.ColAPPTicket, er)
	yesNo.SetSqrefDropList(tgt.YesNoList)
	require.NoError(t, f.AddDataValidation(tgt.Sheet, yesNo))

	release := excelize.NewDataValidation(true)
	release.Sqref = schema.Addr(tgt.ColReleaseManner, er)
	release.SetSqrefDropList(tgt.ReleaseMannerList)
	require.NoError(t, f.AddDataValidation(tgt.Sheet, release))

	set(schema.Addr(tgt.ColProgram, er+1), "Milestones:")
	set(schema.Addr(tgt.ColProgram, er+2), "Guidance: duplicate rows as needed")
	set(schema.Addr(tgt.ColProgram, tgt.GrandTotalRow()), "GRAND TOTAL")

	require.NoError(t, f.SetCellValue("Lists", "A1", "Y"))
	require.NoError(t, f.SetCellValue("Lists", "A2", "N"))
	for i, m := range models.ReleaseManners {
		require.NoError(t, f.SetCellValue("Lists", schema.MustCell(2, i+1), m))
	}

	return f, styles
}

// MatrixTemplateBytes serializes MatrixTemplate
func MatrixTemplateBytes(t testing.TB) []byte {
	t.Helper()
	f, _ := MatrixTemplate(t)
	defer f.Close()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}
