package matrix

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deped/expenditure-matrix/internal/models"
	"github.com/deped/expenditure-matrix/internal/schema"
	"github.com/deped/expenditure-matrix/internal/testutil"
	"github.com/deped/expenditure-matrix/internal/workbook"
)

func boardItem(qty, freq, unitCost float64) models.ExpenseItem {
	return models.ExpenseItem{
		ExpenseGroup:  models.ExpenseGroupTraining,
		GAAObject:     models.GAAObjectTraining,
		ExpenseItem:   "Board and Lodging - Participants",
		Quantity:      qty,
		Freq:          freq,
		UnitCost:      unitCost,
		ReleaseManner: models.ReleaseForDownloadBoard,
	}
}

func generate(t *testing.T, activities ...*models.Activity) (*workbook.Excel, Stats) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	doc, _ := newTemplate(t)

	data, stats, err := NewGenerator(schema.Default().Target, logger).Generate(context.Background(), doc, activities)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	out, err := workbook.OpenBytes(data)
	require.NoError(t, err)
	t.Cleanup(func() { out.Close() })
	return out, stats
}

type sheetAsserter struct {
	t     *testing.T
	doc   workbook.Reader
	sheet string
}

func (s sheetAsserter) value(cell string) string {
	s.t.Helper()
	v, err := s.doc.CellValue(s.sheet, cell)
	require.NoError(s.t, err)
	return v
}

// raw skips number formatting
func (s sheetAsserter) raw(cell string) string {
	s.t.Helper()
	v, err := s.doc.CellRaw(s.sheet, cell)
	require.NoError(s.t, err)
	return v
}

func (s sheetAsserter) formula(cell string) string {
	s.t.Helper()
	f, err := s.doc.CellFormula(s.sheet, cell)
	require.NoError(s.t, err)
	return f
}

func TestGenerator_ScenarioSingleBoardItem(t *testing.T) {
	tgt := schema.Default().Target
	a := activity("P1", "O1", "Regional Training")
	a.Info.Month = 2
	a.Info.ActivityPhysicalTarget = 41
	a.Info.OutputPhysicalTarget = 120
	a.Expenses = []models.ExpenseItem{boardItem(41, 5, 1500)}

	doc, stats := generate(t, a)
	s := sheetAsserter{t, doc, tgt.Sheet}

	assert.Equal(t, "P1", s.value("A8"))
	assert.Equal(t, "O1", s.value("B9"))
	assert.Equal(t, "1", s.value("C9"))
	assert.Equal(t, "120", s.value("N9"))
	assert.Equal(t, "Regional Training", s.value("D10"))

	assert.Equal(t, models.ReleaseForDownloadBoard, s.value("M11"))
	assert.Equal(t, "N", s.value("J11"))
	assert.Equal(t, "N", s.value("K11"))
	assert.Equal(t, "N", s.value("L11"))
	assert.Equal(t, "41", s.raw("O11"))
	assert.Equal(t, "1500", s.raw("P11"))
	assert.Equal(t, "5", s.raw("Q11"))
	assert.Equal(t, "O11*P11*Q11", s.formula("R11"))

	// March: obligation and disbursement point at the row's own total
	assert.Equal(t, "R11", s.formula(schema.Addr(tgt.ObligationCol(2), 11)))
	assert.Equal(t, "R11", s.formula(schema.Addr(tgt.DisbursementCol(2), 11)))

	// physical target one month after the start month
	assert.Equal(t, "41", s.raw(schema.Addr(tgt.PhysicalCol(3), 10)))
	assert.Equal(t, "SUM(R11:R11)", s.formula("R10"))
	assert.Equal(t, "SUM(AE11:AE11)", s.formula("AE10"))
	assert.Equal(t, "SUM(AH11:AH11)", s.formula("AH10"))

	// guidance rows removed, grand total follows the last item
	assert.Equal(t, "GRAND TOTAL", s.value("A12"))
	assert.Equal(t, "SUM(R10)", s.formula("R12"))
	assert.Equal(t, "SUM(AR10)", s.formula("AR12"))
	// every month of the physical, obligation and disbursement bands: 36 columns
	require.Len(t, tgt.MonthColumns(), 36)
	for _, col := range tgt.MonthColumns() {
		assert.Equal(t, "SUM("+col+"10)", s.formula(schema.Addr(col, 12)))
	}

	assert.Equal(t, 1, stats.Activities)
	assert.Equal(t, 1, stats.Items)
	assert.Equal(t, 12, stats.GrandTotalRow)
}

func TestGenerator_ScenarioSameProgramTwoOutputs(t *testing.T) {
	tgt := schema.Default().Target
	first := activity("P1", "O1", "first")
	first.Info.Month = 2
	first.Info.ActivityPhysicalTarget = 10
	first.Expenses = []models.ExpenseItem{boardItem(10, 1, 100)}

	second := activity("P1", "O2", "second")
	second.Info.Month = 5
	second.Info.ActivityPhysicalTarget = 20
	second.Expenses = []models.ExpenseItem{boardItem(20, 2, 200)}

	doc, stats := generate(t, first, second)
	s := sheetAsserter{t, doc, tgt.Sheet}

	programs := 0
	for row := tgt.ProgramRow; row <= 15; row++ {
		if s.value(schema.Addr(tgt.ColProgram, row)) == "P1" {
			programs++
		}
	}
	assert.Equal(t, 1, programs)

	assert.Equal(t, "O1", s.value("B9"))
	assert.Equal(t, "1", s.value("C9"))
	assert.Equal(t, "O2", s.value("B12"))
	assert.Equal(t, "2", s.value("C12"))
	assert.Equal(t, "second", s.value("D13"))

	// cloned rows start from the first activity's contents and are reset
	assert.Empty(t, s.raw(schema.Addr(tgt.PhysicalCol(3), 13)))
	assert.Equal(t, "20", s.raw(schema.Addr(tgt.PhysicalCol(6), 13)))
	assert.Empty(t, s.formula(schema.Addr(tgt.ObligationCol(2), 14)))
	assert.Equal(t, "R14", s.formula(schema.Addr(tgt.ObligationCol(5), 14)))
	assert.Equal(t, "O14*P14*Q14", s.formula("R14"))
	assert.Equal(t, "SUM(R14:R14)", s.formula("R13"))

	assert.Equal(t, "GRAND TOTAL", s.value("A15"))
	assert.Equal(t, "SUM(R10,R13)", s.formula("R15"))
	assert.Equal(t, "SUM(AE10,AE13)", s.formula("AE15"))

	assert.Equal(t, 1, stats.Programs)
	assert.Equal(t, 2, stats.Outputs)
}

func TestGenerator_MultiItemSumRanges(t *testing.T) {
	tgt := schema.Default().Target
	first := activity("P1", "O1", "first")
	first.Info.Month = 0
	first.Expenses = []models.ExpenseItem{boardItem(1, 1, 100), boardItem(2, 1, 100), boardItem(3, 1, 100)}

	second := activity("P1", "O2", "second")
	second.Info.Month = 4
	second.Expenses = []models.ExpenseItem{boardItem(4, 1, 100), boardItem(5, 1, 100)}

	third := activity("P1", "O2", "third")
	third.Info.Month = 11
	third.Expenses = []models.ExpenseItem{boardItem(6, 1, 100), boardItem(7, 1, 100)}

	doc, stats := generate(t, first, second, third)
	s := sheetAsserter{t, doc, tgt.Sheet}

	// rows: first 8-13, second output 14 activity 15 items 16-17, third 18 items 19-20
	tests := []struct {
		name        string
		row         int
		first, last int
	}{
		{name: "first activity", row: 10, first: 11, last: 13},
		{name: "new output", row: 15, first: 16, last: 17},
		{name: "same output", row: 18, first: 19, last: 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := []string{tgt.ColTotalCost, tgt.ColObligationTotal, tgt.ColDisbursementTotal}
			for m := 0; m < 12; m++ {
				cols = append(cols, tgt.ObligationCol(m), tgt.DisbursementCol(m))
			}
			for _, col := range cols {
				want := fmt.Sprintf("SUM(%s:%s)", schema.Addr(col, tt.first), schema.Addr(col, tt.last))
				assert.Equal(t, want, s.formula(schema.Addr(col, tt.row)), col)
			}
			for row := tt.first; row <= tt.last; row++ {
				total := schema.Addr(tgt.ColTotalCost, row)
				assert.Equal(t, fmt.Sprintf("O%d*P%d*Q%d", row, row, row), s.formula(total))
			}
		})
	}

	assert.Equal(t, "third", s.value("D18"))
	assert.Equal(t, "7", s.raw("O20"))
	assert.Equal(t, "R17", s.formula(schema.Addr(tgt.ObligationCol(4), 17)))
	assert.Equal(t, "R20", s.formula(schema.Addr(tgt.DisbursementCol(11), 20)))

	assert.Equal(t, "GRAND TOTAL", s.value("A21"))
	assert.Equal(t, "SUM(R10,R15,R18)", s.formula("R21"))
	assert.Equal(t, 21, stats.GrandTotalRow)
	assert.Equal(t, 7, stats.Items)
}

func TestGenerator_ScenarioNoActivities(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	doc, _ := newTemplate(t)

	data, _, err := NewGenerator(schema.Default().Target, logger).Generate(context.Background(), doc, nil)
	assert.ErrorIs(t, err, ErrNoActivities)
	assert.Nil(t, data)
}

func TestGenerator_ClonedRowsKeepTemplateStyles(t *testing.T) {
	tgt := schema.Default().Target
	f, styles := testutil.MatrixTemplate(t)
	doc := workbook.New(f)
	defer doc.Close()

	a := activity("P1", "O1", "a")
	a.Expenses = []models.ExpenseItem{boardItem(1, 1, 1), boardItem(2, 1, 1)}
	b := activity("P2", "O1", "b")
	b.Expenses = []models.ExpenseItem{boardItem(3, 1, 1)}

	logger, _ := zap.NewDevelopment()
	_, _, err := NewGenerator(tgt, logger).Generate(context.Background(), doc, []*models.Activity{a, b})
	require.NoError(t, err)

	for cell, want := range map[string]int{
		"A13": styles.Program,
		"B14": styles.Output,
		"D15": styles.Activity,
		"H12": styles.Expense,
		"H16": styles.Expense,
	} {
		got, err := doc.CellStyle(tgt.Sheet, cell)
		require.NoError(t, err)
		assert.Equal(t, want, got, cell)
	}
}

func TestGenerator_EmptyFirstActivity(t *testing.T) {
	tgt := schema.Default().Target
	empty := activity("P1", "O1", "no items")
	next := activity("P1", "O1", "with items")
	next.Expenses = []models.ExpenseItem{boardItem(2, 1, 50)}

	doc, stats := generate(t, empty, next)
	s := sheetAsserter{t, doc, tgt.Sheet}

	assert.Equal(t, "0", s.raw("R10"))
	assert.Empty(t, s.formula("R10"))
	assert.Equal(t, "with items", s.value("D11"))
	assert.Equal(t, "SUM(R12:R12)", s.formula("R11"))
	assert.Equal(t, "O12*P12*Q12", s.formula("R12"))
	assert.Equal(t, "GRAND TOTAL", s.value("A13"))
	assert.Equal(t, "SUM(R10,R11)", s.formula("R13"))
	assert.Equal(t, 13, stats.GrandTotalRow)
}

func TestGenerator_AppendsPSFActivity(t *testing.T) {
	tgt := schema.Default().Target
	a := activity("P1", "O1", "a")
	a.Expenses = []models.ExpenseItem{boardItem(1, 1, 100)}
	a.TEVPSF = []models.ExpenseItem{{ExpenseItem: "Travel Allowance of Participants - CAR", Quantity: 2, Freq: 1, UnitCost: 100, ReleaseManner: models.ReleaseForDownloadPSF, TEVLocation: "CAR"}}
	b := activity("P1", "O1", "b")
	b.TEVPSF = []models.ExpenseItem{{ExpenseItem: "Travel Allowance of Participants - CAR", Quantity: 3, Freq: 1, UnitCost: 50, ReleaseManner: models.ReleaseForDownloadPSF, TEVLocation: "CAR"}}

	doc, stats := generate(t, a, b)
	s := sheetAsserter{t, doc, tgt.Sheet}

	// rows: a 8-11, b 12, PSF program 13, output 14, activity 15, item 16
	assert.Equal(t, models.PSFProgram, s.value("A13"))
	assert.Equal(t, models.PSFOutput, s.value("B14"))
	assert.Equal(t, models.PSFActivityTitle, s.value("D15"))
	assert.Equal(t, "350", s.raw("P16"))
	assert.Equal(t, "1", s.raw("O16"))
	assert.Equal(t, "CAR", s.value("I16"))
	assert.Equal(t, models.ReleaseForDownloadPSF, s.value("M16"))
	assert.Equal(t, "SUM(R10,R12,R15)", s.formula("R17"))

	assert.Equal(t, 3, stats.Activities)
	assert.Equal(t, 1, stats.PSFItems)
}

func TestGenerator_MissingSheet(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	doc, _ := newTemplate(t)

	tgt := schema.Default().Target
	tgt.Sheet = "Matrix 2031"
	a := activity("P1", "O1", "a")

	_, _, err := NewGenerator(tgt, logger).Generate(context.Background(), doc, []*models.Activity{a})
	assert.ErrorIs(t, err, ErrTemplateSheetMissing)
}

func TestGenerator_Canceled(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	doc, _ := newTemplate(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewGenerator(schema.Default().Target, logger).Generate(ctx, doc, []*models.Activity{activity("P1", "O1", "a")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSumOf(t *testing.T) {
	assert.Equal(t, "SUM(R10,R13,R20)", SumOf("R", []int{10, 13, 20}))

	rows := make([]int, 300)
	for i := range rows {
		rows[i] = i + 1
	}
	f := SumOf("AE", rows)
	assert.Contains(t, f, "SUM(SUM(AE1,")
	assert.Contains(t, f, "AE255),SUM(AE256,")
	assert.True(t, len(f) > 0 && f[len(f)-2:] == "))")
}
