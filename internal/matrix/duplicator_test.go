package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deped/expenditure-matrix/internal/schema"
	"github.com/deped/expenditure-matrix/internal/testutil"
	"github.com/deped/expenditure-matrix/internal/workbook"
)

func newTemplate(t *testing.T) (*workbook.Excel, testutil.TemplateStyles) {
	t.Helper()
	f, styles := testutil.MatrixTemplate(t)
	doc := workbook.New(f)
	t.Cleanup(func() { doc.Close() })
	return doc, styles
}

func TestDuplicator_Duplicate(t *testing.T) {
	tgt := schema.Default().Target

	t.Run("clones the template row below itself", func(t *testing.T) {
		doc, styles := newTemplate(t)
		d := NewDuplicator(tgt)

		src, err := d.Duplicate(doc, RowCopyMap{TargetRow: 12, SrcRow: 11, NumRows: 2})
		require.NoError(t, err)
		assert.Equal(t, 11, src)

		for _, row := range []int{12, 13} {
			style, err := doc.CellStyle(tgt.Sheet, schema.Addr("H", row))
			require.NoError(t, err)
			assert.Equal(t, styles.Expense, style)

			// the template formats numbers, compare the stored value
			freq, err := doc.CellRaw(tgt.Sheet, schema.Addr(tgt.ColFreq, row))
			require.NoError(t, err)
			assert.Equal(t, "1", freq)

			cell := schema.Addr(tgt.ColTotalCost, row)
			anchor, ok := doc.SharedFormulaAnchor(tgt.Sheet, cell)
			require.True(t, ok, "%s should be a shared formula", cell)
			assert.Equal(t, "R11", anchor)

			formula, err := doc.CellFormula(tgt.Sheet, cell)
			require.NoError(t, err)
			assert.Equal(t, schema.Addr("O", row)+"*"+schema.Addr("P", row)+"*"+schema.Addr("Q", row), formula)

			anchor, ok = doc.SharedFormulaAnchor(tgt.Sheet, schema.Addr(tgt.ColObligationTotal, row))
			require.True(t, ok)
			assert.Equal(t, "AE11", anchor)
		}
	})

	t.Run("inserts exactly NumRows rows", func(t *testing.T) {
		doc, _ := newTemplate(t)
		d := NewDuplicator(tgt)

		_, err := d.Duplicate(doc, RowCopyMap{TargetRow: 12, SrcRow: 11, NumRows: 3})
		require.NoError(t, err)

		v, err := doc.CellValue(tgt.Sheet, schema.Addr(tgt.ColProgram, 15))
		require.NoError(t, err)
		assert.Equal(t, "Milestones:", v)

		v, err = doc.CellValue(tgt.Sheet, schema.Addr(tgt.ColProgram, tgt.GrandTotalRow()+3))
		require.NoError(t, err)
		assert.Equal(t, "GRAND TOTAL", v)
	})

	t.Run("validations are copied", func(t *testing.T) {
		doc, _ := newTemplate(t)
		d := NewDuplicator(tgt)

		_, err := d.Duplicate(doc, RowCopyMap{TargetRow: 12, SrcRow: 11, NumRows: 1})
		require.NoError(t, err)

		for _, col := range []string{tgt.ColPPMP, tgt.ColAPPTicket, tgt.ColReleaseManner} {
			want, err := doc.CellValidations(tgt.Sheet, schema.Addr(col, 11))
			require.NoError(t, err)
			require.Len(t, want, 1)

			got, err := doc.CellValidations(tgt.Sheet, schema.Addr(col, 12))
			require.NoError(t, err)
			assert.Equal(t, want, got, "column %s", col)
		}
	})

	t.Run("template row is tracked when rows land above it", func(t *testing.T) {
		doc, styles := newTemplate(t)
		d := NewDuplicator(tgt)

		src, err := d.Duplicate(doc, RowCopyMap{TargetRow: 10, SrcRow: 10, NumRows: 1})
		require.NoError(t, err)
		assert.Equal(t, 11, src)

		style, err := doc.CellStyle(tgt.Sheet, "D10")
		require.NoError(t, err)
		assert.Equal(t, styles.Activity, style)

		anchor, ok := doc.SharedFormulaAnchor(tgt.Sheet, "R12")
		assert.False(t, ok, "expense row moved but was not cloned: %s", anchor)
	})

	t.Run("zero rows is a no-op", func(t *testing.T) {
		doc, _ := newTemplate(t)
		src, err := NewDuplicator(tgt).Duplicate(doc, RowCopyMap{TargetRow: 12, SrcRow: 11})
		require.NoError(t, err)
		assert.Equal(t, 11, src)

		v, err := doc.CellValue(tgt.Sheet, "A12")
		require.NoError(t, err)
		assert.Equal(t, "Milestones:", v)
	})
}
