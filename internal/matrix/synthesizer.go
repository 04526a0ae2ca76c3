package matrix

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/deped/expenditure-matrix/internal/models"
	"github.com/deped/expenditure-matrix/internal/schema"
	"github.com/deped/expenditure-matrix/internal/workbook"
)

// Synthesizer clones template row-blocks and fills them for one activity
type Synthesizer struct {
	target schema.Target
	dup    *Duplicator
	logger *zap.Logger
}

// NewSynthesizer creates a synthesizer for the matrix sheet of t
func NewSynthesizer(t schema.Target, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		target: t,
		dup:    NewDuplicator(t),
		logger: logger,
	}
}

// Write materializes the rows placed by layout for activity a
func (s *Synthesizer) Write(doc workbook.Document, layout ActivityLayout, a *models.Activity) error {
	if layout.Program != nil {
		if err := s.clone(doc, *layout.Program); err != nil {
			return err
		}
		if err := s.writeProgram(doc, layout.Program.Row, a); err != nil {
			return fmt.Errorf("failed to write program row: %w", err)
		}
	}

	if layout.Output != nil {
		if err := s.clone(doc, *layout.Output); err != nil {
			return err
		}
		if err := s.writeOutput(doc, *layout.Output, a); err != nil {
			return fmt.Errorf("failed to write output row: %w", err)
		}
	}

	if err := s.clone(doc, layout.Activity); err != nil {
		return err
	}
	// every row insert for this activity lands before its SUM ranges are
	// written; inserting inside a range would stretch it
	if err := s.clone(doc, layout.Expenses); err != nil {
		return err
	}
	if err := s.writeActivity(doc, layout, a); err != nil {
		return fmt.Errorf("failed to write activity row: %w", err)
	}

	for i, item := range a.Expenses {
		row := layout.Expenses.Row + i
		if err := s.writeExpense(doc, row, layout.State, a.Info.Month, item); err != nil {
			return fmt.Errorf("failed to write expense row %d: %w", row, err)
		}
	}

	s.logger.Debug("Activity written",
		zap.String("state", layout.State.String()),
		zap.String("activity", a.Info.ActivityTitle),
		zap.Int("row", layout.Activity.Row),
		zap.Int("items", len(a.Expenses)))
	return nil
}

// clone duplicates the template rows a placement needs. Reused template
// rows sit at the top of the block, clones fill the rest.
func (s *Synthesizer) clone(doc workbook.Document, p Placement) error {
	if p.Duplicate <= 0 {
		return nil
	}
	m := RowCopyMap{
		TargetRow: p.Row + p.Count - p.Duplicate,
		SrcRow:    p.Source,
		NumRows:   p.Duplicate,
	}
	if _, err := s.dup.Duplicate(doc, m); err != nil {
		return fmt.Errorf("failed to duplicate %s row %d: %w", p.Kind, p.Source, err)
	}
	return nil
}

func (s *Synthesizer) writeProgram(doc workbook.Document, row int, a *models.Activity) error {
	return s.set(doc, s.target.ColProgram, row, a.Info.Program)
}

func (s *Synthesizer) writeOutput(doc workbook.Document, p Placement, a *models.Activity) error {
	t := s.target
	for _, c := range []struct {
		col   string
		value interface{}
	}{
		{t.ColOutput, a.Info.Output},
		{t.ColRank, p.Rank},
		{t.ColIndicator, a.Info.OutputIndicator},
		{t.ColPhysicalTarget, a.Info.OutputPhysicalTarget},
	} {
		if err := s.set(doc, c.col, p.Row, c.value); err != nil {
			return err
		}
	}
	return nil
}

func (s *Synthesizer) writeActivity(doc workbook.Document, layout ActivityLayout, a *models.Activity) error {
	t := s.target
	row := layout.Activity.Row

	for _, c := range []struct {
		col   string
		value interface{}
	}{
		{t.ColActivity, a.Info.ActivityTitle},
		{t.ColIndicator, a.Info.ActivityIndicator},
		{t.ColPhysicalTarget, a.Info.ActivityPhysicalTarget},
	} {
		if err := s.set(doc, c.col, row, c.value); err != nil {
			return err
		}
	}

	// clones carry the first activity's monthly target
	if layout.State == StateSubsequent {
		for m := 0; m < 12; m++ {
			if err := s.clear(doc, schema.Addr(t.PhysicalCol(m), row)); err != nil {
				return err
			}
		}
	}
	if err := s.set(doc, t.PhysicalCol(a.Info.Month+1), row, a.Info.ActivityPhysicalTarget); err != nil {
		return err
	}

	cols := []string{t.ColTotalCost, t.ColObligationTotal, t.ColDisbursementTotal}
	for m := 0; m < 12; m++ {
		cols = append(cols, t.ObligationCol(m))
	}
	for m := 0; m < 12; m++ {
		cols = append(cols, t.DisbursementCol(m))
	}

	first := layout.Expenses.Row
	last := first + len(a.Expenses) - 1
	for _, col := range cols {
		cell := schema.Addr(col, row)
		if len(a.Expenses) == 0 {
			if err := s.literal(doc, cell, 0); err != nil {
				return err
			}
			continue
		}
		formula := fmt.Sprintf("SUM(%s:%s)", schema.Addr(col, first), schema.Addr(col, last))
		if err := doc.SetCellFormula(t.Sheet, cell, formula); err != nil {
			return err
		}
	}
	return nil
}

func (s *Synthesizer) writeExpense(doc workbook.Document, row int, state State, month int, item models.ExpenseItem) error {
	t := s.target

	for _, c := range []struct {
		col   string
		value interface{}
	}{
		{t.ColExpenseGroup, item.ExpenseGroup},
		{t.ColGAAObject, item.GAAObject},
		{t.ColExpenseItem, item.ExpenseItem},
		{t.ColTravelLocation, item.TEVLocation},
		{t.ColQuantity, item.Quantity},
		{t.ColUnitCost, item.UnitCost},
		{t.ColFreq, item.EffectiveFreq()},
	} {
		if err := s.set(doc, c.col, row, c.value); err != nil {
			return err
		}
	}

	total := fmt.Sprintf("%s*%s*%s",
		schema.Addr(t.ColQuantity, row), schema.Addr(t.ColUnitCost, row), schema.Addr(t.ColFreq, row))
	if err := doc.SetCellFormula(t.Sheet, schema.Addr(t.ColTotalCost, row), total); err != nil {
		return err
	}

	for _, flag := range []struct {
		col string
		on  bool
	}{
		{t.ColPPMP, item.HasPPMP},
		{t.ColAPPSupplies, item.HasAPPSupplies},
		{t.ColAPPTicket, item.HasAPPTicket},
	} {
		if err := s.set(doc, flag.col, row, yesNo(flag.on)); err != nil {
			return err
		}
		if err := doc.AddListValidation(t.Sheet, schema.Addr(flag.col, row), t.YesNoList); err != nil {
			return err
		}
	}

	if err := s.set(doc, t.ColReleaseManner, row, item.ReleaseManner); err != nil {
		return err
	}
	if err := doc.AddListValidation(t.Sheet, schema.Addr(t.ColReleaseManner, row), t.ReleaseMannerList); err != nil {
		return err
	}

	if state == StateSubsequent {
		for m := 0; m < 12; m++ {
			if err := s.clear(doc, schema.Addr(t.ObligationCol(m), row)); err != nil {
				return err
			}
			if err := s.clear(doc, schema.Addr(t.DisbursementCol(m), row)); err != nil {
				return err
			}
		}
	}

	ref := schema.Addr(t.ColTotalCost, row)
	if err := doc.SetCellFormula(t.Sheet, schema.Addr(t.ObligationCol(month), row), ref); err != nil {
		return err
	}
	return doc.SetCellFormula(t.Sheet, schema.Addr(t.DisbursementCol(month), row), ref)
}

func (s *Synthesizer) set(doc workbook.Document, col string, row int, value interface{}) error {
	return doc.SetCellValue(s.target.Sheet, schema.Addr(col, row), value)
}

// literal writes value over whatever formula the cell held
func (s *Synthesizer) literal(doc workbook.Document, cell string, value interface{}) error {
	if err := doc.SetCellFormula(s.target.Sheet, cell, ""); err != nil {
		return err
	}
	return doc.SetCellValue(s.target.Sheet, cell, value)
}

func (s *Synthesizer) clear(doc workbook.Document, cell string) error {
	return s.literal(doc, cell, nil)
}

func yesNo(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}
