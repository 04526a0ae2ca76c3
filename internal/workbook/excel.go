package workbook

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Excel implements Document over an excelize file
type Excel struct {
	file *excelize.File
	// shared maps "sheet!cell" to the anchor cell of a shared formula
	shared map[string]string
}

// New wraps an already opened excelize file
func New(f *excelize.File) *Excel {
	return &Excel{file: f, shared: make(map[string]string)}
}

// Open opens a workbook from disk
func Open(path string) (*Excel, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return New(f), nil
}

// OpenReader opens a workbook from a stream
func OpenReader(r io.Reader) (*Excel, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	return New(f), nil
}

// OpenBytes opens a workbook from an in-memory buffer
func OpenBytes(data []byte) (*Excel, error) {
	return OpenReader(bytes.NewReader(data))
}

// File exposes the underlying excelize file
func (e *Excel) File() *excelize.File {
	return e.file
}

func (e *Excel) SheetList() []string {
	return e.file.GetSheetList()
}

func (e *Excel) CellValue(sheet, cell string) (string, error) {
	return e.file.GetCellValue(sheet, cell)
}

func (e *Excel) CellRaw(sheet, cell string) (string, error) {
	return e.file.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
}

func (e *Excel) CellFormula(sheet, cell string) (string, error) {
	return e.file.GetCellFormula(sheet, cell)
}

func (e *Excel) CellStyle(sheet, cell string) (int, error) {
	return e.file.GetCellStyle(sheet, cell)
}

// CellValidations returns every rule whose sqref covers cell
func (e *Excel) CellValidations(sheet, cell string) ([]Validation, error) {
	dvs, err := e.file.GetDataValidations(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read data validations: %w", err)
	}
	col, row, err := excelize.CellNameToCoordinates(cell)
	if err != nil {
		return nil, err
	}

	var out []Validation
	for _, dv := range dvs {
		if sqrefCovers(dv.Sqref, col, row) {
			out = append(out, fromExcelize(dv))
		}
	}
	return out, nil
}

func (e *Excel) SetCellValue(sheet, cell string, value interface{}) error {
	return e.file.SetCellValue(sheet, cell, value)
}

func (e *Excel) SetCellFormula(sheet, cell, formula string) error {
	delete(e.shared, sheet+"!"+cell)
	return e.file.SetCellFormula(sheet, cell, formula)
}

// SetSharedFormula writes anchor's formula into cell, translated by the row
// distance between the two, and remembers the anchor. The anchor is kept in
// memory only: a saved workbook holds the translated formula as a plain
// cell formula.
func (e *Excel) SetSharedFormula(sheet, cell, anchor string) error {
	formula, err := e.file.GetCellFormula(sheet, anchor)
	if err != nil {
		return fmt.Errorf("failed to read anchor formula %s: %w", anchor, err)
	}
	if formula == "" {
		return fmt.Errorf("anchor %s!%s holds no formula", sheet, anchor)
	}
	_, anchorRow, err := excelize.CellNameToCoordinates(anchor)
	if err != nil {
		return err
	}
	_, row, err := excelize.CellNameToCoordinates(cell)
	if err != nil {
		return err
	}

	if err := e.file.SetCellFormula(sheet, cell, ShiftFormula(formula, row-anchorRow)); err != nil {
		return err
	}
	e.shared[sheet+"!"+cell] = anchor
	return nil
}

func (e *Excel) SharedFormulaAnchor(sheet, cell string) (string, bool) {
	anchor, ok := e.shared[sheet+"!"+cell]
	return anchor, ok
}

func (e *Excel) SetCellStyle(sheet, cell string, style int) error {
	return e.file.SetCellStyle(sheet, cell, cell, style)
}

func (e *Excel) AddValidation(sheet, cell string, v Validation) error {
	dv := toExcelize(v)
	dv.Sqref = cell
	return e.file.AddDataValidation(sheet, dv)
}

// AddListValidation replaces any rule on cell with a list sourced from sourceRange
func (e *Excel) AddListValidation(sheet, cell, sourceRange string) error {
	if err := e.file.DeleteDataValidation(sheet, cell); err != nil {
		return fmt.Errorf("failed to clear validation on %s: %w", cell, err)
	}
	dv := excelize.NewDataValidation(true)
	dv.Sqref = cell
	dv.SetSqrefDropList(sourceRange)
	return e.file.AddDataValidation(sheet, dv)
}

func (e *Excel) InsertRows(sheet string, row, n int) error {
	if n <= 0 {
		return nil
	}
	if err := e.file.InsertRows(sheet, row, n); err != nil {
		return fmt.Errorf("failed to insert %d rows at %d: %w", n, row, err)
	}
	e.shiftShared(sheet, row, n)
	return nil
}

func (e *Excel) RemoveRows(sheet string, row, n int) error {
	for i := 0; i < n; i++ {
		if err := e.file.RemoveRow(sheet, row); err != nil {
			return fmt.Errorf("failed to remove row %d: %w", row, err)
		}
	}
	if n > 0 {
		e.dropShared(sheet, row, n)
		e.shiftShared(sheet, row+n, -n)
	}
	return nil
}

func (e *Excel) WriteToBuffer() (*bytes.Buffer, error) {
	return e.file.WriteToBuffer()
}

func (e *Excel) Close() error {
	return e.file.Close()
}

// shiftShared keeps the shared-formula bookkeeping aligned after rows at or
// below from moved by delta
func (e *Excel) shiftShared(sheet string, from, delta int) {
	moved := make(map[string]string, len(e.shared))
	for key, anchor := range e.shared {
		s, cell, _ := strings.Cut(key, "!")
		if s != sheet {
			moved[key] = anchor
			continue
		}
		moved[s+"!"+shiftCell(cell, from, delta)] = shiftCell(anchor, from, delta)
	}
	e.shared = moved
}

func (e *Excel) dropShared(sheet string, from, n int) {
	for key := range e.shared {
		s, cell, _ := strings.Cut(key, "!")
		if s != sheet {
			continue
		}
		if _, row, err := excelize.CellNameToCoordinates(cell); err == nil && row >= from && row < from+n {
			delete(e.shared, key)
		}
	}
}

func shiftCell(cell string, from, delta int) string {
	col, row, err := excelize.CellNameToCoordinates(cell)
	if err != nil || row < from {
		return cell
	}
	name, err := excelize.CoordinatesToCellName(col, row+delta)
	if err != nil {
		return cell
	}
	return name
}

// sqrefCovers reports whether a space separated list of ranges contains (col, row)
func sqrefCovers(sqref string, col, row int) bool {
	for _, part := range strings.Fields(sqref) {
		first, last, found := strings.Cut(part, ":")
		if !found {
			last = first
		}
		c1, r1, err := excelize.CellNameToCoordinates(first)
		if err != nil {
			continue
		}
		c2, r2, err := excelize.CellNameToCoordinates(last)
		if err != nil {
			continue
		}
		if c1 > c2 {
			c1, c2 = c2, c1
		}
		if r1 > r2 {
			r1, r2 = r2, r1
		}
		if col >= c1 && col <= c2 && row >= r1 && row <= r2 {
			return true
		}
	}
	return false
}

func fromExcelize(dv *excelize.DataValidation) Validation {
	return Validation{
		Type:             dv.Type,
		Operator:         dv.Operator,
		Formula1:         dv.Formula1,
		Formula2:         dv.Formula2,
		AllowBlank:       dv.AllowBlank,
		ShowDropDown:     dv.ShowDropDown,
		ShowErrorMessage: dv.ShowErrorMessage,
		ShowInputMessage: dv.ShowInputMessage,
		ErrorStyle:       deref(dv.ErrorStyle),
		ErrorTitle:       deref(dv.ErrorTitle),
		Error:            deref(dv.Error),
		PromptTitle:      deref(dv.PromptTitle),
		Prompt:           deref(dv.Prompt),
	}
}

func toExcelize(v Validation) *excelize.DataValidation {
	return &excelize.DataValidation{
		Type:             v.Type,
		Operator:         v.Operator,
		Formula1:         v.Formula1,
		Formula2:         v.Formula2,
		AllowBlank:       v.AllowBlank,
		ShowDropDown:     v.ShowDropDown,
		ShowErrorMessage: v.ShowErrorMessage,
		ShowInputMessage: v.ShowInputMessage,
		ErrorStyle:       ref(v.ErrorStyle),
		ErrorTitle:       ref(v.ErrorTitle),
		Error:            ref(v.Error),
		PromptTitle:      ref(v.PromptTitle),
		Prompt:           ref(v.Prompt),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ref(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
