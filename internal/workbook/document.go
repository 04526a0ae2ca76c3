// Package workbook defines the spreadsheet capabilities the extractor and the
// matrix generator rely on, and implements them over excelize.
package workbook

import "bytes"

// Validation is a data-validation rule attached to a cell
type Validation struct {
	Type             string
	Operator         string
	Formula1         string
	Formula2         string
	AllowBlank       bool
	ShowDropDown     bool
	ShowErrorMessage bool
	ShowInputMessage bool
	ErrorStyle       string
	ErrorTitle       string
	Error            string
	PromptTitle      string
	Prompt           string
}

// Reader is the read side of a spreadsheet document
type Reader interface {
	SheetList() []string
	// CellValue returns the cell's display text
	CellValue(sheet, cell string) (string, error)
	// CellRaw returns the stored value without number formatting
	CellRaw(sheet, cell string) (string, error)
	CellFormula(sheet, cell string) (string, error)
	CellStyle(sheet, cell string) (int, error)
	CellValidations(sheet, cell string) ([]Validation, error)
}

// Document is a spreadsheet that can be read, edited and serialized
type Document interface {
	Reader

	SetCellValue(sheet, cell string, value interface{}) error
	SetCellFormula(sheet, cell, formula string) error
	// SetSharedFormula makes cell evaluate anchor's formula relative to its own
	// position, the way a shared formula in a spreadsheet engine does. The
	// result is persisted as an ordinary translated formula.
	SetSharedFormula(sheet, cell, anchor string) error
	// SharedFormulaAnchor reports the anchor a shared-formula cell refers to
	SharedFormulaAnchor(sheet, cell string) (string, bool)
	SetCellStyle(sheet, cell string, style int) error
	AddValidation(sheet, cell string, v Validation) error
	// AddListValidation attaches a drop-down list sourced from a cell range
	AddListValidation(sheet, cell, sourceRange string) error

	// InsertRows inserts n empty rows before row, shifting the rest down
	InsertRows(sheet string, row, n int) error
	// RemoveRows deletes n rows starting at row, shifting the rest up
	RemoveRows(sheet string, row, n int) error

	WriteToBuffer() (*bytes.Buffer, error)
	Close() error
}
