// Package schema pins the cell coordinates of the Budget Estimate (source)
// and Expenditure Matrix (target) templates. Both layouts are versioned
// together; any template revision requires a Version bump.
package schema

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Version identifies the template pair this schema describes
const Version = "2024.1"

// ExpenseBlock is a repeating run of expense rows in the source template
type ExpenseBlock struct {
	Name     string `yaml:"name"`
	StartRow int    `yaml:"start_row"`
	LabelCol string `yaml:"label_col"`
	Rows     int    `yaml:"rows"`
	Prefix   string `yaml:"prefix"` // category phrase prepended to every label of the block
}

// Source describes the Budget Estimate template
type Source struct {
	MarkerCell      string   `yaml:"marker_cell"`
	MarkerText      string   `yaml:"marker_text"`
	AuxiliarySheets []string `yaml:"auxiliary_sheets"`

	Program                string `yaml:"program"`
	Output                 string `yaml:"output"`
	OutputIndicator        string `yaml:"output_indicator"`
	ActivityTitle          string `yaml:"activity_title"`
	ActivityIndicator      string `yaml:"activity_indicator"`
	StartDate              string `yaml:"start_date"`
	Venue                  string `yaml:"venue"`
	OutputPhysicalTarget   string `yaml:"output_physical_target"`
	ActivityPhysicalTarget string `yaml:"activity_physical_target"`

	BoardLodging  ExpenseBlock `yaml:"board_lodging"`
	TravelPool    ExpenseBlock `yaml:"travel_pool"`
	TravelNonPool ExpenseBlock `yaml:"travel_non_pool"`
	TravelOther   ExpenseBlock `yaml:"travel_other"`
	Honorarium    ExpenseBlock `yaml:"honorarium"`
	Other         ExpenseBlock `yaml:"other"`

	// Column offsets relative to a block's label column
	QuantityOffset      int `yaml:"quantity_offset"`
	FreqOffset          int `yaml:"freq_offset"`
	UnitCostOffset      int `yaml:"unit_cost_offset"`
	DirectPaymentOffset int `yaml:"direct_payment_offset"`

	AirOnlyDestinations []string `yaml:"air_only_destinations"`
}

// Target describes the Expenditure Matrix template
type Target struct {
	Sheet string `yaml:"sheet"`

	ProgramRow   int `yaml:"program_row"`
	OutputRow    int `yaml:"output_row"`
	ActivityRow  int `yaml:"activity_row"`
	ExpenseRow   int `yaml:"expense_row"`
	GuidanceRows int `yaml:"guidance_rows"` // unused milestone rows between the template block and the grand total

	ColProgram        string `yaml:"col_program"`
	ColOutput         string `yaml:"col_output"`
	ColRank           string `yaml:"col_rank"`
	ColActivity       string `yaml:"col_activity"`
	ColIndicator      string `yaml:"col_indicator"`
	ColExpenseGroup   string `yaml:"col_expense_group"`
	ColGAAObject      string `yaml:"col_gaa_object"`
	ColExpenseItem    string `yaml:"col_expense_item"`
	ColTravelLocation string `yaml:"col_travel_location"`
	ColPPMP           string `yaml:"col_ppmp"`
	ColAPPSupplies    string `yaml:"col_app_supplies"`
	ColAPPTicket      string `yaml:"col_app_ticket"`
	ColReleaseManner  string `yaml:"col_release_manner"`
	ColPhysicalTarget string `yaml:"col_physical_target"`
	ColQuantity       string `yaml:"col_quantity"`
	ColUnitCost       string `yaml:"col_unit_cost"`
	ColFreq           string `yaml:"col_freq"`
	ColTotalCost      string `yaml:"col_total_cost"`

	PhysicalStart        int    `yaml:"physical_start"` // column index of January
	ColObligationTotal   string `yaml:"col_obligation_total"`
	ObligationStart      int    `yaml:"obligation_start"`
	ColDisbursementTotal string `yaml:"col_disbursement_total"`
	DisbursementStart    int    `yaml:"disbursement_start"`
	LastCol              int    `yaml:"last_col"`

	YesNoList         string `yaml:"yes_no_list"`
	ReleaseMannerList string `yaml:"release_manner_list"`
}

// Schema bundles the source and target layouts
type Schema struct {
	Version string `yaml:"version"`
	Source  Source `yaml:"source"`
	Target  Target `yaml:"target"`
}

// Default returns the schema for the current template pair
func Default() Schema {
	const labelCol = "B"
	return Schema{
		Version: Version,
		Source: Source{
			MarkerCell: "A1",
			MarkerText: "BUDGET ESTIMATE",
			AuxiliarySheets: []string{
				"Instructions", "Lists", "Summary", "Reference", "Dropdown",
			},

			Program:                "C4",
			Output:                 "C5",
			OutputIndicator:        "C6",
			ActivityTitle:          "C7",
			ActivityIndicator:      "C8",
			StartDate:              "C9",
			Venue:                  "C11",
			OutputPhysicalTarget:   "H6",
			ActivityPhysicalTarget: "H8",

			BoardLodging:  ExpenseBlock{Name: "board_lodging", StartRow: 15, LabelCol: labelCol, Rows: 3, Prefix: "Board and Lodging"},
			TravelPool:    ExpenseBlock{Name: "travel_pool", StartRow: 20, LabelCol: labelCol, Rows: 17, Prefix: "Travel Allowance of Participants"},
			TravelNonPool: ExpenseBlock{Name: "travel_non_pool", StartRow: 38, LabelCol: labelCol, Rows: 3, Prefix: "Travel Expenses"},
			TravelOther:   ExpenseBlock{Name: "travel_other", StartRow: 42, LabelCol: labelCol, Rows: 2, Prefix: "Travel Expenses"},
			Honorarium:    ExpenseBlock{Name: "honorarium", StartRow: 46, LabelCol: labelCol, Rows: 3, Prefix: "Honorarium"},
			Other:         ExpenseBlock{Name: "other", StartRow: 51, LabelCol: labelCol, Rows: 5, Prefix: "Other Expenses"},

			QuantityOffset:      4,
			FreqOffset:          5,
			UnitCostOffset:      6,
			DirectPaymentOffset: 7,

			AirOnlyDestinations: []string{
				"Batanes", "Basilan", "Sulu", "Tawi-Tawi", "Palawan",
				"Puerto Princesa", "Siargao", "Camiguin",
			},
		},
		Target: Target{
			Sheet: "Expenditure Matrix",

			ProgramRow:   8,
			OutputRow:    9,
			ActivityRow:  10,
			ExpenseRow:   11,
			GuidanceRows: 2,

			ColProgram:        "A",
			ColOutput:         "B",
			ColRank:           "C",
			ColActivity:       "D",
			ColIndicator:      "E",
			ColExpenseGroup:   "F",
			ColGAAObject:      "G",
			ColExpenseItem:    "H",
			ColTravelLocation: "I",
			ColPPMP:           "J",
			ColAPPSupplies:    "K",
			ColAPPTicket:      "L",
			ColReleaseManner:  "M",
			ColPhysicalTarget: "N",
			ColQuantity:       "O",
			ColUnitCost:       "P",
			ColFreq:           "Q",
			ColTotalCost:      "R",

			PhysicalStart:        19, // S
			ColObligationTotal:   "AE",
			ObligationStart:      32, // AF
			ColDisbursementTotal: "AR",
			DisbursementStart:    45, // AS
			LastCol:              56, // BD

			YesNoList:         "Lists!$A$1:$A$2",
			ReleaseMannerList: "Lists!$B$1:$B$4",
		},
	}
}

// Describe renders the schema as YAML
func (s Schema) Describe() ([]byte, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return out, nil
}

// Cell returns the address of a block cell: row offset from the block
// start, column offset from the block's label column
func (b ExpenseBlock) Cell(rowOffset, colOffset int) string {
	col, err := excelize.ColumnNameToNumber(b.LabelCol)
	if err != nil {
		panic(fmt.Sprintf("schema: invalid label column %q", b.LabelCol))
	}
	return MustCell(col+colOffset, b.StartRow+rowOffset)
}

// GrandTotalRow is the row of the grand total line in the pristine template
func (t Target) GrandTotalRow() int {
	return t.ExpenseRow + t.GuidanceRows + 1
}

// PhysicalCol returns the physical-target column for a 0-based month
func (t Target) PhysicalCol(month int) string {
	return MustColumn(t.PhysicalStart + clampMonth(month))
}

// ObligationCol returns the obligation column for a 0-based month
func (t Target) ObligationCol(month int) string {
	return MustColumn(t.ObligationStart + clampMonth(month))
}

// DisbursementCol returns the disbursement column for a 0-based month
func (t Target) DisbursementCol(month int) string {
	return MustColumn(t.DisbursementStart + clampMonth(month))
}

// MonthColumns returns every month column of the physical-target,
// obligation and disbursement bands, in that order
func (t Target) MonthColumns() []string {
	cols := make([]string, 0, 36)
	for _, start := range []int{t.PhysicalStart, t.ObligationStart, t.DisbursementStart} {
		for m := 0; m < 12; m++ {
			cols = append(cols, MustColumn(start+m))
		}
	}
	return cols
}

// MustColumn converts a 1-based column index to letters
func MustColumn(col int) string {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		panic(fmt.Sprintf("schema: invalid column %d", col))
	}
	return name
}

// MustCell builds an address from 1-based coordinates
func MustCell(col, row int) string {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		panic(fmt.Sprintf("schema: invalid cell (%d,%d)", col, row))
	}
	return cell
}

// Addr joins a column letter and a row number
func Addr(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func clampMonth(m int) int {
	switch {
	case m < 0:
		return 0
	case m > 11:
		return 11
	}
	return m
}
