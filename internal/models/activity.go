package models

// ActivityInfo holds the header block of one Budget Estimate sheet
type ActivityInfo struct {
	Program                string `json:"program"`
	Output                 string `json:"output"`
	OutputIndicator        string `json:"output_indicator"`
	ActivityTitle          string `json:"activity_title"`
	ActivityIndicator      string `json:"activity_indicator"`
	Month                  int    `json:"month"` // 0 = January, derived from the start date
	Venue                  string `json:"venue"`
	OutputPhysicalTarget   int    `json:"output_physical_target"`
	ActivityPhysicalTarget int    `json:"activity_physical_target"`
}

// ExpenseItem is one itemized cost line of an activity
type ExpenseItem struct {
	ExpenseGroup   string  `json:"expense_group"`
	GAAObject      string  `json:"gaa_object"`
	ExpenseItem    string  `json:"expense_item"`
	Quantity       float64 `json:"quantity"`
	Freq           float64 `json:"freq"`
	UnitCost       float64 `json:"unit_cost"`
	ReleaseManner  string  `json:"release_manner"`
	TEVLocation    string  `json:"tev_location,omitempty"` // region, only for pooled travel allowances
	HasPPMP        bool    `json:"has_ppmp"`
	HasAPPSupplies bool    `json:"has_app_supplies"`
	HasAPPTicket   bool    `json:"has_app_ticket"`
}

// TotalCost returns quantity * unit cost * frequency
func (e ExpenseItem) TotalCost() float64 {
	return e.Quantity * e.UnitCost * e.EffectiveFreq()
}

// EffectiveFreq returns Freq, or 1 when unset
func (e ExpenseItem) EffectiveFreq() float64 {
	if e.Freq <= 0 {
		return 1
	}
	return e.Freq
}

// Activity is one planned undertaking extracted from a single source sheet
type Activity struct {
	Info     ActivityInfo  `json:"info"`
	Expenses []ExpenseItem `json:"expenses"`
	// TEVPSF holds regional travel allowances that are pooled into the
	// Program Support Fund instead of being charged to this activity.
	TEVPSF []ExpenseItem `json:"tev_psf,omitempty"`

	SourceFile string `json:"source_file,omitempty"`
	Sheet      string `json:"sheet,omitempty"`
}

// Expense group constants
const (
	ExpenseGroupTraining = "Training/Scholarship"
	ExpenseGroupSupplies = "Supplies/Materials"
)

// GAA object constants
const (
	GAAObjectTraining = "Training Expenses"
	GAAObjectSupplies = "Other Supplies"
)

// Release manner constants
const (
	ReleaseForDownloadBoard = "For Downloading (Board and Lodging)"
	ReleaseForDownloadPSF   = "For Downloading (PSF)"
	ReleaseDirectPayment    = "Direct Payment"
	ReleaseCashAdvance      = "Cash Advance"
)

// ReleaseManners lists every release manner in the order the target
// template's lookup list presents them
var ReleaseManners = []string{
	ReleaseForDownloadBoard,
	ReleaseForDownloadPSF,
	ReleaseDirectPayment,
	ReleaseCashAdvance,
}

// Program Support Fund pseudo-activity info block
const (
	PSFProgram       = "PROGRAM SUPPORT FUND"
	PSFOutput        = "Centrally-funded travel of regional participants"
	PSFActivityTitle = "Travel Allowance of Participants (PSF)"
)

// NewPSFActivity returns an empty Program Support Fund activity
func NewPSFActivity() *Activity {
	return &Activity{
		Info: ActivityInfo{
			Program:       PSFProgram,
			Output:        PSFOutput,
			ActivityTitle: PSFActivityTitle,
			Month:         0,
		},
		Expenses: []ExpenseItem{},
	}
}
