package matrix

import (
	"github.com/deped/expenditure-matrix/internal/models"
	"github.com/deped/expenditure-matrix/internal/schema"
)

// State tells whether the template's own row-block is still unused
type State int

const (
	// StateFirst: nothing written yet, the template rows are reused in place
	StateFirst State = iota
	// StateSubsequent: every block is cloned from the template below the cursor
	StateSubsequent
)

func (s State) String() string {
	if s == StateFirst {
		return "FIRST"
	}
	return "SUBSEQUENT"
}

// RowKind names the template row-block a placement is cloned from
type RowKind string

const (
	RowProgram  RowKind = "program"
	RowOutput   RowKind = "output"
	RowActivity RowKind = "activity"
	RowExpense  RowKind = "expense"
)

// Placement locates one row-block in the target sheet
type Placement struct {
	Kind      RowKind
	Row       int // first row of the block
	Count     int // rows the block occupies once written
	Duplicate int // rows to clone from the template before writing
	Source    int // template row cloned from, as it stands before the insert
	Rank      int // output rows only
}

// ActivityLayout is where the rows of one activity go
type ActivityLayout struct {
	State    State
	Program  *Placement // nil when the program is unchanged
	Output   *Placement // nil when the output is unchanged
	Activity Placement
	Expenses Placement
}

// Cursor is the layout accumulator threaded through the activity stream
type Cursor struct {
	Row     int // last occupied row
	Program string
	Output  string
	Rank    int
	Index   int // activities placed so far
	Anchors []int
	// Spare is set while the template expense row sits unused at Row+1
	Spare bool
}

// State derives the synthesis state from the cursor
func (c Cursor) State() State {
	if c.Index == 0 {
		return StateFirst
	}
	return StateSubsequent
}

// Plan places the rows of activity a and returns the advanced cursor
func Plan(c Cursor, a *models.Activity, t schema.Target) (ActivityLayout, Cursor) {
	next := c
	next.Anchors = append([]int(nil), c.Anchors...)
	n := len(a.Expenses)
	layout := ActivityLayout{State: c.State()}

	if layout.State == StateFirst {
		next.Rank = 1
		layout.Program = &Placement{Kind: RowProgram, Row: t.ProgramRow, Count: 1}
		layout.Output = &Placement{Kind: RowOutput, Row: t.OutputRow, Count: 1, Rank: next.Rank}
		layout.Activity = Placement{Kind: RowActivity, Row: t.ActivityRow, Count: 1}
		layout.Expenses = Placement{Kind: RowExpense, Row: t.ExpenseRow, Count: n, Source: t.ExpenseRow}
		if n == 0 {
			next.Spare = true
			next.Row = t.ActivityRow
		} else {
			layout.Expenses.Duplicate = n - 1
			next.Row = t.ExpenseRow + n - 1
		}
	} else {
		programChanged := a.Info.Program != c.Program
		if programChanged {
			next.Row++
			layout.Program = &Placement{Kind: RowProgram, Row: next.Row, Count: 1, Duplicate: 1, Source: t.ProgramRow}
		}
		if programChanged || a.Info.Output != c.Output {
			next.Row++
			next.Rank++
			layout.Output = &Placement{Kind: RowOutput, Row: next.Row, Count: 1, Duplicate: 1, Source: t.OutputRow, Rank: next.Rank}
		}
		next.Row++
		layout.Activity = Placement{Kind: RowActivity, Row: next.Row, Count: 1, Duplicate: 1, Source: t.ActivityRow}
		layout.Expenses = Placement{Kind: RowExpense, Row: next.Row + 1, Count: n, Duplicate: n, Source: t.ExpenseRow}
		if c.Spare {
			// the unused template row has been pushed down to just below the activity
			layout.Expenses.Source = next.Row + 1
		}
		next.Row += n
	}

	next.Program = a.Info.Program
	next.Output = a.Info.Output
	next.Anchors = append(next.Anchors, layout.Activity.Row)
	next.Index++
	return layout, next
}
