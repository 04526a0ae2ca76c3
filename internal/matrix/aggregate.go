package matrix

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/deped/expenditure-matrix/internal/models"
)

// Merge flattens the activity lists of every source document
func Merge(lists ...[]*models.Activity) ([]*models.Activity, error) {
	var merged []*models.Activity
	for _, l := range lists {
		merged = append(merged, l...)
	}
	if len(merged) == 0 {
		return nil, ErrNoActivities
	}
	return merged, nil
}

// SortActivities orders activities by program, then output, comparing bytes.
// Equal keys keep their merge order.
func SortActivities(activities []*models.Activity) {
	sort.SliceStable(activities, func(i, j int) bool {
		a, b := activities[i].Info, activities[j].Info
		if c := strings.Compare(a.Program, b.Program); c != 0 {
			return c < 0
		}
		return strings.Compare(a.Output, b.Output) < 0
	})
}

// FoldPSF pools the regional travel allowances of all activities into one
// Program Support Fund activity. Entries sharing a label are merged: the
// unit cost becomes Σ(unitCost × quantity) and the quantity stays 1.
// Returns nil when nothing was pooled.
func FoldPSF(activities []*models.Activity) *models.Activity {
	psf := models.NewPSFActivity()
	index := make(map[string]int)
	var totals []decimal.Decimal

	for _, a := range activities {
		for _, item := range a.TEVPSF {
			amount := decimal.NewFromFloat(item.UnitCost).Mul(decimal.NewFromFloat(item.Quantity))
			if i, ok := index[item.ExpenseItem]; ok {
				totals[i] = totals[i].Add(amount)
				continue
			}
			merged := item
			merged.Quantity = 1
			index[item.ExpenseItem] = len(psf.Expenses)
			psf.Expenses = append(psf.Expenses, merged)
			totals = append(totals, amount)
		}
	}

	if len(psf.Expenses) == 0 {
		return nil
	}
	for i := range psf.Expenses {
		psf.Expenses[i].UnitCost = totals[i].InexactFloat64()
	}
	return psf
}

// Prepare merges, folds and sorts the extracted activities into the order
// they are written. The PSF activity, if any, always comes last.
func Prepare(lists ...[]*models.Activity) ([]*models.Activity, error) {
	merged, err := Merge(lists...)
	if err != nil {
		return nil, err
	}
	psf := FoldPSF(merged)
	SortActivities(merged)
	if psf != nil {
		merged = append(merged, psf)
	}
	return merged, nil
}
