package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deped/expenditure-matrix/internal/models"
)

func activity(program, output, title string) *models.Activity {
	return &models.Activity{Info: models.ActivityInfo{
		Program:       program,
		Output:        output,
		ActivityTitle: title,
	}}
}

func titles(activities []*models.Activity) []string {
	out := make([]string, len(activities))
	for i, a := range activities {
		out[i] = a.Info.ActivityTitle
	}
	return out
}

func TestMerge(t *testing.T) {
	t.Run("empty input is an error", func(t *testing.T) {
		merged, err := Merge(nil, []*models.Activity{})
		assert.Nil(t, merged)
		assert.ErrorIs(t, err, ErrNoActivities)
		assert.EqualError(t, err, "no activities found")
	})

	t.Run("lists are concatenated in order", func(t *testing.T) {
		merged, err := Merge(
			[]*models.Activity{activity("P", "O", "a1"), activity("P", "O", "a2")},
			nil,
			[]*models.Activity{activity("P", "O", "b1")},
		)
		require.NoError(t, err)
		assert.Equal(t, []string{"a1", "a2", "b1"}, titles(merged))
	})
}

func TestSortActivities(t *testing.T) {
	t.Run("orders by program then output with ordinal comparison", func(t *testing.T) {
		list := []*models.Activity{
			activity("b", "x", "1"),
			activity("B", "y", "2"),
			activity("B", "X", "3"),
			activity("a", "z", "4"),
		}
		SortActivities(list)
		// uppercase sorts before lowercase byte-wise
		assert.Equal(t, []string{"3", "2", "4", "1"}, titles(list))
	})

	t.Run("equal keys keep merge order", func(t *testing.T) {
		list := []*models.Activity{
			activity("P2", "O1", "file1-a"),
			activity("P1", "O1", "file1-b"),
			activity("P2", "O1", "file2-a"),
			activity("P1", "O1", "file2-b"),
		}
		SortActivities(list)
		assert.Equal(t, []string{"file1-b", "file2-b", "file1-a", "file2-a"}, titles(list))
	})

	t.Run("sorting is idempotent", func(t *testing.T) {
		list := []*models.Activity{
			activity("P2", "O2", "1"),
			activity("P1", "O9", "2"),
			activity("P1", "O1", "3"),
			activity("P1", "O1", "4"),
		}
		SortActivities(list)
		once := titles(list)
		SortActivities(list)
		assert.Equal(t, once, titles(list))
	})
}

func TestFoldPSF(t *testing.T) {
	pooled := func(label string, qty, unitCost float64) models.ExpenseItem {
		return models.ExpenseItem{
			ExpenseGroup:  models.ExpenseGroupTraining,
			GAAObject:     models.GAAObjectTraining,
			ExpenseItem:   label,
			Quantity:      qty,
			Freq:          1,
			UnitCost:      unitCost,
			ReleaseManner: models.ReleaseForDownloadPSF,
		}
	}

	t.Run("identical labels merge into one entry", func(t *testing.T) {
		a := activity("P1", "O1", "a")
		a.TEVPSF = []models.ExpenseItem{pooled("Travel Allowance of Participants - Region I", 2, 100)}
		b := activity("P2", "O1", "b")
		b.TEVPSF = []models.ExpenseItem{pooled("Travel Allowance of Participants - Region I", 3, 50)}

		psf := FoldPSF([]*models.Activity{a, b})
		require.NotNil(t, psf)
		require.Len(t, psf.Expenses, 1)
		assert.Equal(t, 1.0, psf.Expenses[0].Quantity)
		assert.Equal(t, 350.0, psf.Expenses[0].UnitCost)
		assert.Equal(t, models.PSFProgram, psf.Info.Program)
		assert.Equal(t, 0, psf.Info.Month)
	})

	t.Run("first appearance fixes entry order", func(t *testing.T) {
		a := activity("P9", "O1", "a")
		a.TEVPSF = []models.ExpenseItem{pooled("R-II", 1, 10), pooled("R-I", 2, 10)}
		b := activity("P1", "O1", "b")
		b.TEVPSF = []models.ExpenseItem{pooled("R-III", 1, 10), pooled("R-II", 1, 5)}

		psf := FoldPSF([]*models.Activity{a, b})
		require.Len(t, psf.Expenses, 3)
		assert.Equal(t, "R-II", psf.Expenses[0].ExpenseItem)
		assert.Equal(t, 15.0, psf.Expenses[0].UnitCost)
		assert.Equal(t, "R-I", psf.Expenses[1].ExpenseItem)
		assert.Equal(t, 20.0, psf.Expenses[1].UnitCost)
		assert.Equal(t, "R-III", psf.Expenses[2].ExpenseItem)
	})

	t.Run("cents accumulate exactly", func(t *testing.T) {
		a := activity("P1", "O1", "a")
		for i := 0; i < 10; i++ {
			a.TEVPSF = append(a.TEVPSF, pooled("R-I", 1, 0.1))
		}
		psf := FoldPSF([]*models.Activity{a})
		assert.Equal(t, 1.0, psf.Expenses[0].UnitCost)
	})

	t.Run("nothing pooled yields no activity", func(t *testing.T) {
		assert.Nil(t, FoldPSF([]*models.Activity{activity("P1", "O1", "a")}))
	})
}

func TestPrepare(t *testing.T) {
	t.Run("PSF is appended after the sorted activities", func(t *testing.T) {
		a := activity("Z", "O1", "z")
		a.TEVPSF = []models.ExpenseItem{{ExpenseItem: "R-I", Quantity: 2, UnitCost: 10}}
		b := activity("A", "O1", "a")

		ordered, err := Prepare([]*models.Activity{a}, []*models.Activity{b})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "z", models.PSFActivityTitle}, titles(ordered))
		assert.Equal(t, 20.0, ordered[2].Expenses[0].UnitCost)
	})

	t.Run("no PSF activity when nothing is pooled", func(t *testing.T) {
		ordered, err := Prepare([]*models.Activity{activity("A", "O", "a")})
		require.NoError(t, err)
		assert.Len(t, ordered, 1)
	})

	t.Run("empty input fails", func(t *testing.T) {
		_, err := Prepare()
		assert.ErrorIs(t, err, ErrNoActivities)
	})
}
