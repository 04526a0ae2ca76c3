package matrix

import "errors"

var (
	// ErrNoActivities is returned when no source document yields an activity
	ErrNoActivities = errors.New("no activities found")

	// ErrTemplateSheetMissing is returned when the template lacks the matrix sheet
	ErrTemplateSheetMissing = errors.New("template sheet not found")
)
