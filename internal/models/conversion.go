package models

import "time"

// Conversion is one Budget Estimate → Expenditure Matrix request
type Conversion struct {
	ID            int64     `json:"id"`
	ConversionID  string    `json:"conversion_id"` // uuid, also used in the output filename
	SourceFiles   string    `json:"source_files"`  // JSON array of uploaded file names
	SkippedFiles  string    `json:"skipped_files"` // JSON array, only filled under the skip policy
	ActivityCount int       `json:"activity_count"`
	ItemCount     int       `json:"item_count"`
	Status        string    `json:"status"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	OutputPath    string    `json:"output_path,omitempty"`
	DurationMS    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// Conversion status constants
const (
	ConversionStatusSucceeded = "SUCCEEDED"
	ConversionStatusFailed    = "FAILED"
)
