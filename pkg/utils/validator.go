package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// WorkbookExtensions are the upload formats the extractor can open
var WorkbookExtensions = []string{".xlsx", ".xlsm"}

var (
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	unsafeName   = regexp.MustCompile(`[^A-Za-z0-9._\- ]+`)
)

// ValidateWorkbookName checks that an uploaded file looks like a workbook
func ValidateWorkbookName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("file name is empty")
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range WorkbookExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("unsupported file type %q: expected one of %s", name, strings.Join(WorkbookExtensions, ", "))
}

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

// SanitizeFilename reduces a client supplied name to a safe base name
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(SanitizeString(name), `\`, "/"))
	base = strings.TrimSpace(unsafeName.ReplaceAllString(base, "_"))
	if base == "" || base == "." || base == ".." {
		return "upload"
	}
	return base
}
