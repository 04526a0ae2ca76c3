package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"go.uber.org/zap"
)

var unsafeFolderChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// FolderManager lays out the archive as one folder per month
type FolderManager struct {
	baseDir string
	logger  *zap.Logger
}

// NewFolderManager creates a new FolderManager
func NewFolderManager(baseDir string, logger *zap.Logger) *FolderManager {
	return &FolderManager{
		baseDir: baseDir,
		logger:  logger,
	}
}

// PeriodFolderPath returns baseDir/YYYY-MM for t without creating it
func (m *FolderManager) PeriodFolderPath(t time.Time) string {
	return filepath.Join(m.baseDir, t.UTC().Format("2006-01"))
}

// CreatePeriodFolder creates the folder for t's month
func (m *FolderManager) CreatePeriodFolder(t time.Time) (string, error) {
	folderPath := m.PeriodFolderPath(t)
	if err := os.MkdirAll(folderPath, 0755); err != nil {
		m.logger.Error("Failed to create archive folder",
			zap.String("folder_path", folderPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to create folder: %w", err)
	}
	return folderPath, nil
}

// FolderExists reports whether t's month folder exists
func (m *FolderManager) FolderExists(t time.Time) bool {
	info, err := os.Stat(m.PeriodFolderPath(t))
	return err == nil && info.IsDir()
}

// SanitizeName strips everything but letters, digits, hyphens and underscores
func (m *FolderManager) SanitizeName(name string) string {
	return unsafeFolderChars.ReplaceAllString(name, "")
}
