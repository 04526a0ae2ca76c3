package storage

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// MatrixArchive keeps a copy of every generated Expenditure Matrix
type MatrixArchive struct {
	files   FileStorage
	folders *FolderManager
	logger  *zap.Logger
}

// NewMatrixArchive creates an archive rooted at baseDir
func NewMatrixArchive(baseDir string, logger *zap.Logger) *MatrixArchive {
	return &MatrixArchive{
		files:   NewLocalFileStorage(baseDir, logger),
		folders: NewFolderManager(baseDir, logger),
		logger:  logger,
	}
}

// MatrixFileName is the download and archive name of a conversion's output
func MatrixFileName(conversionID string) string {
	return fmt.Sprintf("Expenditure-Matrix-%s.xlsx", conversionID)
}

// Save stores data under baseDir/YYYY-MM/ and returns the file path
func (a *MatrixArchive) Save(conversionID string, createdAt time.Time, data []byte) (string, error) {
	id := a.folders.SanitizeName(conversionID)
	if id == "" {
		return "", fmt.Errorf("invalid conversion id %q", conversionID)
	}

	if !a.folders.FolderExists(createdAt) {
		a.logger.Info("Opening archive period",
			zap.String("folder", a.folders.PeriodFolderPath(createdAt)))
	}
	folder, err := a.folders.CreatePeriodFolder(createdAt)
	if err != nil {
		return "", err
	}

	path := filepath.Join(folder, MatrixFileName(id))
	if err := a.files.SaveFile(path, data); err != nil {
		return "", err
	}

	a.logger.Info("Matrix archived",
		zap.String("conversion_id", conversionID),
		zap.String("path", path))
	return path, nil
}
