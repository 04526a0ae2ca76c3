package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMatrixArchive_Save(t *testing.T) {
	tempDir := t.TempDir()
	logger, _ := zap.NewDevelopment()
	archive := NewMatrixArchive(tempDir, logger)
	when := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)

	t.Run("stores under the month folder", func(t *testing.T) {
		id := uuid.NewString()
		path, err := archive.Save(id, when, []byte("xlsx bytes"))
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(tempDir, "2025-06", "Expenditure-Matrix-"+id+".xlsx"), path)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "xlsx bytes", string(data))
	})

	t.Run("hostile ids cannot escape", func(t *testing.T) {
		path, err := archive.Save("../../outside", when, []byte("x"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(tempDir, "2025-06", "Expenditure-Matrix-outside.xlsx"), path)
	})

	t.Run("empty id is rejected", func(t *testing.T) {
		_, err := archive.Save("../", when, []byte("x"))
		assert.Error(t, err)
	})
}

func TestMatrixArchive_OpensPeriodOnce(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	archive := NewMatrixArchive(t.TempDir(), zap.New(core))
	june := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)
	july := time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC)

	for _, when := range []time.Time{june, june, july} {
		_, err := archive.Save(uuid.NewString(), when, []byte("x"))
		require.NoError(t, err)
	}

	opened := logs.FilterMessage("Opening archive period").All()
	require.Len(t, opened, 2)
	assert.Contains(t, opened[0].ContextMap()["folder"], "2025-06")
	assert.Contains(t, opened[1].ContextMap()["folder"], "2025-07")
}

func TestMatrixFileName(t *testing.T) {
	assert.Equal(t, "Expenditure-Matrix-abc.xlsx", MatrixFileName("abc"))
}
