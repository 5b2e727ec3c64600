// internal/storage/report_store_test.go
package storage

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Corphon/ContinuityGuard/internal/errors"
	"github.com/Corphon/ContinuityGuard/internal/models"
)

func sampleResult(scenes int) *models.AnalysisResult {
	result := &models.AnalysisResult{TotalRiskScore: 85, PotentialSavings: "₹ 50 Lakhs"}
	for i := 0; i < scenes; i++ {
		result.Scenes = append(result.Scenes, models.Scene{ID: string(rune('1' + i)), Header: "INT. ROOM - DAY"})
	}
	return result
}

func newTestStore(t *testing.T) (*ReportStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewReportStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestReportStoreSaveAndGet(t *testing.T) {
	store, dir := newTestStore(t)

	meta, err := store.Save(sampleResult(2), models.EngineHeuristic, models.BudgetHigh)
	require.NoError(t, err)
	assert.Equal(t, 2, meta.SceneCount)
	assert.Equal(t, 85, meta.RiskScore)
	assert.FileExists(t, filepath.Join(dir, "reports", meta.ID+".json"))

	report, err := store.Get(meta.ID)
	require.NoError(t, err)
	assert.Equal(t, meta.ID, report.ID)
	assert.Equal(t, models.EngineHeuristic, report.Engine)
	assert.Equal(t, models.BudgetHigh, report.BudgetMode)
	require.NotNil(t, report.Result)
	assert.Equal(t, "₹ 50 Lakhs", report.Result.PotentialSavings)
	assert.Len(t, report.Result.Scenes, 2)
}

func TestReportStoreGetErrors(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get("../../etc/passwd")
	assert.True(t, apperrors.IsValidationError(err))

	_, err = store.Get("6f1c1f0e-8b7a-4c63-9a55-0f5d5f8d2a11")
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestReportStoreListNewestFirst(t *testing.T) {
	store, dir := newTestStore(t)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		store.now = func() time.Time { return at }
		meta, err := store.Save(sampleResult(1), models.EngineLLM, models.BudgetMedium)
		require.NoError(t, err)
		ids = append(ids, meta.ID)
	}

	// stray files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reports", "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reports", "broken.json"), []byte("{"), 0o644))

	list, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[0], list[2].ID)

	limited, err := store.List(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestReportStoreListEmpty(t *testing.T) {
	store, _ := newTestStore(t)
	list, err := store.List(10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReportStoreDelete(t *testing.T) {
	store, _ := newTestStore(t)
	meta, err := store.Save(sampleResult(1), models.EngineHeuristic, models.BudgetLow)
	require.NoError(t, err)

	require.NoError(t, store.Delete(meta.ID))
	_, err = store.Get(meta.ID)
	assert.True(t, apperrors.IsNotFoundError(err))
	assert.True(t, apperrors.IsNotFoundError(store.Delete(meta.ID)))
}

func TestReportStoreRejectsNilResult(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Save(nil, models.EngineHeuristic, models.BudgetLow)
	assert.True(t, apperrors.IsValidationError(err))
}

func TestJSONDirWriteLeavesNoTempFiles(t *testing.T) {
	root := filepath.Join(t.TempDir(), "docs")
	dir, err := NewJSONDir(root)
	require.NoError(t, err)

	require.NoError(t, dir.Write("x.json", map[string]int{"v": 1}))
	require.NoError(t, dir.Write("x.json", map[string]int{"v": 2}))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var got map[string]int
	require.NoError(t, dir.Read("x.json", &got))
	assert.Equal(t, 2, got["v"])

	names, err := dir.Names(".json")
	require.NoError(t, err)
	assert.Equal(t, []string{"x.json"}, names)
}

func TestJSONDirRejectsPathNames(t *testing.T) {
	dir, err := NewJSONDir(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../x.json", "a/b.json", ".hidden.json"} {
		assert.Error(t, dir.Write(name, 1), name)
		assert.False(t, dir.Exists(name), name)
	}

	var v int
	err = dir.Read("missing.json", &v)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Error(t, dir.Remove("missing.json"))
}
