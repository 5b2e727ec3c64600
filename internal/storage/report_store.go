// internal/storage/report_store.go
package storage

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Corphon/ContinuityGuard/internal/errors"
	"github.com/Corphon/ContinuityGuard/internal/models"
)

const (
	reportsDir    = "reports"
	reportSuffix  = ".json"
	maxListReport = 200
)

// ReportStore 归档分析报告，每份报告一个 JSON 文件
type ReportStore struct {
	dir *JSONDir
	now func() time.Time
}

// NewReportStore 在 dataDir/reports 下创建归档
func NewReportStore(dataDir string) (*ReportStore, error) {
	dir, err := NewJSONDir(filepath.Join(dataDir, reportsDir))
	if err != nil {
		return nil, err
	}
	return &ReportStore{dir: dir, now: time.Now}, nil
}

// Save 写入一份新报告并返回其元数据
func (s *ReportStore) Save(result *models.AnalysisResult, engine models.EngineKind, mode models.BudgetMode) (*models.ReportMetadata, error) {
	if result == nil {
		return nil, apperrors.NewValidationError("report result is empty", nil)
	}

	report := models.Report{
		ReportMetadata: models.ReportMetadata{
			ID:         uuid.NewString(),
			Engine:     engine,
			BudgetMode: mode,
			SceneCount: len(result.Scenes),
			RiskScore:  result.TotalRiskScore,
			CreatedAt:  s.now().UTC(),
		},
		Result: result,
	}

	if err := s.dir.Write(report.ID+reportSuffix, report); err != nil {
		return nil, apperrors.NewProcessingError("failed to archive report", err)
	}

	meta := report.ReportMetadata
	return &meta, nil
}

// Get 读取一份报告
func (s *ReportStore) Get(id string) (*models.Report, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid report id %q", id), err)
	}

	filename := parsed.String() + reportSuffix
	if !s.dir.Exists(filename) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("report %s not found", id), nil)
	}

	var report models.Report
	if err := s.dir.Read(filename, &report); err != nil {
		return nil, apperrors.NewProcessingError("failed to load report", err)
	}
	return &report, nil
}

// List 返回报告元数据，最新的在前；limit<=0 时使用上限
func (s *ReportStore) List(limit int) ([]models.ReportMetadata, error) {
	if limit <= 0 || limit > maxListReport {
		limit = maxListReport
	}

	names, err := s.dir.Names(reportSuffix)
	if err != nil {
		return nil, apperrors.NewProcessingError("failed to list reports", err)
	}

	reports := make([]models.ReportMetadata, 0, len(names))
	for _, name := range names {
		if _, err := uuid.Parse(strings.TrimSuffix(name, reportSuffix)); err != nil {
			continue
		}
		var report models.Report
		if err := s.dir.Read(name, &report); err != nil {
			// 损坏的文件跳过，不影响列表
			continue
		}
		reports = append(reports, report.ReportMetadata)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	if len(reports) > limit {
		reports = reports[:limit]
	}
	return reports, nil
}

// Delete 删除一份报告
func (s *ReportStore) Delete(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("invalid report id %q", id), err)
	}
	filename := parsed.String() + reportSuffix
	if !s.dir.Exists(filename) {
		return apperrors.NewNotFoundError(fmt.Sprintf("report %s not found", id), nil)
	}
	if err := s.dir.Remove(filename); err != nil {
		return apperrors.NewProcessingError("failed to delete report", err)
	}
	return nil
}
