// internal/models/analysis.go
package models

import "time"

// Severity 风险等级
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// ErrorType 连续性错误类型
type ErrorType string

const (
	ErrorTypeTimeJump           ErrorType = "Time Jump"
	ErrorTypeLocationMismatch   ErrorType = "Location Mismatch"
	ErrorTypePropInconsistency  ErrorType = "Prop Inconsistency"
	ErrorTypeCostumeError       ErrorType = "Costume Error"
	ErrorTypeCharacterPlacement ErrorType = "Character Placement"
	ErrorTypeOther              ErrorType = "Other"
)

// AssetStatus 资产清关状态
type AssetStatus string

const (
	AssetStatusCleared        AssetStatus = "Cleared"
	AssetStatusPendingSignoff AssetStatus = "Pending Sign-off"
	AssetStatusNotStarted     AssetStatus = "Not Started"
)

// ContinuityError 表示两个场景之间的连续性问题
type ContinuityError struct {
	ErrorType      ErrorType `json:"error_type"`
	Description    string    `json:"description"`
	Severity       Severity  `json:"severity"`
	EstimatedCost  string    `json:"estimated_cost"`
	EstimatedDelay string    `json:"estimated_delay"`
	SuggestedFix   string    `json:"suggested_fix"`
	Reasoning      string    `json:"reasoning"`
	FromSceneID    string    `json:"from_scene_id,omitempty"`
	ToSceneID      string    `json:"to_scene_id,omitempty"`
}

// ScheduleRisk 排期风险
type ScheduleRisk struct {
	SceneID  string   `json:"scene_id"`
	RiskType string   `json:"risk_type"` // Daylight, Turnaround, Overtime
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// ComplianceRisk 审查/法律风险
type ComplianceRisk struct {
	Category         ComplianceCategory `json:"category"`
	TriggerText      string             `json:"trigger_text"`
	LegalRequirement string             `json:"legal_requirement"`
	EstimatedFine    string             `json:"estimated_fine"`
}

// ProductionAsset 需要清关的制作资产
type ProductionAsset struct {
	AssetType string      `json:"asset_type"` // Location, Music, Vehicle, Prop
	Name      string      `json:"name"`
	Status    AssetStatus `json:"status"`
}

// ExpenseLineItem 单条费用明细，cost 为带单位的展示字符串
type ExpenseLineItem struct {
	Category ExpenseCategory `json:"category"`
	Cost     string          `json:"cost"`
	Reason   string          `json:"reason"`
}

// Scene 剧本中的一个场景
type Scene struct {
	ID               string            `json:"id"`
	Header           string            `json:"header"`
	Summary          string            `json:"summary"`
	Location         string            `json:"location,omitempty"`
	Time             TimeOfDay         `json:"time,omitempty"`
	EstimatedCost    string            `json:"estimated_cost,omitempty"`
	BudgetCode       BudgetCode        `json:"budget_code"`
	ExpenseBreakdown []ExpenseLineItem `json:"expense_breakdown"`
}

// AnalysisResult 一次剧本分析的完整结果
type AnalysisResult struct {
	TotalRiskScore         int               `json:"total_risk_score"`
	PotentialSavings       string            `json:"potential_savings"`
	Scenes                 []Scene           `json:"scenes"`
	Errors                 []ContinuityError `json:"errors"`
	ComplianceRisks        []ComplianceRisk  `json:"compliance_risks"`
	ScheduleRisks          []ScheduleRisk    `json:"schedule_risks"`
	Assets                 []ProductionAsset `json:"assets"`
	OverallBudgetBreakdown []ExpenseLineItem `json:"overall_budget_breakdown"`
}

// ReportMetadata 归档报告的列表信息
type ReportMetadata struct {
	ID         string     `json:"id"`
	Engine     EngineKind `json:"engine"`
	BudgetMode BudgetMode `json:"budget_mode"`
	SceneCount int        `json:"scene_count"`
	RiskScore  int        `json:"risk_score"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Report 归档的分析报告
type Report struct {
	ReportMetadata
	Result *AnalysisResult `json:"result"`
}
