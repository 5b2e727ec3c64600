// internal/models/enums.go
package models

import "strings"

// ExpenseCategory 费用类别，闭集
type ExpenseCategory string

const (
	CategoryLocation ExpenseCategory = "Location & Permits"
	CategoryCrowd    ExpenseCategory = "Crowd & Artists"
	CategoryAction   ExpenseCategory = "Action & Stunts"
	CategoryVehicles ExpenseCategory = "Vehicles & Logistics"
	CategoryUnitFood ExpenseCategory = "Unit Food (Catering)"
	CategoryHidden   ExpenseCategory = "Hidden Costs"
)

// ExpenseCategories returns the fixed category order of every breakdown.
func ExpenseCategories() []ExpenseCategory {
	return []ExpenseCategory{
		CategoryLocation,
		CategoryCrowd,
		CategoryAction,
		CategoryVehicles,
		CategoryUnitFood,
		CategoryHidden,
	}
}

// Valid reports whether c is one of the six fixed categories.
func (c ExpenseCategory) Valid() bool {
	for _, known := range ExpenseCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// ComplianceCategory 合规规则类别
type ComplianceCategory string

const (
	ComplianceSeriousCrime  ComplianceCategory = "Serious Crime / POCSO"
	ComplianceCOTPA         ComplianceCategory = "Censor Board (COTPA)"
	ComplianceReligious     ComplianceCategory = "Religious Sentiments"
	ComplianceAnimalWelfare ComplianceCategory = "Animal Welfare Board (AWBI)"
	ComplianceGeneralReview ComplianceCategory = "General Review"
)

// Tier 场景强度等级
type Tier string

const (
	TierLow    Tier = "LOW"
	TierMedium Tier = "MEDIUM"
	TierHigh   Tier = "HIGH"
)

// TimeOfDay 场景时间
type TimeOfDay string

const (
	TimeDay     TimeOfDay = "DAY"
	TimeNight   TimeOfDay = "NIGHT"
	TimeUnknown TimeOfDay = "UNKNOWN"
)

// BudgetMode 修复建议的预算模式
type BudgetMode string

const (
	BudgetLow    BudgetMode = "Low"
	BudgetMedium BudgetMode = "Medium"
	BudgetHigh   BudgetMode = "High"
)

// ParseBudgetMode maps user input onto a budget mode. Anything unrecognized
// is treated as Medium.
func ParseBudgetMode(s string) BudgetMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return BudgetLow
	case "high":
		return BudgetHigh
	default:
		return BudgetMedium
	}
}

// EngineKind 标识产生结果的分析引擎
type EngineKind string

const (
	EngineHeuristic EngineKind = "heuristic"
	EngineLLM       EngineKind = "llm"
)
