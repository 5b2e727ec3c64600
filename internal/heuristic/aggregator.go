// internal/heuristic/aggregator.go
package heuristic

import (
	"github.com/Corphon/ContinuityGuard/internal/models"
	"github.com/Corphon/ContinuityGuard/internal/utils"
)

const rollupReason = "Aggregated Script Cost"

// Rollup sums every scene's line items per category. Categories keep the
// order in which they were first seen.
func Rollup(scenes []models.Scene, logger *utils.Logger) []models.ExpenseLineItem {
	var order []models.ExpenseCategory
	totals := make(map[models.ExpenseCategory]float64)

	for _, scene := range scenes {
		for _, item := range scene.ExpenseBreakdown {
			if _, ok := totals[item.Category]; !ok {
				order = append(order, item.Category)
			}
			totals[item.Category] += parseOrZero(logger, item)
		}
	}

	rollup := make([]models.ExpenseLineItem, 0, len(order))
	for _, category := range order {
		rollup = append(rollup, models.ExpenseLineItem{
			Category: category,
			Cost:     FormatRollup(totals[category]),
			Reason:   rollupReason,
		})
	}
	return rollup
}

// assemble builds the final result. costed lists the scenes that feed the
// rollup; the no-scenes sentinel is shown but never costed.
func (e *Engine) assemble(scenes, costed []models.Scene, notes Annotations) *models.AnalysisResult {
	return &models.AnalysisResult{
		TotalRiskScore:         e.rules.RiskScore,
		PotentialSavings:       e.rules.PotentialSavings,
		Scenes:                 scenes,
		Errors:                 notes.Errors,
		ComplianceRisks:        notes.ComplianceRisks,
		ScheduleRisks:          notes.ScheduleRisks,
		Assets:                 notes.Assets,
		OverallBudgetBreakdown: Rollup(costed, e.logger),
	}
}
