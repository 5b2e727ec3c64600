// internal/heuristic/estimator.go
package heuristic

import (
	"fmt"
	"strings"

	"github.com/Corphon/ContinuityGuard/internal/models"
	"github.com/Corphon/ContinuityGuard/internal/utils"
)

const placeholderReason = "N/A"

// Estimate is the costing of one scene.
type Estimate struct {
	Tier      models.Tier
	Breakdown []models.ExpenseLineItem
	// Total is the scene cost in rupees.
	Total float64
}

// Estimator classifies scene intensity and generates expense breakdowns.
type Estimator struct {
	rules  Rules
	random Randomizer
	logger *utils.Logger
}

// NewEstimator builds an Estimator over the given tables and random source.
func NewEstimator(rules Rules, random Randomizer, logger *utils.Logger) *Estimator {
	return &Estimator{rules: rules, random: random, logger: logger}
}

// Classify returns the intensity tier of a scene. HIGH triggers win over
// MEDIUM ones.
func (e *Estimator) Classify(header, window string) models.Tier {
	header = strings.ToUpper(strings.TrimSpace(header))
	window = strings.ToUpper(window)
	if containsAnyIn(e.rules.HighTriggers, header, window) {
		return models.TierHigh
	}
	if containsAnyIn(e.rules.MediumTriggers, header, window) {
		return models.TierMedium
	}
	return models.TierLow
}

// Estimate costs one scene stub. The no-scenes sentinel gets six zero
// placeholders.
func (e *Estimator) Estimate(stub SceneStub) Estimate {
	if stub.Kind == StubNoScenes {
		return Estimate{Tier: models.TierLow, Breakdown: placeholderBreakdown()}
	}

	tier := e.Classify(stub.Header, stub.Window)
	lines := e.tierLines(tier)

	breakdown := make([]models.ExpenseLineItem, 0, len(lines))
	for _, line := range lines {
		breakdown = append(breakdown, e.lineItem(line))
	}

	return Estimate{
		Tier:      tier,
		Breakdown: breakdown,
		Total:     e.Sum(breakdown),
	}
}

// Sum adds up parsed line-item costs. An unparseable cost counts as zero.
func (e *Estimator) Sum(items []models.ExpenseLineItem) float64 {
	total := 0.0
	for _, item := range items {
		total += parseOrZero(e.logger, item)
	}
	return total
}

func (e *Estimator) tierLines(tier models.Tier) []LineRule {
	switch tier {
	case models.TierHigh:
		return e.rules.Tiers.High
	case models.TierMedium:
		return e.rules.Tiers.Medium
	default:
		return e.rules.Tiers.Low
	}
}

func (e *Estimator) lineItem(line LineRule) models.ExpenseLineItem {
	amount := 0
	if line.Max > 0 {
		amount = e.random.Between(line.Min, line.Max)
	}

	reason := placeholderReason
	switch len(line.Reasons) {
	case 0:
	case 1:
		reason = line.Reasons[0]
	default:
		reason = line.Reasons[e.random.Pick(len(line.Reasons))]
	}

	return models.ExpenseLineItem{
		Category: line.Category,
		Cost:     FormatAmount(amount, line.Unit),
		Reason:   reason,
	}
}

// Summary is the display summary of a costed scene.
func Summary(location string, tier models.Tier) string {
	return fmt.Sprintf("Scene at %s. Intensity: %s", location, tier)
}

func placeholderBreakdown() []models.ExpenseLineItem {
	categories := models.ExpenseCategories()
	items := make([]models.ExpenseLineItem, 0, len(categories))
	for _, category := range categories {
		items = append(items, models.ExpenseLineItem{
			Category: category,
			Cost:     FormatAmount(0, UnitRupee),
			Reason:   placeholderReason,
		})
	}
	return items
}

func parseOrZero(logger *utils.Logger, item models.ExpenseLineItem) float64 {
	value, err := ParseCost(item.Cost)
	if err != nil {
		logger.Warn("unparseable expense cost, counting as zero", map[string]interface{}{
			"category": string(item.Category),
			"cost":     item.Cost,
			"error":    err,
		})
		return 0
	}
	return value
}

func containsAnyIn(keywords []string, texts ...string) bool {
	for _, keyword := range keywords {
		for _, text := range texts {
			if strings.Contains(text, keyword) {
				return true
			}
		}
	}
	return false
}
