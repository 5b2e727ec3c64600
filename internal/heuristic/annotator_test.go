// internal/heuristic/annotator_test.go
package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/ContinuityGuard/internal/models"
)

func categoriesOf(risks []models.ComplianceRisk) []models.ComplianceCategory {
	out := make([]models.ComplianceCategory, 0, len(risks))
	for _, r := range risks {
		out = append(out, r.Category)
	}
	return out
}

func TestComplianceFiresInRuleOrder(t *testing.T) {
	a := NewAnnotator(DefaultRules())

	risks := a.Compliance("He smokes a cigarette outside the temple.")
	assert.Equal(t, []models.ComplianceCategory{
		models.ComplianceCOTPA,
		models.ComplianceReligious,
	}, categoriesOf(risks))
	assert.Equal(t, "Smoking/Alcohol Consumption detected.", risks[0].TriggerText)
}

func TestComplianceAllRules(t *testing.T) {
	a := NewAnnotator(DefaultRules())

	risks := a.Compliance("a tiger, whisky, a prayer and a lost child")
	assert.Equal(t, []models.ComplianceCategory{
		models.ComplianceSeriousCrime,
		models.ComplianceCOTPA,
		models.ComplianceReligious,
		models.ComplianceAnimalWelfare,
	}, categoriesOf(risks))
}

func TestComplianceDefaultFlagBoundary(t *testing.T) {
	a := NewAnnotator(DefaultRules())

	assert.Empty(t, a.Compliance("abcdefghij"))

	risks := a.Compliance("abcdefghijk")
	require.Len(t, risks, 1)
	assert.Equal(t, models.ComplianceGeneralReview, risks[0].Category)
	assert.Equal(t, "None", risks[0].EstimatedFine)
}

func TestContinuityByBudgetMode(t *testing.T) {
	a := NewAnnotator(DefaultRules())
	refs := SceneRefs{FirstID: "1", FirstHeader: "INT. TEMPLE - DAY", NextID: "2", FirstLocation: "TEMPLE"}

	low := a.Continuity(refs, models.BudgetLow)
	assert.Equal(t, "₹ 2,000", low.EstimatedCost)
	assert.Contains(t, low.SuggestedFix, "Rewrite dialogue to mention it off-screen.")

	high := a.Continuity(refs, models.BudgetHigh)
	assert.Equal(t, "₹ 25 Lakhs", high.EstimatedCost)
	assert.Contains(t, high.SuggestedFix, "CGI Correction in Post.")

	unknown := a.Continuity(refs, models.BudgetMode("Lavish"))
	assert.Equal(t, "₹ 10 Lakhs", unknown.EstimatedCost)

	assert.Equal(t, models.ErrorTypeCostumeError, low.ErrorType)
	assert.Equal(t, models.SeverityHigh, low.Severity)
	assert.Equal(t, "2 hours", low.EstimatedDelay)
	assert.Equal(t, "1", low.FromSceneID)
	assert.Equal(t, "2", low.ToSceneID)
	assert.Contains(t, low.Description, "INT. TEMPLE - DAY")
}

func TestRefsFor(t *testing.T) {
	single := RefsFor([]SceneStub{{Ordinal: 1, Header: "INT. A - DAY", Location: "A"}})
	assert.Equal(t, SceneRefs{FirstID: "1", FirstHeader: "INT. A - DAY", NextID: "1", FirstLocation: "A"}, single)

	pair := RefsFor([]SceneStub{{Ordinal: 1, Location: "A"}, {Ordinal: 2, Location: "B"}})
	assert.Equal(t, "2", pair.NextID)

	sentinel := RefsFor([]SceneStub{{Kind: StubNoScenes, Header: NoScenesHeader}})
	assert.Equal(t, SceneRefs{FirstID: "0", FirstHeader: "UNKNOWN", NextID: "0", FirstLocation: "UNKNOWN"}, sentinel)
}

func TestAssets(t *testing.T) {
	a := NewAnnotator(DefaultRules())

	assets := a.Assets("A JEEP CHASE AND A SONG", "FORT")
	require.Len(t, assets, 3)
	assert.Equal(t, "Location Permit (FORT)", assets[0].Name)
	assert.Equal(t, models.AssetStatusCleared, assets[0].Status)
	assert.Equal(t, "Vehicle", assets[1].AssetType)
	assert.Equal(t, models.AssetStatusPendingSignoff, assets[1].Status)
	assert.Equal(t, "Music", assets[2].AssetType)
	assert.Equal(t, models.AssetStatusPendingSignoff, assets[2].Status)

	quiet := a.Assets("A QUIET LIBRARY", "LIBRARY")
	assert.Equal(t, "Prop", quiet[1].AssetType)
	assert.Equal(t, models.AssetStatusNotStarted, quiet[1].Status)
	assert.Equal(t, models.AssetStatusNotStarted, quiet[2].Status)
}

func TestScheduleReferencesFirstLocation(t *testing.T) {
	risk := NewAnnotator(DefaultRules()).Schedule(SceneRefs{FirstID: "1", FirstLocation: "DOCKS"})
	assert.Equal(t, "1", risk.SceneID)
	assert.Equal(t, "Daylight", risk.RiskType)
	assert.Equal(t, models.SeverityMedium, risk.Severity)
	assert.Contains(t, risk.Message, "DOCKS")
}
