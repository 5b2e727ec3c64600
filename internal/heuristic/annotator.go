// internal/heuristic/annotator.go
package heuristic

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Corphon/ContinuityGuard/internal/models"
)

// SceneRefs are the scene identities the document-level annotations point at.
type SceneRefs struct {
	FirstID       string
	FirstHeader   string
	NextID        string
	FirstLocation string
}

// RefsFor derives annotation references from the segmented stubs.
func RefsFor(stubs []SceneStub) SceneRefs {
	if len(stubs) == 0 || stubs[0].Kind == StubNoScenes {
		return SceneRefs{
			FirstID:       noScenesID,
			FirstHeader:   unknownHeader,
			NextID:        noScenesID,
			FirstLocation: unknownLocation,
		}
	}

	refs := SceneRefs{
		FirstID:       stubs[0].ID(),
		FirstHeader:   stubs[0].Header,
		NextID:        stubs[0].ID(),
		FirstLocation: stubs[0].Location,
	}
	if len(stubs) > 1 {
		refs.NextID = stubs[1].ID()
	}
	return refs
}

// Annotations are the document-level findings of one analysis.
type Annotations struct {
	Errors          []models.ContinuityError
	ComplianceRisks []models.ComplianceRisk
	ScheduleRisks   []models.ScheduleRisk
	Assets          []models.ProductionAsset
}

// Annotator derives continuity, compliance, schedule and asset findings.
type Annotator struct {
	rules Rules
}

// NewAnnotator builds an Annotator over the rule tables.
func NewAnnotator(rules Rules) *Annotator {
	return &Annotator{rules: rules}
}

// Annotate runs every document-level rule.
func (a *Annotator) Annotate(doc string, refs SceneRefs, mode models.BudgetMode) Annotations {
	upper := strings.ToUpper(doc)
	return Annotations{
		Errors:          []models.ContinuityError{a.Continuity(refs, mode)},
		ComplianceRisks: a.Compliance(doc),
		ScheduleRisks:   []models.ScheduleRisk{a.Schedule(refs)},
		Assets:          a.Assets(upper, refs.FirstLocation),
	}
}

// Continuity synthesizes the costume defect between the first two scenes.
func (a *Annotator) Continuity(refs SceneRefs, mode models.BudgetMode) models.ContinuityError {
	fix, ok := a.rules.ContinuityFixes[mode]
	if !ok {
		fix = a.rules.ContinuityFixes[models.BudgetMedium]
	}

	description := fmt.Sprintf(
		"**LOGIC FAILURE:** In %s, the Hero enters wearing **Ray-Ban Aviators**. "+
			"However, in the subsequent shots (Scene %s), the script descriptions imply eye contact which would require him to NOT represent them, yet no action line specifies him removing them.\n\n"+
			"**REAL LIFE IMPACT:** If shot out of order, you will have a 'Magic Sunglasses' blooper. Reshoots for this specific continuity usually cost ~₹10L per day for main talent.",
		refs.FirstHeader, refs.NextID)

	suggested := fmt.Sprintf(
		"**DIRECTOR'S FIX:** %s Specifically, add a 2-second action beat: 'HERO dramatically removes glasses' before the dialogue starts. This creates a clean cut point.",
		fix.Fix)

	return models.ContinuityError{
		ErrorType:      models.ErrorTypeCostumeError,
		Description:    description,
		Severity:       models.SeverityHigh,
		EstimatedCost:  fix.Cost,
		EstimatedDelay: "2 hours",
		SuggestedFix:   suggested,
		Reasoning:      "Objects (Sunglasses) cannot disappear between continuous shots without an establishing action.",
		FromSceneID:    refs.FirstID,
		ToSceneID:      refs.NextID,
	}
}

// Compliance evaluates the rules in table order, then the default flag.
func (a *Annotator) Compliance(doc string) []models.ComplianceRisk {
	upper := strings.ToUpper(doc)
	risks := make([]models.ComplianceRisk, 0, len(a.rules.ComplianceRules))

	for _, rule := range a.rules.ComplianceRules {
		if containsAnyIn(rule.Keywords, upper) {
			risks = append(risks, toRisk(rule))
		}
	}

	if len(risks) == 0 && utf8.RuneCountInString(doc) > a.rules.DefaultFlagThreshold {
		risks = append(risks, toRisk(a.rules.DefaultFlag))
	}
	return risks
}

// Schedule builds the daylight risk for the first scene.
func (a *Annotator) Schedule(refs SceneRefs) models.ScheduleRisk {
	message := fmt.Sprintf(
		"**LOGISTICAL NIGHTMARE:** You are attempting to shoot an EXT. DAY sequence at %s which involves a 'Chase/Action' element.\n\n"+
			"**REASONING:** Action sequences consume 3x more time than dialogue. You only have ~10 hours of usable daylight. With 300+ Junior Artists, reset time between takes will be 20 minutes. You will likely lose the light before completing coverage, forcing an expensive 'Day 2'.",
		refs.FirstLocation)

	return models.ScheduleRisk{
		SceneID:  refs.FirstID,
		RiskType: "Daylight",
		Message:  message,
		Severity: models.SeverityMedium,
	}
}

// Assets returns the location, vehicle-or-prop and music assets.
func (a *Annotator) Assets(upperDoc, location string) []models.ProductionAsset {
	assets := []models.ProductionAsset{{
		AssetType: "Location",
		Name:      fmt.Sprintf("Location Permit (%s)", location),
		Status:    models.AssetStatusCleared,
	}}

	if containsAnyIn(a.rules.VehicleKeywords, upperDoc) {
		assets = append(assets, models.ProductionAsset{
			AssetType: "Vehicle",
			Name:      "Vintage Car / Jeep (Action Sequence)",
			Status:    models.AssetStatusPendingSignoff,
		})
	} else {
		assets = append(assets, models.ProductionAsset{
			AssetType: "Prop",
			Name:      "Specific Prop Requirement",
			Status:    models.AssetStatusNotStarted,
		})
	}

	music := models.AssetStatusNotStarted
	if containsAnyIn(a.rules.MusicKeywords, upperDoc) {
		music = models.AssetStatusPendingSignoff
	}
	assets = append(assets, models.ProductionAsset{
		AssetType: "Music",
		Name:      "Background Score / Song Rights",
		Status:    music,
	})
	return assets
}

func toRisk(rule ComplianceRule) models.ComplianceRisk {
	return models.ComplianceRisk{
		Category:         rule.Category,
		TriggerText:      rule.TriggerText,
		LegalRequirement: rule.LegalRequirement,
		EstimatedFine:    rule.EstimatedFine,
	}
}
