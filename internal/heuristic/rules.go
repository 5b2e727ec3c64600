// internal/heuristic/rules.go
package heuristic

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Corphon/ContinuityGuard/internal/models"
)

// LineRule describes how one expense category is generated for a tier.
// Min and Max are whole numbers of Unit. A rule with Max == 0 produces the
// zero placeholder.
type LineRule struct {
	Category models.ExpenseCategory `yaml:"category"`
	Min      int                    `yaml:"min"`
	Max      int                    `yaml:"max"`
	Unit     Unit                   `yaml:"unit"`
	Reasons  []string               `yaml:"reasons"`
}

// TierTables holds the six line rules of each tier, in category order.
type TierTables struct {
	High   []LineRule `yaml:"high"`
	Medium []LineRule `yaml:"medium"`
	Low    []LineRule `yaml:"low"`
}

// ComplianceRule fires when any keyword appears in the uppercased document.
type ComplianceRule struct {
	Category         models.ComplianceCategory `yaml:"category"`
	Keywords         []string                  `yaml:"keywords"`
	TriggerText      string                    `yaml:"trigger_text"`
	LegalRequirement string                    `yaml:"legal_requirement"`
	EstimatedFine    string                    `yaml:"estimated_fine"`
}

// ContinuityFix is the budget-dependent remedy for the continuity defect.
type ContinuityFix struct {
	Fix  string `yaml:"fix"`
	Cost string `yaml:"cost"`
}

// Rules is the immutable table set driving the engine.
type Rules struct {
	// FallbackThreshold is the length above which a header-less document
	// becomes one fallback scene.
	FallbackThreshold int `yaml:"fallback_threshold"`
	// WindowSize caps the content window following a slugline, in characters.
	WindowSize int `yaml:"window_size"`

	HighTriggers   []string   `yaml:"high_triggers"`
	MediumTriggers []string   `yaml:"medium_triggers"`
	Tiers          TierTables `yaml:"tiers"`

	ComplianceRules []ComplianceRule `yaml:"compliance_rules"`
	DefaultFlag     ComplianceRule   `yaml:"default_flag"`
	// DefaultFlagThreshold is the length above which the default flag is
	// raised when no rule fired.
	DefaultFlagThreshold int `yaml:"default_flag_threshold"`

	VehicleKeywords []string                            `yaml:"vehicle_keywords"`
	MusicKeywords   []string                            `yaml:"music_keywords"`
	ContinuityFixes map[models.BudgetMode]ContinuityFix `yaml:"continuity_fixes"`

	RiskScore        int    `yaml:"risk_score"`
	PotentialSavings string `yaml:"potential_savings"`
}

// DefaultRules returns the built-in tables.
func DefaultRules() Rules {
	return Rules{
		FallbackThreshold: 50,
		WindowSize:        1500,
		HighTriggers: []string{
			"CHASE", "BLAST", "EXPLOSION", "CROWD", "VFX", "SONG",
			"FIGHT", "STUNT", "HELICOPTER", "TRAIN", "FIRE", "HIGHWAY",
		},
		MediumTriggers: []string{
			"EXT", "STREET", "CLUB", "PARTY", "WEDDING", "FOREST", "RAIN", "NIGHT",
		},
		Tiers: TierTables{
			High: []LineRule{
				{Category: models.CategoryLocation, Min: 2, Max: 10, Unit: UnitLakh, Reasons: []string{"Highway Closure / Airport Permits"}},
				{Category: models.CategoryCrowd, Min: 10, Max: 50, Unit: UnitLakh, Reasons: []string{"1000+ Junior Artists & Dancers"}},
				{Category: models.CategoryAction, Min: 15, Max: 80, Unit: UnitLakh, Reasons: []string{"Harness Team, Crash Mats, Pyro Tech"}},
				{Category: models.CategoryVehicles, Min: 5, Max: 20, Unit: UnitLakh, Reasons: []string{"Multiple Camera Cranes, Russian Arm"}},
				{Category: models.CategoryUnitFood, Min: 3, Max: 8, Unit: UnitLakh, Reasons: []string{"Full Unit Catering (Heavy Scale)"}},
				{Category: models.CategoryHidden, Min: 2, Max: 5, Unit: UnitLakh, Reasons: []string{"Hazard Pay, Breakages, Misc"}},
			},
			Medium: []LineRule{
				{Category: models.CategoryLocation, Min: 1, Max: 4, Unit: UnitLakh, Reasons: []string{
					"GHMC Road Permission", "Private Farmhouse Rent", "Ramoji Film City Floor Charge", "Forest Dept Clearance",
				}},
				{Category: models.CategoryCrowd, Min: 2, Max: 6, Unit: UnitLakh, Reasons: []string{
					"300+ Junior Artists + Batta", "Background Dancers Union Rates", "Village Crowd + Transport", "Corporate Office Extras",
				}},
				{Category: models.CategoryAction, Reasons: []string{"N/A"}},
				{Category: models.CategoryVehicles, Min: 1, Max: 3, Unit: UnitLakh, Reasons: []string{
					"Vanity Vans x4", "Generator Van (Silenced)", "Crane & Jimmy Jib", "Action Vehicles + Towing",
				}},
				{Category: models.CategoryUnitFood, Min: 1, Max: 2, Unit: UnitLakh, Reasons: []string{
					"Breakfast/Lunch/Dinner for 400 Pax", "Hi-Tea & Snacks", "VVIP Catering for Stars", "Late Night Dinner Packets",
				}},
				{Category: models.CategoryHidden, Min: 50, Max: 90, Unit: UnitThousand, Reasons: []string{
					"Diesel for Gensets", "Union Overtime Charges", "Local Union Association Fund", "Rain Machine Water Tankers",
				}},
			},
			Low: []LineRule{
				{Category: models.CategoryLocation, Min: 10, Max: 50, Unit: UnitThousand, Reasons: []string{"House/Office Rent"}},
				{Category: models.CategoryCrowd, Min: 10, Max: 30, Unit: UnitThousand, Reasons: []string{"few extras"}},
				{Category: models.CategoryAction, Reasons: []string{"N/A"}},
				{Category: models.CategoryVehicles, Min: 10, Max: 30, Unit: UnitThousand, Reasons: []string{"Transport"}},
				{Category: models.CategoryUnitFood, Min: 20, Max: 40, Unit: UnitThousand, Reasons: []string{"Tea/Coffee/Lunch"}},
				{Category: models.CategoryHidden, Min: 5, Max: 15, Unit: UnitThousand, Reasons: []string{"Misc"}},
			},
		},
		ComplianceRules: []ComplianceRule{
			{
				Category:         models.ComplianceSeriousCrime,
				Keywords:         []string{"MINOR", "CHILD", "MOLEST", "RAPE", "ABUSE", "GIRL"},
				TriggerText:      "Depiction of crimes against women/children detected.",
				LegalRequirement: "**STRICT PROHIBITION:** Under the POCSO Act and SC guidelines, graphic depiction is BANNED. \n1. Requires 'A' Certificate.\n2. Sensitive handling mandatory; no voyeuristic angles.",
				EstimatedFine:    "Refusal of Certificate / Legal Action",
			},
			{
				Category:         models.ComplianceCOTPA,
				Keywords:         []string{"SMOKE", "CIGARETTE", "ALCOHOL", "DRINK", "SCOTCH", "WHISKY"},
				TriggerText:      "Smoking/Alcohol Consumption detected.",
				LegalRequirement: "**MANDATORY:** \n1. Static 'Smoking Kills' warning.\n2. Anti-tobacco audiovisual spot.",
				EstimatedFine:    "Cuts or 'A' Certificate",
			},
			{
				Category:         models.ComplianceReligious,
				Keywords:         []string{"TEMPLE", "GOD", "PRAY", "RELIGION", "HINDU", "MUSLIM", "CHRISTIAN"},
				TriggerText:      "Religious references detected.",
				LegalRequirement: "**CAUTION:** Ensure no scenes hurt religious sentiments (IPC Section 295A).",
				EstimatedFine:    "Potential Lawsuits / Cuts",
			},
			{
				Category:         models.ComplianceAnimalWelfare,
				Keywords:         []string{"HORSE", "DOG", "TIGER", "ANIMAL", "BIRD"},
				TriggerText:      "Animal presence detected.",
				LegalRequirement: "**NOC REQUIRED:** You usually cannot shoot with animals without pre-approval from AWBI.",
				EstimatedFine:    "Shoot Stoppage",
			},
		},
		DefaultFlag: ComplianceRule{
			Category:         models.ComplianceGeneralReview,
			TriggerText:      "No specific triggers found.",
			LegalRequirement: "Proceed with standard CBFC guidelines.",
			EstimatedFine:    "None",
		},
		DefaultFlagThreshold: 10,
		VehicleKeywords:      []string{"CHASE", "CAR", "JEEP"},
		MusicKeywords:        []string{"SONG", "DANCE"},
		ContinuityFixes: map[models.BudgetMode]ContinuityFix{
			models.BudgetLow:    {Fix: "Rewrite dialogue to mention it off-screen.", Cost: "₹ 2,000"},
			models.BudgetMedium: {Fix: "Shoot a quick insert shot.", Cost: "₹ 10 Lakhs"},
			models.BudgetHigh:   {Fix: "CGI Correction in Post.", Cost: "₹ 25 Lakhs"},
		},
		RiskScore:        85,
		PotentialSavings: "₹ 50 Lakhs",
	}
}

// LoadRules reads a YAML override on top of the defaults. Keys absent from
// the file keep their default value.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("failed to parse rules file: %w", err)
	}

	rules.normalize()
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

// Dump renders the tables as YAML.
func (r Rules) Dump() ([]byte, error) {
	return yaml.Marshal(r)
}

// normalize uppercases every keyword so matching can run on uppercased text.
func (r *Rules) normalize() {
	upper := func(words []string) []string {
		out := make([]string, 0, len(words))
		for _, w := range words {
			if w = strings.ToUpper(strings.TrimSpace(w)); w != "" {
				out = append(out, w)
			}
		}
		return out
	}

	r.HighTriggers = upper(r.HighTriggers)
	r.MediumTriggers = upper(r.MediumTriggers)
	r.VehicleKeywords = upper(r.VehicleKeywords)
	r.MusicKeywords = upper(r.MusicKeywords)
	rules := make([]ComplianceRule, len(r.ComplianceRules))
	copy(rules, r.ComplianceRules)
	for i := range rules {
		rules[i].Keywords = upper(rules[i].Keywords)
	}
	r.ComplianceRules = rules
}

// Validate checks the structural invariants of the tables.
func (r Rules) Validate() error {
	if r.FallbackThreshold < 0 || r.DefaultFlagThreshold < 0 {
		return fmt.Errorf("thresholds must not be negative")
	}
	if r.WindowSize <= 0 {
		return fmt.Errorf("window_size must be positive")
	}
	if len(r.HighTriggers) == 0 {
		return fmt.Errorf("high_triggers must not be empty")
	}

	tiers := []struct {
		name  string
		lines []LineRule
	}{
		{"low", r.Tiers.Low},
		{"medium", r.Tiers.Medium},
		{"high", r.Tiers.High},
	}
	categories := models.ExpenseCategories()
	for _, tier := range tiers {
		if len(tier.lines) != len(categories) {
			return fmt.Errorf("tier %s has %d line rules, want %d", tier.name, len(tier.lines), len(categories))
		}
		for i, line := range tier.lines {
			if line.Category != categories[i] {
				return fmt.Errorf("tier %s line %d is %q, want %q", tier.name, i, line.Category, categories[i])
			}
			if line.Min < 0 || line.Max < line.Min {
				return fmt.Errorf("tier %s %q has invalid bounds [%d, %d]", tier.name, line.Category, line.Min, line.Max)
			}
			if _, ok := line.Unit.Multiplier(); !ok {
				return fmt.Errorf("tier %s %q has unknown unit %q", tier.name, line.Category, line.Unit)
			}
		}
	}

	// A higher tier never undercuts a lower one, bound by bound.
	for i, category := range categories {
		for t := 1; t < len(tiers); t++ {
			lower, higher := tiers[t-1].lines[i], tiers[t].lines[i]
			if higher.minRupees() < lower.minRupees() || higher.maxRupees() < lower.maxRupees() {
				return fmt.Errorf("tier %s %q bounds fall below tier %s", tiers[t].name, category, tiers[t-1].name)
			}
		}
	}

	seen := make(map[models.ComplianceCategory]bool)
	for _, rule := range r.ComplianceRules {
		if seen[rule.Category] {
			return fmt.Errorf("duplicate compliance rule %q", rule.Category)
		}
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("compliance rule %q has no keywords", rule.Category)
		}
		seen[rule.Category] = true
	}

	for _, mode := range []models.BudgetMode{models.BudgetLow, models.BudgetMedium, models.BudgetHigh} {
		fix, ok := r.ContinuityFixes[mode]
		if !ok {
			return fmt.Errorf("missing continuity fix for budget mode %s", mode)
		}
		if _, err := ParseCost(fix.Cost); err != nil {
			return fmt.Errorf("continuity fix for %s: %w", mode, err)
		}
	}
	if r.RiskScore < 0 || r.RiskScore > 100 {
		return fmt.Errorf("risk_score must be within 0-100")
	}
	return nil
}

func (l LineRule) minRupees() float64 {
	m, _ := l.Unit.Multiplier()
	return float64(l.Min) * m
}

func (l LineRule) maxRupees() float64 {
	m, _ := l.Unit.Multiplier()
	return float64(l.Max) * m
}
