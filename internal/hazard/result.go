// Package hazard assesses seven independent natural hazards for a parcel and
// aggregates them into a risk profile. A failing assessor only affects its
// own result.
package hazard

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Type names a hazard.
type Type string

// Hazard types, in assessment order.
const (
	Flood      Type = "flood"
	Landslide  Type = "landslide"
	Erosion    Type = "erosion"
	Seismic    Type = "seismic"
	Drought    Type = "drought"
	Wildfire   Type = "wildfire"
	Subsidence Type = "subsidence"
)

// Types lists every hazard in assessment order.
var Types = []Type{Flood, Landslide, Erosion, Seismic, Drought, Wildfire, Subsidence}

// Level is the ordinal risk tier.
type Level string

// Risk vocabulary.
const (
	LevelVeryLow  Level = "very_low"
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelVeryHigh Level = "very_high"
	LevelUnknown  Level = "unknown"
)

// ErrMalformedInput is returned by an assessor whose inputs cannot be used.
var ErrMalformedInput = eris.New("hazard: malformed input")

// Result is one hazard assessment. Severity runs 1–5; 0 is reserved for
// LevelUnknown.
type Result struct {
	Type           Type           `json:"type"`
	Level          Level          `json:"level"`
	Severity       int            `json:"severity"`
	Score          float64        `json:"score"`
	PrimaryFactors []string       `json:"primary_factors"`
	Description    string         `json:"description"`
	Impact         string         `json:"impact"`
	Details        map[string]any `json:"details,omitempty"`
}

// Known reports whether the assessment produced a real tier.
func (r Result) Known() bool {
	return r.Level != LevelUnknown && r.Severity > 0
}

// Unknown is the result recorded when an assessment cannot be performed.
func Unknown(t Type) Result {
	return Result{
		Type:           t,
		Level:          LevelUnknown,
		Severity:       0,
		Score:          0,
		PrimaryFactors: []string{"Data unavailable"},
		Description:    "Risk assessment unavailable - data not accessible",
		Impact:         "Unknown - professional assessment recommended",
	}
}

// tier maps a minimum score to a level.
type tier struct {
	min      float64
	level    Level
	severity int
}

// fiveTiers builds the standard very_high..very_low table from descending
// thresholds.
func fiveTiers(veryHigh, high, medium, low float64) []tier {
	return []tier{
		{veryHigh, LevelVeryHigh, 5},
		{high, LevelHigh, 4},
		{medium, LevelMedium, 3},
		{low, LevelLow, 2},
		{math.Inf(-1), LevelVeryLow, 1},
	}
}

func classify(score float64, tiers []tier) (Level, int) {
	for _, t := range tiers {
		if score >= t.min {
			return t.level, t.severity
		}
	}
	last := tiers[len(tiers)-1]
	return last.level, last.severity
}

// texts holds the description and impact per level for one hazard.
type texts map[Level][2]string

func (tx texts) get(l Level) (description, impact string) {
	if v, ok := tx[l]; ok {
		return v[0], v[1]
	}
	return "Unknown risk level", "Unknown impact"
}

// clipScore clips to [0, 100] and rounds to one decimal.
func clipScore(s float64) float64 {
	s = math.Max(0, math.Min(100, s))
	return math.Round(s*10) / 10
}

// Title renders "very_high" as "Very High". A Caser is stateful, so one is
// built per call.
func Title(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
}
