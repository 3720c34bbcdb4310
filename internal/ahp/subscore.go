package ahp

import (
	"math"

	"github.com/Salah021-coder/start-up-sub000/internal/criteria"
	"github.com/Salah021-coder/start-up-sub000/internal/model"
)

// Defaults for missing feature values at this call site.
const (
	defaultSlope          = 0.0
	defaultElevation      = 0.0
	defaultFloodPercent   = 0.0
	defaultNDVI           = 0.5
	defaultAccessibility  = 5.0
	defaultInfrastructure = 5.0
)

// ScoreCriteria maps raw features to 0–10 sub-scores for each category
// present in w. Keys and order are fixed:
// terrain_slope, terrain_elevation, env_flood_risk, env_vegetation,
// infra_road, infra_utilities.
func ScoreCriteria(fs *model.FeatureSet, w criteria.Weights) model.OrderedValues {
	var (
		terrain model.Terrain
		env     model.Environmental
		infra   model.Infrastructure
	)
	if fs != nil {
		if fs.Terrain != nil {
			terrain = *fs.Terrain
		}
		if fs.Environmental != nil {
			env = *fs.Environmental
		}
		if fs.Infrastructure != nil {
			infra = *fs.Infrastructure
		}
	}

	scores := model.OrderedValues{}
	if w.Has(criteria.CategoryTerrain) {
		scores = append(scores,
			model.NamedValue{Name: "terrain_slope", Value: SlopeScore(model.Float(terrain.SlopeAvg, defaultSlope))},
			model.NamedValue{Name: "terrain_elevation", Value: ElevationScore(model.Float(terrain.ElevationAvg, defaultElevation))},
		)
	}
	if w.Has(criteria.CategoryEnvironmental) {
		scores = append(scores,
			model.NamedValue{Name: "env_flood_risk", Value: FloodRiskScore(model.Float(env.FloodRiskPercent, defaultFloodPercent))},
			model.NamedValue{Name: "env_vegetation", Value: model.Float(env.NDVIAvg, defaultNDVI) * 10},
		)
	}
	if w.Has(criteria.CategoryInfrastructure) {
		scores = append(scores,
			model.NamedValue{Name: "infra_road", Value: model.Float(infra.AccessibilityScore, defaultAccessibility)},
			model.NamedValue{Name: "infra_utilities", Value: model.Float(infra.InfrastructureScore, defaultInfrastructure)},
		)
	}
	return scores
}

// SlopeScore favours flat ground.
func SlopeScore(slope float64) float64 {
	switch {
	case slope < 3:
		return 10
	case slope < 8:
		return 8
	case slope < 15:
		return 6
	case slope < 30:
		return 4
	default:
		return 2
	}
}

// ElevationScore favours moderate elevations.
func ElevationScore(elevation float64) float64 {
	switch {
	case elevation >= 100 && elevation <= 500:
		return 9
	case elevation >= 50 && elevation <= 1000:
		return 7
	default:
		return 5
	}
}

// FloodRiskScore is 10 - percent/10, floored at 0.
func FloodRiskScore(percent float64) float64 {
	return math.Max(0, 10-percent/10)
}
