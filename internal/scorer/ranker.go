package scorer

import (
	"fmt"

	"github.com/Salah021-coder/start-up-sub000/internal/model"
)

// Land-use taxonomy, in evaluation order.
const (
	UseResidential     = "residential"
	UseCommercial      = "commercial"
	UseIndustrial      = "industrial"
	UseAgricultural    = "agricultural"
	UseMixedUse        = "mixed_use"
	UseTourism         = "tourism"
	UseRenewableEnergy = "renewable_energy"
)

// Taxonomy lists every land use the ranker evaluates.
var Taxonomy = []string{
	UseResidential, UseCommercial, UseIndustrial, UseAgricultural,
	UseMixedUse, UseTourism, UseRenewableEnergy,
}

// ROI categories.
const (
	ROIHigh   = "High"
	ROIMedium = "Medium"
	ROILow    = "Low"
)

const (
	baseSuitability = 5.0
	minSuitability  = 5.0
	maxRecommended  = 5

	recBaseConfidence = 0.7
	recExtremeBonus   = 0.1

	// Ranking-site defaults. These deliberately differ from the hazard
	// assessors' defaults for the same fields.
	rankDefaultSlope    = 999.0
	rankDefaultRoad     = 999999.0
	rankDefaultFloodPct = 0.0
	rankDefaultNDVI     = 0.0
)

// Recommendation is one ranked land use.
type Recommendation struct {
	Rank              int      `json:"rank"`
	UsageType         string   `json:"usage_type"`
	SuitabilityScore  float64  `json:"suitability_score"`
	Confidence        float64  `json:"confidence"`
	SupportingFactors []string `json:"supporting_factors"`
	Concerns          []string `json:"concerns"`
	EstimatedROI      string   `json:"estimated_roi"`
}

// scoreFunc adjusts the base score for one land use, appending factors and
// concerns as it goes.
type scoreFunc func(fs *model.FeatureSet, r *Recommendation) float64

// Ranker scores the taxonomy against a feature set. Only residential and
// agricultural carry rules; the other uses keep the base score.
type Ranker struct {
	rules map[string]scoreFunc
}

// NewRanker returns a Ranker with the built-in rules.
func NewRanker() *Ranker {
	return &Ranker{rules: map[string]scoreFunc{
		UseResidential:  scoreResidential,
		UseAgricultural: scoreAgricultural,
	}}
}

// Rank evaluates every land use, drops those below 5.0, sorts the rest by
// score descending (ties keep taxonomy order) and returns at most five,
// ranked from 1.
func (rk *Ranker) Rank(fs *model.FeatureSet) []Recommendation {
	var recs []Recommendation
	for _, use := range Taxonomy {
		r := Recommendation{
			UsageType:         use,
			SupportingFactors: []string{},
			Concerns:          []string{},
		}
		score := baseSuitability
		if rule, ok := rk.rules[use]; ok {
			score += rule(fs, &r)
		}
		score = round(clampScore(score), 2)
		if score < minSuitability {
			continue
		}
		r.SuitabilityScore = score
		r.Confidence = recommendationConfidence(score)
		r.EstimatedROI = EstimateROI(score)
		recs = append(recs, r)
	}

	sortBySuitability(recs)
	if len(recs) > maxRecommended {
		recs = recs[:maxRecommended]
	}
	for i := range recs {
		recs[i].Rank = i + 1
	}
	return recs
}

func scoreResidential(fs *model.FeatureSet, r *Recommendation) float64 {
	t, e, i := fs.Sections()
	var adj float64

	slope := model.Float(t.SlopeAvg, rankDefaultSlope)
	switch {
	case slope < 8:
		adj += 2.0
		r.SupportingFactors = append(r.SupportingFactors, fmt.Sprintf("Gentle slope: %.1f°", slope))
	case slope > 15:
		adj -= 1.5
		r.Concerns = append(r.Concerns, fmt.Sprintf("Steep slope: %.1f°", slope))
	}

	road := model.Float(i.NearestRoadDistance, rankDefaultRoad)
	switch {
	case road < 500:
		adj += 2.0
		r.SupportingFactors = append(r.SupportingFactors, fmt.Sprintf("Excellent road access: %.0fm", road))
	case road > 2000:
		adj -= 1.5
		r.Concerns = append(r.Concerns, fmt.Sprintf("Limited road access: %.1fkm", road/1000))
	}

	flood := model.Float(e.FloodRiskPercent, rankDefaultFloodPct)
	switch {
	case flood < 10:
		adj += 1.0
		r.SupportingFactors = append(r.SupportingFactors, "Low flood risk")
	case flood > 30:
		adj -= 2.0
		r.Concerns = append(r.Concerns, fmt.Sprintf("High flood risk: %.0f%% of area", flood))
	}
	return adj
}

func scoreAgricultural(fs *model.FeatureSet, r *Recommendation) float64 {
	t, e, _ := fs.Sections()
	var adj float64

	ndvi := model.Float(e.NDVIAvg, rankDefaultNDVI)
	switch {
	case ndvi > 0.6:
		adj += 2.5
		r.SupportingFactors = append(r.SupportingFactors, fmt.Sprintf("Excellent vegetation index: NDVI %.2f", ndvi))
	case ndvi < 0.3:
		adj -= 1.5
		r.Concerns = append(r.Concerns, fmt.Sprintf("Poor vegetation: NDVI %.2f", ndvi))
	}

	if slope := model.Float(t.SlopeAvg, rankDefaultSlope); slope < 5 {
		adj += 1.5
		r.SupportingFactors = append(r.SupportingFactors, "Flat terrain ideal for mechanized farming")
	}
	return adj
}

func recommendationConfidence(score float64) float64 {
	c := recBaseConfidence
	if score > 8 || score < 3 {
		c += recExtremeBonus
	}
	return c
}

// EstimateROI maps a suitability score to an ROI category.
func EstimateROI(score float64) string {
	switch {
	case score >= 8:
		return ROIHigh
	case score >= 6:
		return ROIMedium
	default:
		return ROILow
	}
}

// sortBySuitability is an insertion sort, so equal scores keep their order.
func sortBySuitability(recs []Recommendation) {
	for i := 1; i < len(recs); i++ {
		for j := i; j > 0 && recs[j].SuitabilityScore > recs[j-1].SuitabilityScore; j-- {
			recs[j], recs[j-1] = recs[j-1], recs[j]
		}
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
