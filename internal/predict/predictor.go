// Package predict estimates a parcel's 0–10 suitability score from a fixed
// feature vector, using a trained forest when available and a weighted-sum
// rule otherwise.
package predict

import (
	"github.com/Salah021-coder/start-up-sub000/internal/model"
)

// Methodology tags.
const (
	MethodologyML        = "ML"
	MethodologyRuleBased = "rule-based"
)

// Feature-vector defaults at this call site.
const (
	defaultSlope       = 0.0
	defaultElevation   = 0.0
	defaultNDVI        = 0.5
	defaultFloodPct    = 0.0
	defaultRoadDist    = 1000.0
	defaultBuildable   = 5.0
	defaultEnvScore    = 5.0
	defaultInfraScore  = 5.0
	baseConfidence     = 0.7
	completeDataBonus  = 0.2
	trainedModelBonus  = 0.1
	ruleBase           = 5.0
	ruleBuildWeight    = 0.3
	ruleEnvWeight      = 0.3
	ruleInfraWeight    = 0.4
	minScore           = 0.0
	maxScore           = 10.0
)

// Result is the predictor output.
type Result struct {
	SuitabilityScore  float64            `json:"suitability_score"`
	Confidence        float64            `json:"confidence"`
	Methodology       string             `json:"methodology"`
	FeatureImportance map[string]float64 `json:"feature_importance"`
}

// Predictor never fails: without an artifact it uses the rule.
type Predictor struct {
	artifact *Artifact
}

// NewPredictor wraps an optional trained artifact. The artifact must not be
// modified afterwards.
func NewPredictor(a *Artifact) *Predictor {
	return &Predictor{artifact: a}
}

// Trained reports whether a trained artifact is in use.
func (p *Predictor) Trained() bool {
	return p != nil && p.artifact != nil
}

// Predict scores a feature set.
func (p *Predictor) Predict(fs *model.FeatureSet) Result {
	res := Result{
		Confidence:        confidence(fs, p.Trained()),
		FeatureImportance: map[string]float64{},
	}
	if p.Trained() {
		res.SuitabilityScore = clamp(p.artifact.Predict(Vector(fs)))
		res.Methodology = MethodologyML
		res.FeatureImportance = p.artifact.Importances()
		return res
	}
	res.SuitabilityScore = RuleScore(fs)
	res.Methodology = MethodologyRuleBased
	return res
}

// Vector builds the fixed-order model input: slope, elevation, ndvi,
// flood_risk, road_distance, utilities count, buildability, env_score.
func Vector(fs *model.FeatureSet) [8]float64 {
	t, e, i := fs.Sections()
	return [8]float64{
		model.Float(t.SlopeAvg, defaultSlope),
		model.Float(t.ElevationAvg, defaultElevation),
		model.Float(e.NDVIAvg, defaultNDVI),
		model.Float(e.FloodRiskPercent, defaultFloodPct),
		model.Float(i.NearestRoadDistance, defaultRoadDist),
		float64(len(i.UtilitiesAvailable)),
		model.Float(t.BuildabilityScore, defaultBuildable),
		model.Float(e.EnvironmentalScore, defaultEnvScore),
	}
}

// RuleScore is 5 + 0.3·buildability + 0.3·environmental + 0.4·infrastructure,
// clamped to [0, 10].
func RuleScore(fs *model.FeatureSet) float64 {
	t, e, i := fs.Sections()
	score := ruleBase +
		ruleBuildWeight*model.Float(t.BuildabilityScore, defaultBuildable) +
		ruleEnvWeight*model.Float(e.EnvironmentalScore, defaultEnvScore) +
		ruleInfraWeight*model.Float(i.InfrastructureScore, defaultInfraScore)
	return clamp(score)
}

func confidence(fs *model.FeatureSet, trained bool) float64 {
	c := baseConfidence
	if fs.Has(model.SectionTerrain) && fs.Has(model.SectionEnvironmental) && fs.Has(model.SectionInfrastructure) {
		c += completeDataBonus
	}
	if trained {
		c += trainedModelBonus
	}
	if c > 1 {
		c = 1
	}
	return c
}

func clamp(v float64) float64 {
	if v < minScore {
		return minScore
	}
	if v > maxScore {
		return maxScore
	}
	return v
}
