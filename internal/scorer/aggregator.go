package scorer

import (
	"math"

	"go.uber.org/zap"

	"github.com/Salah021-coder/start-up-sub000/internal/ahp"
	"github.com/Salah021-coder/start-up-sub000/internal/config"
	"github.com/Salah021-coder/start-up-sub000/internal/model"
	"github.com/Salah021-coder/start-up-sub000/internal/predict"
)

const (
	defaultComponentScore = 5.0
	consistentConfidence  = 0.9
	inconsistentConf      = 0.7

	// Simplified development-risk thresholds.
	riskFloodPercent = 30.0
	riskSlope        = 15.0
	riskRoadDistance = 2000.0
)

// Development-risk levels reported in RiskSummary.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// RiskSummary is the aggregator's quick development-risk check. It is
// independent of the hazard profile.
type RiskSummary struct {
	Level     string   `json:"level"`
	Risks     []string `json:"risks"`
	RiskCount int      `json:"risk_count"`
}

// Breakdown reports each method's weighted contribution.
type Breakdown struct {
	AHPContribution float64 `json:"ahp_contribution"`
	MLContribution  float64 `json:"ml_contribution"`
}

// Result is the aggregated suitability outcome.
type Result struct {
	OverallScore    float64          `json:"overall_score"`
	AHPScore        float64          `json:"ahp_score"`
	MLScore         float64          `json:"ml_score"`
	Confidence      float64          `json:"confidence"`
	Recommendations []Recommendation `json:"recommendations"`
	RiskAssessment  RiskSummary      `json:"risk_assessment"`
	ScoreBreakdown  Breakdown        `json:"score_breakdown"`
}

// Aggregator blends the AHP total and the predictor score.
type Aggregator struct {
	AHPWeight float64
	MLWeight  float64
	Ranker    *Ranker
}

// NewAggregator validates cfg and returns an Aggregator using its weights.
func NewAggregator(cfg config.ScoringConfig) (*Aggregator, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return &Aggregator{AHPWeight: cfg.AHPWeight, MLWeight: cfg.MLWeight, Ranker: NewRanker()}, nil
}

// Aggregate combines the two scores for fs. A nil AHP result counts as an
// inconsistent 5.0.
func (a *Aggregator) Aggregate(ahpRes *ahp.Result, pred predict.Result, fs *model.FeatureSet) Result {
	ahpScore := defaultComponentScore
	ahpConf := inconsistentConf
	if ahpRes != nil {
		ahpScore = ahpRes.TotalScore
		if ahpRes.IsConsistent {
			ahpConf = consistentConfidence
		}
	}
	mlScore := pred.SuitabilityScore

	ahpPart := ahpScore * a.AHPWeight
	mlPart := mlScore * a.MLWeight
	overall := ahpPart + mlPart

	ranker := a.Ranker
	if ranker == nil {
		ranker = NewRanker()
	}

	res := Result{
		OverallScore:    round(overall, 2),
		AHPScore:        round(ahpScore, 2),
		MLScore:         round(mlScore, 2),
		Confidence:      round((ahpConf+pred.Confidence)/2, 3),
		Recommendations: ranker.Rank(fs),
		RiskAssessment:  AssessDevelopmentRisk(fs),
		ScoreBreakdown: Breakdown{
			AHPContribution: round(ahpPart, 2),
			MLContribution:  round(mlPart, 2),
		},
	}

	zap.L().Debug("scorer: aggregated",
		zap.Float64("overall", res.OverallScore),
		zap.Float64("confidence", res.Confidence),
		zap.Int("recommendations", len(res.Recommendations)),
	)
	return res
}

// AssessDevelopmentRisk flags high flood exposure, steep ground and poor road
// access. Missing values count as 0.
func AssessDevelopmentRisk(fs *model.FeatureSet) RiskSummary {
	t, e, i := fs.Sections()
	rs := RiskSummary{Level: RiskLow, Risks: []string{}}

	if model.Float(e.FloodRiskPercent, 0) > riskFloodPercent {
		rs.Risks = append(rs.Risks, "High flood risk")
		rs.Level = RiskHigh
	}
	if model.Float(t.SlopeAvg, 0) > riskSlope {
		rs.Risks = append(rs.Risks, "Steep slopes may increase construction costs")
		if rs.Level == RiskLow {
			rs.Level = RiskMedium
		}
	}
	if model.Float(i.NearestRoadDistance, 0) > riskRoadDistance {
		rs.Risks = append(rs.Risks, "Limited road access")
		if rs.Level == RiskLow {
			rs.Level = RiskMedium
		}
	}

	rs.RiskCount = len(rs.Risks)
	return rs
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
