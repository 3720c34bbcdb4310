package pipeline

import (
	"time"

	"github.com/Salah021-coder/start-up-sub000/internal/ahp"
	"github.com/Salah021-coder/start-up-sub000/internal/criteria"
	"github.com/Salah021-coder/start-up-sub000/internal/geo"
	"github.com/Salah021-coder/start-up-sub000/internal/hazard"
	"github.com/Salah021-coder/start-up-sub000/internal/model"
	"github.com/Salah021-coder/start-up-sub000/internal/predict"
	"github.com/Salah021-coder/start-up-sub000/internal/scorer"
)

// PhaseStatus is the outcome of one analysis phase.
type PhaseStatus string

const (
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
)

// Phase names, in execution order.
const (
	PhaseCriteria  = "criteria"
	PhaseAHP       = "ahp"
	PhasePredict   = "predict"
	PhaseHazard    = "hazard"
	PhaseAggregate = "aggregate"
)

// PhaseResult records timing for one phase of an analysis.
type PhaseResult struct {
	Name       string      `json:"name"`
	Status     PhaseStatus `json:"status"`
	DurationMS int64       `json:"duration_ms"`
	Error      string      `json:"error,omitempty"`
}

// Request is the input to a single analysis.
type Request struct {
	Features  *model.FeatureSet `json:"features"`
	TargetUse string            `json:"target_use,omitempty"`
	// Boundary, when set, replaces the feature set's boundary section.
	Boundary *geo.Boundary `json:"-"`
	// Label identifies the request in batch logs and results.
	Label string `json:"-"`
}

// Analysis is the complete, JSON-serializable outcome for one parcel. It is
// what the store persists and the exporters write.
type Analysis struct {
	ID          string             `json:"id"`
	CreatedAt   time.Time          `json:"created_at"`
	TargetUse   string             `json:"target_use"`
	Centroid    geo.Point          `json:"centroid"`
	ClimateZone geo.Zone           `json:"climate_zone"`
	Criteria    criteria.Selection `json:"criteria"`
	AHP         *ahp.Result        `json:"ahp"`
	Prediction  predict.Result     `json:"prediction"`
	Result      scorer.Result      `json:"result"`
	Risk        hazard.Profile     `json:"risk"`
	Phases      []PhaseResult      `json:"phases,omitempty"`
	Features    *model.FeatureSet  `json:"features,omitempty"`
}

// Summary is the list view of a stored analysis.
type Summary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	TargetUse    string    `json:"target_use"`
	OverallScore float64   `json:"overall_score"`
	RiskLevel    string    `json:"risk_level"`
	TopUse       string    `json:"top_use,omitempty"`
}

// Summarize returns the list view of a.
func (a *Analysis) Summarize() Summary {
	s := Summary{
		ID:           a.ID,
		CreatedAt:    a.CreatedAt,
		TargetUse:    a.TargetUse,
		OverallScore: a.Result.OverallScore,
		RiskLevel:    string(a.Risk.Overall.Level),
	}
	if len(a.Result.Recommendations) > 0 {
		s.TopUse = a.Result.Recommendations[0].UsageType
	}
	return s
}
