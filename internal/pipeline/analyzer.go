// Package pipeline runs the full parcel analysis: criteria selection, AHP,
// suitability prediction, hazard assessment and score aggregation.
package pipeline

import (
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Salah021-coder/start-up-sub000/internal/ahp"
	"github.com/Salah021-coder/start-up-sub000/internal/config"
	"github.com/Salah021-coder/start-up-sub000/internal/criteria"
	"github.com/Salah021-coder/start-up-sub000/internal/geo"
	"github.com/Salah021-coder/start-up-sub000/internal/hazard"
	"github.com/Salah021-coder/start-up-sub000/internal/predict"
	"github.com/Salah021-coder/start-up-sub000/internal/scorer"
)

// ProfessionalAssessmentMsg is shown to users when an analysis cannot be
// completed.
const ProfessionalAssessmentMsg = "Analysis could not be completed - professional assessment recommended"

// ErrNoFeatures is returned when a request carries no feature set.
var ErrNoFeatures = eris.New("pipeline: features are required")

// Analyzer wires the scoring components together. It is safe for concurrent
// use: every component is either stateless or read-only after construction.
type Analyzer struct {
	criteria   *criteria.Engine
	predictor  *predict.Predictor
	hazards    *hazard.Engine
	aggregator *scorer.Aggregator

	now   func() time.Time
	newID func() string
}

// NewAnalyzer builds an Analyzer from its components.
func NewAnalyzer(ce *criteria.Engine, pred *predict.Predictor, hz *hazard.Engine, agg *scorer.Aggregator) *Analyzer {
	return &Analyzer{
		criteria:   ce,
		predictor:  pred,
		hazards:    hz,
		aggregator: agg,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// New builds an Analyzer from scoring configuration: criteria tables from
// CriteriaPath (built-in tables when empty), the model artifact from
// ModelPath and the blend weights.
func New(cfg config.ScoringConfig) (*Analyzer, error) {
	tables := criteria.DefaultTables()
	if cfg.CriteriaPath != "" {
		loaded, err := criteria.LoadTables(cfg.CriteriaPath)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: load criteria tables")
		}
		tables = loaded
	}

	agg, err := scorer.NewAggregator(cfg)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: scoring config")
	}

	pred := predict.NewPredictorFromLoader(predict.NewArtifactLoader(cfg.ModelPath))
	return NewAnalyzer(criteria.NewEngine(tables), pred, hazard.NewEngine(), agg), nil
}

// Analyze runs every phase for one parcel. Hazard faults are absorbed into
// the risk profile; criteria and AHP errors abort the analysis.
func (a *Analyzer) Analyze(req Request) (*Analysis, error) {
	if req.Features == nil {
		return nil, ErrNoFeatures
	}

	fs := req.Features
	if req.Boundary != nil {
		sec, err := req.Boundary.Section()
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: boundary section")
		}
		fs = fs.WithBoundary(sec)
	}

	centroid, fromBoundary := geo.Centroid(fs)
	an := &Analysis{
		ID:          a.newID(),
		CreatedAt:   a.now().UTC(),
		Centroid:    centroid,
		ClimateZone: geo.Classify(centroid.Lat),
		Features:    fs,
	}

	log := zap.L().With(zap.String("analysis_id", an.ID))
	if req.Label != "" {
		log = log.With(zap.String("label", req.Label))
	}
	log.Info("pipeline: starting analysis",
		zap.String("target_use", req.TargetUse),
		zap.Bool("boundary_centroid", fromBoundary),
	)

	trackPhase := func(name string, fn func() error) error {
		start := time.Now()
		err := fn()
		pr := PhaseResult{
			Name:       name,
			Status:     PhaseStatusComplete,
			DurationMS: time.Since(start).Milliseconds(),
		}
		if err != nil {
			pr.Status = PhaseStatusFailed
			pr.Error = err.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", pr.DurationMS),
				zap.Error(err),
			)
		} else {
			log.Debug("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", pr.DurationMS),
			)
		}
		an.Phases = append(an.Phases, pr)
		return err
	}

	_ = trackPhase(PhaseCriteria, func() error {
		an.Criteria = a.criteria.Select(req.TargetUse, criteria.SignalsFrom(fs))
		an.TargetUse = an.Criteria.TargetUse
		return nil
	})

	if err := trackPhase(PhaseAHP, func() error {
		res, err := ahp.Solve(fs, an.Criteria.Criteria)
		an.AHP = res
		return err
	}); err != nil {
		return nil, eris.Wrap(err, "pipeline: ahp")
	}

	_ = trackPhase(PhasePredict, func() error {
		an.Prediction = a.predictor.Predict(fs)
		return nil
	})

	_ = trackPhase(PhaseHazard, func() error {
		an.Risk = a.hazards.Assess(fs)
		return nil
	})

	_ = trackPhase(PhaseAggregate, func() error {
		an.Result = a.aggregator.Aggregate(an.AHP, an.Prediction, fs)
		return nil
	})

	log.Info("pipeline: analysis complete",
		zap.Float64("overall_score", an.Result.OverallScore),
		zap.String("risk_level", string(an.Risk.Overall.Level)),
	)
	return an, nil
}
