package hazard

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Salah021-coder/start-up-sub000/internal/geo"
	"github.com/Salah021-coder/start-up-sub000/internal/model"
)

// Engine runs a fixed set of assessors and aggregates their results.
type Engine struct {
	assessors []Assessor
}

// NewEngine returns an engine over the given assessors, or over
// DefaultAssessors when none are given.
func NewEngine(assessors ...Assessor) *Engine {
	if len(assessors) == 0 {
		assessors = DefaultAssessors()
	}
	return &Engine{assessors: assessors}
}

// Assess runs every assessor against fs and aggregates the results. It never
// fails: an assessor that errors or panics yields Unknown for its hazard.
func (e *Engine) Assess(fs *model.FeatureSet) Profile {
	centroid, fromBoundary := geo.Centroid(fs)
	if !fromBoundary {
		zap.L().Debug("hazard: using fallback centroid",
			zap.Float64("lon", centroid.Lon), zap.Float64("lat", centroid.Lat))
	}

	results := make(map[Type]Result, len(e.assessors))
	for _, a := range e.assessors {
		results[a.Type()] = assessOne(a, fs, centroid)
	}
	return Aggregate(results)
}

func assessOne(a Assessor, fs *model.FeatureSet, centroid geo.Point) (res Result) {
	t := a.Type()
	defer func() {
		if r := recover(); r != nil {
			zap.L().Warn("hazard: assessor panicked",
				zap.String("hazard", string(t)),
				zap.String("panic", fmt.Sprint(r)),
			)
			res = Unknown(t)
		}
	}()

	res, err := a.Assess(fs, centroid)
	if err != nil {
		zap.L().Warn("hazard: assessment failed",
			zap.String("hazard", string(t)),
			zap.Error(err),
		)
		return Unknown(t)
	}
	res.Type = t
	return res
}
