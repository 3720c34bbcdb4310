// Package scorer blends the AHP and predictor scores into one overall score
// and ranks candidate land uses for a parcel.
package scorer

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/Salah021-coder/start-up-sub000/internal/config"
)

// DefaultScoringConfig returns a config.ScoringConfig with the standard
// 0.4 / 0.6 blend.
func DefaultScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		AHPWeight: 0.4,
		MLWeight:  0.6,
		ModelPath: "models/suitability_model.json",
	}
}

// WeightSum returns the sum of the blend weights.
func WeightSum(c config.ScoringConfig) float64 {
	return c.AHPWeight + c.MLWeight
}

// ValidateConfig checks that a ScoringConfig is internally consistent. The
// weights are applied as given and need not sum to 1.
func ValidateConfig(c config.ScoringConfig) error {
	var errs []string

	weights := []struct {
		name string
		w    float64
	}{
		{"ahp_weight", c.AHPWeight},
		{"ml_weight", c.MLWeight},
	}
	for _, w := range weights {
		if w.w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", w.name))
		}
	}

	if WeightSum(c) <= 0 {
		errs = append(errs, "weight sum must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
