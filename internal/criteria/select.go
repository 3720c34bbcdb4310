package criteria

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Salah021-coder/start-up-sub000/internal/model"
)

// Selection methods.
const (
	MethodAuto   = "auto"
	MethodManual = "manual"
)

// Adjustment thresholds and multipliers.
const (
	steepSlopeThreshold = 15.0
	terrainMultiplier   = 1.2
	floodLevelHigh      = "high"
	envMultiplier       = 1.3
)

// Signals are the feature values that drive weight adjustments.
type Signals struct {
	SlopeAvg       *float64
	FloodRiskLevel string
}

// SignalsFrom extracts adjustment signals from a feature set.
func SignalsFrom(fs *model.FeatureSet) Signals {
	var s Signals
	if fs == nil {
		return s
	}
	if fs.Terrain != nil {
		s.SlopeAvg = fs.Terrain.SlopeAvg
	}
	if fs.Environmental != nil {
		s.FloodRiskLevel = fs.Environmental.FloodRiskLevel
	}
	return s
}

// Selection is the outcome of criteria selection.
type Selection struct {
	Criteria        Weights             `json:"criteria"`
	Flattened       model.OrderedValues `json:"flattened"`
	SelectionMethod string              `json:"selection_method"`
	TargetUse       string              `json:"target_use"`
	Reasoning       []string            `json:"reasoning,omitempty"`
}

// Engine selects weights from a fixed set of tables. It holds no mutable
// state; every call works on a copy.
type Engine struct {
	tables Tables
}

// NewEngine creates an Engine over a copy of tables. A nil map uses the
// built-in tables.
func NewEngine(tables Tables) *Engine {
	if tables == nil {
		tables = DefaultTables()
	}
	own := make(Tables, len(tables))
	for use, w := range tables {
		own[use] = w.Clone()
	}
	if _, ok := own[UseResidential]; !ok {
		own[UseResidential] = DefaultTables()[UseResidential]
	}
	return &Engine{tables: own}
}

// Select resolves the table for targetUse, applies signal adjustments and
// renormalizes so the leaves sum to 1.0.
func (e *Engine) Select(targetUse string, sig Signals) Selection {
	use := strings.ToLower(strings.TrimSpace(targetUse))

	var (
		base   Weights
		method string
	)
	if w, ok := e.tables[use]; ok && use != "" {
		base, method = w.Clone(), MethodManual
	} else {
		use = UseResidential
		base, method = e.InferFromLocation(), MethodAuto
	}

	reasoning := []string{fmt.Sprintf("Criteria table: %s (%s selection)", use, method)}
	if sig.SlopeAvg != nil && *sig.SlopeAvg > steepSlopeThreshold {
		base.scale(CategoryTerrain, terrainMultiplier)
		reasoning = append(reasoning, fmt.Sprintf("Average slope %.1f° exceeds %.0f°: terrain weights increased", *sig.SlopeAvg, steepSlopeThreshold))
	}
	if sig.FloodRiskLevel == floodLevelHigh {
		base.scale(CategoryEnvironmental, envMultiplier)
		reasoning = append(reasoning, "High flood risk: environmental weights increased")
	}
	base.normalize()

	zap.L().Debug("criteria: selected",
		zap.String("target_use", use),
		zap.String("method", method),
		zap.Int("criteria", base.Len()),
	)

	return Selection{
		Criteria:        base,
		Flattened:       base.Flatten(),
		SelectionMethod: method,
		TargetUse:       use,
		Reasoning:       reasoning,
	}
}

// InferFromLocation is a placeholder for location-based table inference. It
// always returns the residential table.
func (e *Engine) InferFromLocation() Weights {
	return e.tables[UseResidential].Clone()
}

var defaultEngine = NewEngine(nil)

// Select runs the built-in tables. See Engine.Select.
func Select(targetUse string, sig Signals) Selection {
	return defaultEngine.Select(targetUse, sig)
}
