package hazard

import (
	"fmt"
	"math"
	"strings"
)

// Overall summarizes the seven results.
type Overall struct {
	Level              Level   `json:"level"`
	AverageSeverity    float64 `json:"average_severity"`
	HighRiskCount      int     `json:"high_risk_count"`
	MediumRiskCount    int     `json:"medium_risk_count"`
	TotalRisksAssessed int     `json:"total_risks_assessed"`
}

// Profile is the full multi-hazard risk profile.
type Profile struct {
	Flood      Result   `json:"flood"`
	Landslide  Result   `json:"landslide"`
	Erosion    Result   `json:"erosion"`
	Seismic    Result   `json:"seismic"`
	Drought    Result   `json:"drought"`
	Wildfire   Result   `json:"wildfire"`
	Subsidence Result   `json:"subsidence"`
	Overall    Overall  `json:"overall"`
	Summary    []string `json:"summary"`
	Mitigation []string `json:"mitigation"`
}

// Results returns the seven results in assessment order.
func (p Profile) Results() []Result {
	return []Result{p.Flood, p.Landslide, p.Erosion, p.Seismic, p.Drought, p.Wildfire, p.Subsidence}
}

// Get returns the result for a hazard type.
func (p Profile) Get(t Type) Result {
	for _, r := range p.Results() {
		if r.Type == t {
			return r
		}
	}
	return Unknown(t)
}

var mitigations = map[Type]string{
	Flood:      "Flood: Install comprehensive drainage systems, consider flood insurance, elevate structures",
	Landslide:  "Landslide: Implement slope stabilization, retaining walls, avoid construction on steep areas",
	Erosion:    "Erosion: Plant vegetation, install erosion control structures, terracing on slopes",
	Seismic:    "Seismic: Follow seismic building codes, use flexible foundations, conduct soil analysis",
	Drought:    "Drought: Install water storage systems, implement water conservation, consider drought-resistant landscaping",
	Wildfire:   "Wildfire: Create defensible space, use fire-resistant materials, maintain fire breaks",
	Subsidence: "Subsidence: Conduct soil investigation, use deep foundations, monitor for settling",
}

const noMitigation = "No major mitigation required - standard construction practices sufficient"

// Aggregate combines per-hazard results into a Profile. Missing hazards are
// recorded as Unknown. Unknown results are excluded from the average.
func Aggregate(results map[Type]Result) Profile {
	get := func(t Type) Result {
		if r, ok := results[t]; ok {
			r.Type = t
			return r
		}
		return Unknown(t)
	}

	p := Profile{
		Flood:      get(Flood),
		Landslide:  get(Landslide),
		Erosion:    get(Erosion),
		Seismic:    get(Seismic),
		Drought:    get(Drought),
		Wildfire:   get(Wildfire),
		Subsidence: get(Subsidence),
	}
	p.Overall = overall(p.Results())
	p.Summary = summary(p.Results(), p.Overall)
	p.Mitigation = mitigation(p.Results())
	return p
}

func overall(results []Result) Overall {
	var (
		o     Overall
		total int
	)
	for _, r := range results {
		if r.Severity > 0 {
			total += r.Severity
			o.TotalRisksAssessed++
		}
		switch {
		case r.Severity >= 4:
			o.HighRiskCount++
		case r.Severity == 3:
			o.MediumRiskCount++
		}
	}

	var avg float64
	if o.TotalRisksAssessed > 0 {
		avg = float64(total) / float64(o.TotalRisksAssessed)
	}
	o.AverageSeverity = math.Round(avg*100) / 100

	switch {
	case o.HighRiskCount >= 3 || avg >= 4:
		o.Level = LevelVeryHigh
	case o.HighRiskCount >= 2 || avg >= 3.5:
		o.Level = LevelHigh
	case o.HighRiskCount >= 1 || o.MediumRiskCount >= 3:
		o.Level = LevelMedium
	case o.MediumRiskCount >= 1:
		o.Level = LevelLow
	default:
		o.Level = LevelVeryLow
	}
	return o
}

func summary(results []Result, o Overall) []string {
	var major []string
	for _, r := range results {
		if r.Severity >= 4 {
			major = append(major, fmt.Sprintf("%s: %s", Title(string(r.Type)), Title(string(r.Level))))
		}
	}

	out := make([]string, 0, 3)
	if len(major) > 0 {
		out = append(out, "Major risks identified: "+strings.Join(major, ", "))
	} else {
		out = append(out, "No major risks identified")
	}
	out = append(out,
		"Overall risk level: "+Title(string(o.Level)),
		fmt.Sprintf("Average risk severity: %.1f/5", o.AverageSeverity),
	)
	return out
}

func mitigation(results []Result) []string {
	var out []string
	for _, r := range results {
		if r.Severity >= 3 {
			out = append(out, mitigations[r.Type])
		}
	}
	if len(out) == 0 {
		out = append(out, noMitigation)
	}
	return out
}
