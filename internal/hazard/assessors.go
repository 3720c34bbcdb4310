package hazard

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/Salah021-coder/start-up-sub000/internal/geo"
	"github.com/Salah021-coder/start-up-sub000/internal/model"
)

// Assessor scores one hazard. Implementations must be pure.
type Assessor interface {
	Type() Type
	Assess(fs *model.FeatureSet, centroid geo.Point) (Result, error)
}

// DefaultAssessors returns the seven assessors in assessment order.
func DefaultAssessors() []Assessor {
	return []Assessor{
		FloodAssessor{}, LandslideAssessor{}, ErosionAssessor{}, SeismicAssessor{},
		DroughtAssessor{}, WildfireAssessor{}, SubsidenceAssessor{},
	}
}

// inputs copies the sections an assessor reads and collects the first
// malformed or non-finite value.
type inputs struct {
	terrain model.Terrain
	env     model.Environmental
	err     error
}

func readInputs(fs *model.FeatureSet, sections ...model.Section) *inputs {
	in := &inputs{}
	for _, s := range sections {
		if err := fs.SectionErr(s); err != nil {
			in.err = eris.Wrap(ErrMalformedInput, err.Error())
			return in
		}
	}
	if fs == nil {
		return in
	}
	if fs.Terrain != nil {
		in.terrain = *fs.Terrain
	}
	if fs.Environmental != nil {
		in.env = *fs.Environmental
	}
	return in
}

func (in *inputs) float(name string, p *float64, def float64) float64 {
	v := model.Float(p, def)
	if in.err == nil {
		if err := model.Finite(v); err != nil {
			in.err = eris.Wrapf(ErrMalformedInput, "%s: %v", name, err)
		}
	}
	return v
}

func checkPoint(p geo.Point) error {
	if err := model.Finite(p.Lon, p.Lat); err != nil {
		return eris.Wrapf(ErrMalformedInput, "centroid: %v", err)
	}
	return nil
}

func build(t Type, score float64, tiers []tier, tx texts, factors []string, details map[string]any) Result {
	score = clipScore(score)
	level, severity := classify(score, tiers)
	desc, impact := tx.get(level)
	return Result{
		Type:           t,
		Level:          level,
		Severity:       severity,
		Score:          score,
		PrimaryFactors: factors,
		Description:    desc,
		Impact:         impact,
		Details:        details,
	}
}

// FloodAssessor scores flooding from water occurrence, drainage and elevation.
type FloodAssessor struct{}

func (FloodAssessor) Type() Type { return Flood }

var floodTexts = texts{
	LevelVeryHigh: {"Severe flood risk - area experiences frequent flooding", "May render land undevelopable; requires major flood protection infrastructure"},
	LevelHigh:     {"Significant flood risk - flooding likely during heavy rainfall", "Significant impact on construction and insurance costs; flood mitigation required"},
	LevelMedium:   {"Moderate flood risk - occasional flooding possible", "Moderate impact; proper drainage systems recommended"},
	LevelLow:      {"Low flood risk - flooding unlikely under normal conditions", "Minor impact; standard drainage sufficient"},
	LevelVeryLow:  {"Minimal flood risk - well-drained area", "Negligible impact on development"},
}

func (a FloodAssessor) Assess(fs *model.FeatureSet, _ geo.Point) (Result, error) {
	in := readInputs(fs, model.SectionTerrain, model.SectionEnvironmental)
	slope := in.float("slope_avg", in.terrain.SlopeAvg, 5)
	elevation := in.float("elevation_avg", in.terrain.ElevationAvg, 100)
	occurrence := in.float("water_occurrence_avg", in.env.WaterOccurrenceAvg, 0)
	if in.err != nil {
		return Result{}, in.err
	}

	score := occurrence * 0.6
	switch {
	case slope < 2:
		score += 20
	case slope < 5:
		score += 10
	}
	if elevation < 50 && occurrence > 10 {
		score += 20
	}

	var factors []string
	if occurrence > 30 {
		factors = append(factors, fmt.Sprintf("High water occurrence: %.0f%%", occurrence))
	}
	if slope < 2 {
		factors = append(factors, fmt.Sprintf("Very flat terrain: %.1f° (poor drainage)", slope))
	}
	if elevation < 50 {
		factors = append(factors, fmt.Sprintf("Low elevation: %.0fm (flood-prone)", elevation))
	}
	if len(factors) == 0 {
		factors = append(factors, "No significant flood indicators detected")
	}

	return build(a.Type(), score, fiveTiers(60, 40, 20, 10), floodTexts, factors, map[string]any{
		"water_occurrence":      occurrence,
		"affected_area_percent": occurrence,
	}), nil
}

// LandslideAssessor scores slope instability.
type LandslideAssessor struct{}

func (LandslideAssessor) Type() Type { return Landslide }

var landslideTexts = texts{
	LevelVeryHigh: {"Critical landslide risk - unstable slopes present", "Development extremely hazardous; may require relocation or extensive engineering"},
	LevelHigh:     {"Significant landslide risk - slope stabilization essential", "Major constraints on development; expensive slope stabilization needed"},
	LevelMedium:   {"Moderate landslide risk - engineering assessment recommended", "Moderate impact; proper grading and retaining walls required"},
	LevelLow:      {"Low landslide risk - standard precautions sufficient", "Minor impact; standard engineering practices sufficient"},
	LevelVeryLow:  {"Minimal landslide risk - stable terrain", "Negligible impact on development"},
}

func (a LandslideAssessor) Assess(fs *model.FeatureSet, _ geo.Point) (Result, error) {
	in := readInputs(fs, model.SectionTerrain, model.SectionEnvironmental)
	slopeAvg := in.float("slope_avg", in.terrain.SlopeAvg, 0)
	slopeMax := in.float("slope_max", in.terrain.SlopeMax, 0)
	elevMax := in.float("elevation_max", in.terrain.ElevationMax, 0)
	elevMin := in.float("elevation_min", in.terrain.ElevationMin, 0)
	ndvi := in.float("ndvi_avg", in.env.NDVIAvg, 0.5)
	if in.err != nil {
		return Result{}, in.err
	}
	elevRange := elevMax - elevMin

	var score float64
	switch {
	case slopeAvg > 30:
		score += 40
	case slopeAvg > 20:
		score += 30
	case slopeAvg > 15:
		score += 20
	case slopeAvg > 10:
		score += 10
	}
	switch {
	case slopeMax > 40:
		score += 30
	case slopeMax > 30:
		score += 20
	}
	switch {
	case elevRange > 100:
		score += 20
	case elevRange > 50:
		score += 10
	}
	if ndvi < 0.3 {
		score += 10
	}

	var factors []string
	switch {
	case slopeAvg > 25:
		factors = append(factors, fmt.Sprintf("Very steep average slope: %.1f°", slopeAvg))
	case slopeAvg > 15:
		factors = append(factors, fmt.Sprintf("Steep slopes: %.1f°", slopeAvg))
	}
	if slopeMax > 35 {
		factors = append(factors, fmt.Sprintf("Extremely steep areas: %.1f° maximum", slopeMax))
	}
	if elevRange > 100 {
		factors = append(factors, fmt.Sprintf("High elevation variation: %.0fm", elevRange))
	}
	if len(factors) == 0 {
		factors = append(factors, "Gentle terrain - landslide risk minimal")
	}

	return build(a.Type(), score, fiveTiers(70, 50, 30, 15), landslideTexts, factors, map[string]any{
		"slope_avg":       slopeAvg,
		"slope_max":       slopeMax,
		"elevation_range": elevRange,
	}), nil
}

// ErosionAssessor scores soil loss from slope and vegetation cover.
type ErosionAssessor struct{}

func (ErosionAssessor) Type() Type { return Erosion }

var erosionTexts = texts{
	LevelVeryHigh: {"Severe erosion risk - rapid soil loss expected", "Severe soil degradation; expensive erosion control required"},
	LevelHigh:     {"Significant erosion risk - protective measures essential", "Significant soil loss; terracing and vegetation establishment needed"},
	LevelMedium:   {"Moderate erosion risk - erosion control recommended", "Moderate soil loss; erosion control measures recommended"},
	LevelLow:      {"Low erosion risk - basic measures sufficient", "Minor soil loss; basic erosion control sufficient"},
	LevelVeryLow:  {"Minimal erosion risk - stable soil", "Negligible soil loss"},
}

func (a ErosionAssessor) Assess(fs *model.FeatureSet, _ geo.Point) (Result, error) {
	in := readInputs(fs, model.SectionTerrain, model.SectionEnvironmental)
	slope := in.float("slope_avg", in.terrain.SlopeAvg, 0)
	ndvi := in.float("ndvi_avg", in.env.NDVIAvg, 0.5)
	if in.err != nil {
		return Result{}, in.err
	}

	var score float64
	switch {
	case slope > 15:
		score += 30
	case slope > 10:
		score += 20
	case slope > 5:
		score += 10
	}
	switch {
	case ndvi < 0.2:
		score += 40
	case ndvi < 0.4:
		score += 25
	case ndvi < 0.6:
		score += 10
	}

	var factors []string
	if slope > 15 {
		factors = append(factors, fmt.Sprintf("Steep slopes: %.1f° (high runoff)", slope))
	}
	switch {
	case ndvi < 0.3:
		factors = append(factors, fmt.Sprintf("Poor vegetation cover: NDVI %.2f", ndvi))
	case ndvi > 0.6:
		factors = append(factors, fmt.Sprintf("Good vegetation cover: NDVI %.2f (protective)", ndvi))
	}
	if len(factors) == 0 {
		factors = append(factors, "Moderate conditions - standard erosion control needed")
	}

	return build(a.Type(), score, fiveTiers(60, 45, 25, 10), erosionTexts, factors, map[string]any{
		"slope":            slope,
		"vegetation_cover": ndvi,
	}), nil
}

// SeismicAssessor looks up regional seismic hazard bands by centroid.
type SeismicAssessor struct{}

func (SeismicAssessor) Type() Type { return Seismic }

var seismicTiers = []tier{
	{70, LevelVeryHigh, 5},
	{50, LevelHigh, 4},
	{30, LevelMedium, 3},
	{0, LevelLow, 2},
}

var seismicZones = map[Level]string{
	LevelVeryHigh: "IV",
	LevelHigh:     "III",
	LevelMedium:   "II",
	LevelLow:      "I",
}

var seismicTexts = texts{
	LevelVeryHigh: {"Very high seismic activity - major earthquakes possible", "Strict seismic design required; significantly higher construction costs"},
	LevelHigh:     {"Significant seismic activity - moderate to strong earthquakes likely", "Seismic-resistant design essential; increased construction costs"},
	LevelMedium:   {"Moderate seismic activity - seismic design required", "Seismic design standards must be followed"},
	LevelLow:      {"Low seismic activity - basic seismic precautions sufficient", "Basic seismic provisions sufficient"},
}

// SeismicBand returns the banded seismic score for a coordinate. The northern
// coast between 2.5°E and 6°E is the most active.
func SeismicBand(lat, lon float64) float64 {
	switch {
	case lat > 36:
		if lon >= 2.5 && lon <= 6 {
			return 75
		}
		return 60
	case lat > 35:
		return 50
	case lat > 33:
		return 35
	default:
		return 20
	}
}

func (a SeismicAssessor) Assess(_ *model.FeatureSet, p geo.Point) (Result, error) {
	if err := checkPoint(p); err != nil {
		return Result{}, err
	}

	score := SeismicBand(p.Lat, p.Lon)
	level, _ := classify(score, seismicTiers)
	zone := seismicZones[level]

	var factors []string
	if p.Lat > 36 {
		factors = append(factors, "Located in the northern Tell Atlas region - active seismic zone")
	}
	factors = append(factors, fmt.Sprintf("Seismic Zone %s - building codes apply", zone))

	return build(a.Type(), score, seismicTiers, seismicTexts, factors, map[string]any{
		"seismic_zone": zone,
		"latitude":     p.Lat,
	}), nil
}

// DroughtAssessor scores aridity by latitude band plus vegetation stress.
type DroughtAssessor struct{}

func (DroughtAssessor) Type() Type { return Drought }

var droughtTexts = texts{
	LevelVeryHigh: {"Extreme drought risk - water scarcity severe", "Severe water scarcity; expensive water infrastructure required"},
	LevelHigh:     {"High drought risk - water resources limited", "Significant water challenges; irrigation systems essential"},
	LevelMedium:   {"Moderate drought risk - irrigation may be needed", "Moderate water concerns; water conservation recommended"},
	LevelLow:      {"Low drought risk - adequate water availability", "Minor water concerns; standard water management sufficient"},
	LevelVeryLow:  {"Minimal drought risk - good water resources", "Adequate water resources available"},
}

func (a DroughtAssessor) Assess(fs *model.FeatureSet, p geo.Point) (Result, error) {
	if err := checkPoint(p); err != nil {
		return Result{}, err
	}
	in := readInputs(fs, model.SectionEnvironmental)
	ndvi := in.float("ndvi_avg", in.env.NDVIAvg, 0.5)
	if in.err != nil {
		return Result{}, in.err
	}

	var score float64
	var factors []string
	switch {
	case p.Lat < 32:
		score += 60
		factors = append(factors, "Saharan region - extremely arid climate")
	case p.Lat < 34:
		score += 40
		factors = append(factors, "Semi-arid region - limited rainfall")
	case p.Lat < 36:
		score += 25
		factors = append(factors, "Moderate rainfall zone")
	default:
		score += 10
		factors = append(factors, "Coastal/northern region - adequate rainfall")
	}
	switch {
	case ndvi < 0.2:
		score += 20
	case ndvi < 0.4:
		score += 10
	}
	if ndvi < 0.3 {
		factors = append(factors, fmt.Sprintf("Low vegetation: NDVI %.2f (water stress indicator)", ndvi))
	}

	return build(a.Type(), score, fiveTiers(70, 50, 30, 15), droughtTexts, factors, map[string]any{
		"latitude":          p.Lat,
		"vegetation_health": ndvi,
	}), nil
}

// WildfireAssessor scores fuel load, slope and climate.
type WildfireAssessor struct{}

func (WildfireAssessor) Type() Type { return Wildfire }

var wildfireTexts = texts{
	LevelVeryHigh: {"Critical wildfire risk - high fuel loads and favorable conditions", "Severe threat to structures; expensive fire protection required"},
	LevelHigh:     {"Significant wildfire risk - fire prevention essential", "Significant threat; fire breaks and defensible space essential"},
	LevelMedium:   {"Moderate wildfire risk - fire breaks recommended", "Moderate threat; fire-resistant landscaping recommended"},
	LevelLow:      {"Low wildfire risk - basic fire safety sufficient", "Minor threat; basic fire safety measures sufficient"},
	LevelVeryLow:  {"Minimal wildfire risk", "Negligible fire threat"},
}

func (a WildfireAssessor) Assess(fs *model.FeatureSet, p geo.Point) (Result, error) {
	if err := checkPoint(p); err != nil {
		return Result{}, err
	}
	in := readInputs(fs, model.SectionTerrain, model.SectionEnvironmental)
	slope := in.float("slope_avg", in.terrain.SlopeAvg, 0)
	ndvi := in.float("ndvi_avg", in.env.NDVIAvg, 0.5)
	if in.err != nil {
		return Result{}, in.err
	}

	var score float64
	switch {
	case ndvi > 0.4 && ndvi < 0.7:
		score += 30
	case ndvi > 0.7:
		score += 20
	case ndvi < 0.2:
		score += 5
	}
	switch {
	case slope > 20:
		score += 25
	case slope > 10:
		score += 15
	}
	if p.Lat > 35 {
		score += 20
	}

	var factors []string
	switch {
	case ndvi > 0.4 && ndvi < 0.7:
		factors = append(factors, fmt.Sprintf("Moderate vegetation density: NDVI %.2f (fuel present)", ndvi))
	case ndvi > 0.7:
		factors = append(factors, fmt.Sprintf("Dense vegetation: NDVI %.2f (high fuel load)", ndvi))
	}
	if slope > 15 {
		factors = append(factors, fmt.Sprintf("Steep slopes: %.1f° (fire spreads rapidly uphill)", slope))
	}
	if len(factors) == 0 {
		factors = append(factors, "Low wildfire risk conditions")
	}

	return build(a.Type(), score, fiveTiers(60, 45, 30, 15), wildfireTexts, factors, map[string]any{
		"vegetation_density": ndvi,
		"slope":              slope,
	}), nil
}

// SubsidenceAssessor flags low, flat ground that may sit on soft sediments.
type SubsidenceAssessor struct{}

func (SubsidenceAssessor) Type() Type { return Subsidence }

var subsidenceTiers = []tier{
	{50, LevelHigh, 4},
	{30, LevelMedium, 3},
	{15, LevelLow, 2},
	{0, LevelVeryLow, 1},
}

var subsidenceTexts = texts{
	LevelHigh:    {"Elevated subsidence risk - soil investigation required", "Potential structural damage; deep foundations may be required"},
	LevelMedium:  {"Moderate subsidence risk - foundation assessment recommended", "Possible settling; foundation monitoring recommended"},
	LevelLow:     {"Low subsidence risk - standard foundation practices", "Minor settling possible; standard foundations sufficient"},
	LevelVeryLow: {"Minimal subsidence risk", "Negligible subsidence expected"},
}

// subsidenceBaseline is added to every parcel in the absence of soil data.
const subsidenceBaseline = 10

func (a SubsidenceAssessor) Assess(fs *model.FeatureSet, _ geo.Point) (Result, error) {
	in := readInputs(fs, model.SectionTerrain)
	elevation := in.float("elevation_avg", in.terrain.ElevationAvg, 100)
	slope := in.float("slope_avg", in.terrain.SlopeAvg, 5)
	if in.err != nil {
		return Result{}, in.err
	}

	var score float64
	switch {
	case elevation < 50 && slope < 2:
		score += 40
	case elevation < 100 && slope < 3:
		score += 20
	}
	score += subsidenceBaseline

	var factors []string
	if elevation < 50 && slope < 2 {
		factors = append(factors,
			fmt.Sprintf("Low, flat area: %.0fm elevation, %.1f° slope", elevation, slope),
			"Possible soft sediments or high water table",
		)
	} else {
		factors = append(factors, "Terrain characteristics suggest low subsidence risk")
	}

	return build(a.Type(), score, subsidenceTiers, subsidenceTexts, factors, map[string]any{
		"elevation": elevation,
		"slope":     slope,
	}), nil
}
