// Package model defines the per-parcel feature snapshot consumed by the scoring core.
package model

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/rotisserie/eris"
)

// Section names a top-level block of a FeatureSet.
type Section string

const (
	SectionTerrain        Section = "terrain"
	SectionEnvironmental  Section = "environmental"
	SectionInfrastructure Section = "infrastructure"
	SectionBoundary       Section = "boundary"
)

// ErrMalformedSection is returned when a section is present but cannot be
// decoded into its record type.
var ErrMalformedSection = eris.New("model: malformed feature section")

// Terrain holds elevation-model derived measurements.
type Terrain struct {
	SlopeAvg          *float64 `json:"slope_avg,omitempty"`
	SlopeMax          *float64 `json:"slope_max,omitempty"`
	ElevationAvg      *float64 `json:"elevation_avg,omitempty"`
	ElevationMin      *float64 `json:"elevation_min,omitempty"`
	ElevationMax      *float64 `json:"elevation_max,omitempty"`
	AspectDegrees     *float64 `json:"aspect_degrees,omitempty"`
	BuildabilityScore *float64 `json:"buildability_score,omitempty"`
	DataQuality       string   `json:"data_quality,omitempty"`
}

// Environmental holds vegetation, water and land-cover measurements.
type Environmental struct {
	NDVIAvg            *float64           `json:"ndvi_avg,omitempty"`
	NDVIMin            *float64           `json:"ndvi_min,omitempty"`
	NDVIMax            *float64           `json:"ndvi_max,omitempty"`
	FloodRiskPercent   *float64           `json:"flood_risk_percent,omitempty"`
	FloodRiskLevel     string             `json:"flood_risk_level,omitempty"`
	WaterOccurrenceAvg *float64           `json:"water_occurrence_avg,omitempty"`
	EnvironmentalScore *float64           `json:"environmental_score,omitempty"`
	LandCoverType      string             `json:"land_cover_type,omitempty"`
	LandCover          map[string]float64 `json:"land_cover,omitempty"`
	DataQuality        string             `json:"data_quality,omitempty"`
}

// Infrastructure holds proximity and service-availability measurements.
type Infrastructure struct {
	NearestRoadDistance *float64        `json:"nearest_road_distance,omitempty"`
	AccessibilityScore  *float64        `json:"accessibility_score,omitempty"`
	InfrastructureScore *float64        `json:"infrastructure_score,omitempty"`
	UtilitiesAvailable  map[string]bool `json:"utilities_available,omitempty"`
	UrbanizationLevel   string          `json:"urbanization_level,omitempty"`
	DataQuality         string          `json:"data_quality,omitempty"`
}

// Boundary describes the parcel outline. Centroid is [lon, lat].
type Boundary struct {
	Centroid []float64      `json:"centroid,omitempty"`
	AreaKM2  float64        `json:"area_km2,omitempty"`
	GeoJSON  json.RawMessage `json:"geojson,omitempty"`
}

// FeatureSet is the immutable per-parcel input snapshot. It is produced once
// per analysis by the data collaborator and only read by the core.
type FeatureSet struct {
	Terrain        *Terrain        `json:"terrain,omitempty"`
	Environmental  *Environmental  `json:"environmental,omitempty"`
	Infrastructure *Infrastructure `json:"infrastructure,omitempty"`
	Boundary       *Boundary       `json:"boundary,omitempty"`

	present   map[Section]bool
	malformed map[Section]error
}

// Has reports whether the section key was present in the input, even if its
// content turned out to be malformed.
func (fs *FeatureSet) Has(s Section) bool {
	if fs == nil {
		return false
	}
	if fs.present != nil {
		return fs.present[s]
	}
	switch s {
	case SectionTerrain:
		return fs.Terrain != nil
	case SectionEnvironmental:
		return fs.Environmental != nil
	case SectionInfrastructure:
		return fs.Infrastructure != nil
	case SectionBoundary:
		return fs.Boundary != nil
	}
	return false
}

// SectionErr returns the decode error recorded for a section, or nil.
func (fs *FeatureSet) SectionErr(s Section) error {
	if fs == nil || fs.malformed == nil {
		return nil
	}
	return fs.malformed[s]
}

// MarkMalformed records a decode failure for a section. Used by decoders and
// by tests that need to simulate a broken collaborator payload.
func (fs *FeatureSet) MarkMalformed(s Section, err error) {
	if fs.malformed == nil {
		fs.malformed = make(map[Section]error)
	}
	if fs.present == nil {
		present := make(map[Section]bool)
		for _, sec := range []Section{SectionTerrain, SectionEnvironmental, SectionInfrastructure, SectionBoundary} {
			present[sec] = fs.Has(sec)
		}
		fs.present = present
	}
	fs.present[s] = true
	fs.malformed[s] = eris.Wrapf(ErrMalformedSection, "%s: %v", s, err)
}

// DecodeFeatureSet decodes the collaborator's JSON payload. Each section is
// decoded on its own; a section with the wrong shape is recorded as malformed
// and left nil so only the consumers of that section are affected.
func DecodeFeatureSet(data []byte) (*FeatureSet, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "model: decode feature set")
	}

	fs := &FeatureSet{present: make(map[Section]bool)}
	decode := func(s Section, dst any) bool {
		msg, ok := raw[string(s)]
		if !ok || isNull(msg) {
			return false
		}
		fs.present[s] = true
		if err := json.Unmarshal(msg, dst); err != nil {
			fs.MarkMalformed(s, err)
			return false
		}
		return true
	}

	var terrain Terrain
	if decode(SectionTerrain, &terrain) {
		fs.Terrain = &terrain
	}
	var env Environmental
	if decode(SectionEnvironmental, &env) {
		fs.Environmental = &env
	}
	var infra Infrastructure
	if decode(SectionInfrastructure, &infra) {
		fs.Infrastructure = &infra
	}
	var boundary Boundary
	if decode(SectionBoundary, &boundary) {
		fs.Boundary = &boundary
	}

	return fs, nil
}

// UnmarshalJSON implements json.Unmarshaler via DecodeFeatureSet.
func (fs *FeatureSet) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeFeatureSet(data)
	if err != nil {
		return err
	}
	*fs = *decoded
	return nil
}

func isNull(msg json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(msg), []byte("null"))
}

// Sections returns copies of the three measurement sections, zero-valued when
// absent, so call sites can apply their own defaults without nil checks.
func (fs *FeatureSet) Sections() (Terrain, Environmental, Infrastructure) {
	var (
		t Terrain
		e Environmental
		i Infrastructure
	)
	if fs == nil {
		return t, e, i
	}
	if fs.Terrain != nil {
		t = *fs.Terrain
	}
	if fs.Environmental != nil {
		e = *fs.Environmental
	}
	if fs.Infrastructure != nil {
		i = *fs.Infrastructure
	}
	return t, e, i
}

// WithBoundary returns a copy of fs whose boundary section is b. The receiver
// is not modified.
func (fs *FeatureSet) WithBoundary(b *Boundary) *FeatureSet {
	var out FeatureSet
	if fs != nil {
		out = *fs
	}
	out.Boundary = b
	if out.present != nil {
		present := make(map[Section]bool, len(out.present))
		for k, v := range out.present {
			present[k] = v
		}
		present[SectionBoundary] = b != nil
		out.present = present
	}
	if out.malformed != nil {
		malformed := make(map[Section]error, len(out.malformed))
		for k, v := range out.malformed {
			if k != SectionBoundary {
				malformed[k] = v
			}
		}
		out.malformed = malformed
	}
	return &out
}

// Float returns *p, or def when p is nil.
func Float(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// Finite returns an error if any value is NaN or infinite.
func Finite(vals ...float64) error {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return eris.Errorf("model: non-finite value %v", v)
		}
	}
	return nil
}

// Ptr returns a pointer to v.
func Ptr(v float64) *float64 { return &v }
