// Package geo provides parcel geometry handling: boundary ingestion, centroid
// resolution and regional climate-zone classification.
package geo

// Climate-zone classification constants.
const (
	ZoneNorthernCoast = "northern_coast"
	ZoneTellAtlas     = "tell_atlas"
	ZoneHighPlateaus  = "high_plateaus"
	ZoneSahara        = "sahara"
)

// Latitude thresholds (degrees north) separating the zones.
const (
	coastLatThreshold   = 36.0
	tellLatThreshold    = 34.0
	plateauLatThreshold = 32.0
)

// Zone describes the regional context of a centroid.
type Zone struct {
	Region  string `json:"region"`
	Climate string `json:"climate"`
}

// Classify returns the climate zone for a latitude.
// Rules:
//   - northern_coast (mediterranean): lat > 36
//   - tell_atlas (semi_arid): 34 < lat <= 36
//   - high_plateaus (arid): 32 < lat <= 34
//   - sahara (desert): lat <= 32
func Classify(lat float64) Zone {
	switch {
	case lat > coastLatThreshold:
		return Zone{Region: ZoneNorthernCoast, Climate: "mediterranean"}
	case lat > tellLatThreshold:
		return Zone{Region: ZoneTellAtlas, Climate: "semi_arid"}
	case lat > plateauLatThreshold:
		return Zone{Region: ZoneHighPlateaus, Climate: "arid"}
	default:
		return Zone{Region: ZoneSahara, Climate: "desert"}
	}
}
