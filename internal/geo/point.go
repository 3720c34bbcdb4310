package geo

import (
	"math"

	"github.com/Salah021-coder/start-up-sub000/internal/model"
)

// Point is a WGS84 coordinate.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// DefaultCentroid is used whenever the parcel geometry is unavailable.
var DefaultCentroid = Point{Lon: 5.41, Lat: 36.19}

// Centroid returns the parcel centroid from the boundary section, or
// DefaultCentroid when the boundary is missing, malformed or non-finite.
// The boolean reports whether the boundary supplied the point.
func Centroid(fs *model.FeatureSet) (Point, bool) {
	if fs == nil || fs.Boundary == nil || fs.SectionErr(model.SectionBoundary) != nil {
		return DefaultCentroid, false
	}
	c := fs.Boundary.Centroid
	if len(c) < 2 || !finite(c[0]) || !finite(c[1]) {
		return DefaultCentroid, false
	}
	return Point{Lon: c[0], Lat: c[1]}, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
