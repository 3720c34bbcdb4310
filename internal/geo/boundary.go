package geo

import (
	"archive/zip"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"

	"github.com/Salah021-coder/start-up-sub000/internal/model"
)

// kmPerDegree is the length of one degree of latitude.
const kmPerDegree = 111.32

// Boundary is a parcel outline with its derived centroid and area.
type Boundary struct {
	Geometry *geom.MultiPolygon
	Centroid Point
	AreaKM2  float64
}

// LoadBoundary reads a parcel outline from a GeoJSON file, a shapefile, or a
// ZIP archive containing a shapefile.
func LoadBoundary(path string) (*Boundary, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "geo: read %s", path)
		}
		return ParseGeoJSON(data)
	case ".shp":
		return readShapefile(path)
	case ".zip":
		dir, err := os.MkdirTemp("", "landeval-boundary-*")
		if err != nil {
			return nil, eris.Wrap(err, "geo: create extract dir")
		}
		defer func() { _ = os.RemoveAll(dir) }()

		if err := extractZIP(path, dir); err != nil {
			return nil, eris.Wrap(err, "geo: extract boundary ZIP")
		}
		shpPath, err := findFileByExt(dir, ".shp")
		if err != nil {
			return nil, eris.Wrap(err, "geo: find .shp file")
		}
		return readShapefile(shpPath)
	default:
		return nil, eris.Errorf("geo: unsupported boundary file %q", filepath.Base(path))
	}
}

// ParseGeoJSON accepts a bare geometry, a Feature or a FeatureCollection.
// Only Polygon and MultiPolygon geometries are kept.
func ParseGeoJSON(data []byte) (*Boundary, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, eris.Wrap(err, "geo: decode geojson")
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	switch head.Type {
	case "FeatureCollection":
		var fc geojson.FeatureCollection
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, eris.Wrap(err, "geo: decode feature collection")
		}
		for _, f := range fc.Features {
			if err := pushPolygons(mp, f.Geometry); err != nil {
				return nil, err
			}
		}
	case "Feature":
		var f geojson.Feature
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, eris.Wrap(err, "geo: decode feature")
		}
		if err := pushPolygons(mp, f.Geometry); err != nil {
			return nil, err
		}
	default:
		var g geom.T
		if err := geojson.Unmarshal(data, &g); err != nil {
			return nil, eris.Wrap(err, "geo: decode geometry")
		}
		if err := pushPolygons(mp, g); err != nil {
			return nil, err
		}
	}

	return newBoundary(mp)
}

func pushPolygons(mp *geom.MultiPolygon, g geom.T) error {
	switch t := g.(type) {
	case *geom.Polygon:
		return eris.Wrap(mp.Push(t), "geo: add polygon")
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			if err := mp.Push(t.Polygon(i)); err != nil {
				return eris.Wrap(err, "geo: add polygon")
			}
		}
		return nil
	case nil:
		return eris.New("geo: feature has no geometry")
	default:
		return eris.Errorf("geo: unsupported geometry %T", g)
	}
}

func newBoundary(mp *geom.MultiPolygon) (*Boundary, error) {
	if mp == nil || mp.NumPolygons() == 0 {
		return nil, eris.New("geo: boundary has no polygons")
	}
	c, err := xy.Centroid(mp)
	if err != nil {
		return nil, eris.Wrap(err, "geo: compute centroid")
	}
	center := Point{Lon: c.X(), Lat: c.Y()}
	if !finite(center.Lon) || !finite(center.Lat) {
		return nil, eris.New("geo: degenerate boundary")
	}

	// Planar area in square degrees scaled at the centroid latitude.
	cos := math.Cos(center.Lat * math.Pi / 180)
	area := mp.Area() * kmPerDegree * kmPerDegree * cos

	return &Boundary{Geometry: mp, Centroid: center, AreaKM2: area}, nil
}

// Section renders the outline as the boundary block of a FeatureSet.
func (b *Boundary) Section() (*model.Boundary, error) {
	raw, err := geojson.Marshal(b.Geometry)
	if err != nil {
		return nil, eris.Wrap(err, "geo: encode geojson")
	}
	return &model.Boundary{
		Centroid: []float64{b.Centroid.Lon, b.Centroid.Lat},
		AreaKM2:  b.AreaKM2,
		GeoJSON:  raw,
	}, nil
}

// EWKB encodes the outline with SRID 4326 for PostGIS-compatible storage.
func (b *Boundary) EWKB() ([]byte, error) {
	data, err := ewkb.Marshal(b.Geometry, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geo: encode EWKB")
	}
	return data, nil
}

// BoundaryFromSection rebuilds an outline from a FeatureSet boundary block
// that carries GeoJSON.
func BoundaryFromSection(s *model.Boundary) (*Boundary, error) {
	if s == nil || len(s.GeoJSON) == 0 {
		return nil, eris.New("geo: boundary section has no geometry")
	}
	return ParseGeoJSON(s.GeoJSON)
}

func readShapefile(path string) (*Boundary, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "geo: open shapefile")
	}
	defer func() { _ = reader.Close() }()

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	for reader.Next() {
		_, shape := reader.Shape()
		p, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}
		appendShapePolygon(mp, p)
	}
	return newBoundary(mp)
}

// appendShapePolygon adds each part of a shapefile polygon as its own
// polygon. Malformed parts are skipped.
func appendShapePolygon(mp *geom.MultiPolygon, p *shp.Polygon) {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return
	}
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if start < 0 || end > int32(len(p.Points)) || end-start < 4 {
			zap.L().Debug("geo: skipping short polygon part", zap.Int32("part", i))
			continue
		}

		flat := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		poly := geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)})
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("geo: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
		}
	}
}

// extractZIP extracts a ZIP archive to the destination directory, flattening
// any nested paths.
func extractZIP(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return eris.Wrap(err, "open zip")
	}
	defer r.Close() //nolint:errcheck

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if err := extractEntry(f, filepath.Join(destDir, filepath.Base(f.Name))); err != nil {
			return err
		}
	}
	return nil
}

func extractEntry(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return eris.Wrapf(err, "open zip entry %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(dest)
	if err != nil {
		return eris.Wrapf(err, "create %s", dest)
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, rc); err != nil {
		return eris.Wrapf(err, "extract %s", f.Name)
	}
	return nil
}

// findFileByExt finds the first file with the given extension in a directory.
func findFileByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "read directory")
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("no %s file found in %s", ext, dir)
}
