// Package export writes stored analyses as JSON, CSV or XLSX.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/Salah021-coder/start-up-sub000/internal/pipeline"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts json, csv or xlsx in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", eris.Errorf("export: unsupported format %q (want json, csv or xlsx)", s)
	}
}

// Write encodes analyses to w in the given format.
func Write(w io.Writer, format Format, ans []*pipeline.Analysis) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, ans)
	case FormatCSV:
		return WriteCSV(w, ans)
	case FormatXLSX:
		return WriteXLSX(w, ans)
	default:
		return eris.Errorf("export: unsupported format %q", format)
	}
}

// ToFile creates path and writes analyses to it.
func ToFile(path string, format Format, ans []*pipeline.Analysis) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create file")
	}
	if err := Write(f, format, ans); err != nil {
		f.Close()
		return err
	}
	return eris.Wrap(f.Close(), "export: close file")
}

// WriteJSON writes a single analysis as an object and several as an array.
func WriteJSON(w io.Writer, ans []*pipeline.Analysis) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	var v any = ans
	if len(ans) == 1 {
		v = ans[0]
	}
	return eris.Wrap(enc.Encode(v), "export: encode json")
}

// analysisColumns defines the ordered flat output columns, one row per
// analysis.
var analysisColumns = []string{
	"ID",
	"Created At",
	"Target Use",
	"Overall Score",
	"AHP Score",
	"ML Score",
	"Confidence",
	"AHP Consistent",
	"Consistency Ratio",
	"Prediction Method",
	"Risk Level",
	"Average Severity",
	"High Risk Count",
	"Development Risk",
	"Top Use",
	"Top Use Score",
	"Climate Zone",
	"Centroid Lon",
	"Centroid Lat",
}

// WriteCSV writes one row per analysis under a header.
func WriteCSV(w io.Writer, ans []*pipeline.Analysis) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(analysisColumns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, an := range ans {
		if err := cw.Write(analysisRow(an)); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

func analysisRow(an *pipeline.Analysis) []string {
	var (
		consistent, cr string
		topUse, topScr string
	)
	if an.AHP != nil {
		consistent = strconv.FormatBool(an.AHP.IsConsistent)
		cr = formatFloat(an.AHP.ConsistencyRatio)
	}
	if len(an.Result.Recommendations) > 0 {
		top := an.Result.Recommendations[0]
		topUse = top.UsageType
		topScr = formatFloat(top.SuitabilityScore)
	}
	return []string{
		an.ID,
		an.CreatedAt.UTC().Format(time.RFC3339),
		an.TargetUse,
		formatFloat(an.Result.OverallScore),
		formatFloat(an.Result.AHPScore),
		formatFloat(an.Result.MLScore),
		formatFloat(an.Result.Confidence),
		consistent,
		cr,
		an.Prediction.Methodology,
		string(an.Risk.Overall.Level),
		formatFloat(an.Risk.Overall.AverageSeverity),
		strconv.Itoa(an.Risk.Overall.HighRiskCount),
		an.Result.RiskAssessment.Level,
		topUse,
		topScr,
		an.ClimateZone.Region,
		formatFloat(an.Centroid.Lon),
		formatFloat(an.Centroid.Lat),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
