package export

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/Salah021-coder/start-up-sub000/internal/pipeline"
)

// Sheet names in the workbook.
const (
	SheetAnalyses        = "Analyses"
	SheetRecommendations = "Recommendations"
	SheetHazards         = "Hazards"
)

var recommendationColumns = []string{
	"Analysis ID", "Rank", "Usage Type", "Suitability Score", "Confidence",
	"Estimated ROI", "Supporting Factors", "Concerns",
}

var hazardColumns = []string{
	"Analysis ID", "Hazard", "Level", "Severity", "Score", "Primary Factors", "Impact",
}

// WriteXLSX writes a workbook with one sheet of analyses, one of ranked
// recommendations and one of hazard results.
func WriteXLSX(w io.Writer, ans []*pipeline.Analysis) error {
	f := xlsx.NewFile()

	analyses, err := addSheet(f, SheetAnalyses, analysisColumns)
	if err != nil {
		return err
	}
	recs, err := addSheet(f, SheetRecommendations, recommendationColumns)
	if err != nil {
		return err
	}
	hazards, err := addSheet(f, SheetHazards, hazardColumns)
	if err != nil {
		return err
	}

	for _, an := range ans {
		addStringRow(analyses, analysisRow(an))

		for _, rec := range an.Result.Recommendations {
			row := recs.AddRow()
			row.AddCell().SetString(an.ID)
			row.AddCell().SetInt(rec.Rank)
			row.AddCell().SetString(rec.UsageType)
			row.AddCell().SetFloat(rec.SuitabilityScore)
			row.AddCell().SetFloat(rec.Confidence)
			row.AddCell().SetString(rec.EstimatedROI)
			row.AddCell().SetString(strings.Join(rec.SupportingFactors, "; "))
			row.AddCell().SetString(strings.Join(rec.Concerns, "; "))
		}

		for _, hr := range an.Risk.Results() {
			row := hazards.AddRow()
			row.AddCell().SetString(an.ID)
			row.AddCell().SetString(string(hr.Type))
			row.AddCell().SetString(string(hr.Level))
			row.AddCell().SetInt(hr.Severity)
			row.AddCell().SetFloat(hr.Score)
			row.AddCell().SetString(strings.Join(hr.PrimaryFactors, "; "))
			row.AddCell().SetString(hr.Impact)
		}
	}

	return eris.Wrap(f.Write(w), "export: write xlsx")
}

func addSheet(f *xlsx.File, name string, header []string) (*xlsx.Sheet, error) {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return nil, eris.Wrapf(err, "export: add sheet %s", name)
	}
	addStringRow(sheet, header)
	return sheet, nil
}

func addStringRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}
