package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Salah021-coder/start-up-sub000/internal/export"
	"github.com/Salah021-coder/start-up-sub000/internal/geo"
	"github.com/Salah021-coder/start-up-sub000/internal/model"
	"github.com/Salah021-coder/start-up-sub000/internal/pipeline"
)

var (
	analyzeFeatures  string
	analyzeBoundary  string
	analyzeTargetUse string
	analyzeSave      bool
	analyzeOutput    string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a single parcel from a feature-set file",
	Example: `  landeval analyze --features parcel.json
  landeval analyze --features parcel.json --boundary parcel.shp --target-use agricultural --save`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "analyze", analyzeSave)
		if err != nil {
			return err
		}
		defer env.Close()

		req, err := readRequest(analyzeFeatures, analyzeBoundary, analyzeTargetUse)
		if err != nil {
			return err
		}

		an, err := env.Analyzer.Analyze(req)
		if err != nil {
			fmt.Fprintln(os.Stderr, pipeline.ProfessionalAssessmentMsg)
			return eris.Wrap(err, "analyze")
		}

		if analyzeSave {
			if err := env.Store.SaveAnalysis(ctx, an); err != nil {
				return eris.Wrap(err, "save analysis")
			}
			zap.L().Info("analysis saved", zap.String("analysis_id", an.ID))
		}

		return writeAnalysis(an, analyzeOutput)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFeatures, "features", "", "path to feature-set JSON (required)")
	analyzeCmd.Flags().StringVar(&analyzeBoundary, "boundary", "", "parcel boundary (.geojson, .json, .shp or zipped shapefile)")
	analyzeCmd.Flags().StringVar(&analyzeTargetUse, "target-use", "", "target land use (default: auto-detect)")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "persist the analysis in the store")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "write JSON to file instead of stdout")
	_ = analyzeCmd.MarkFlagRequired("features")
	rootCmd.AddCommand(analyzeCmd)
}

// readRequest loads a feature set and optional boundary into a request.
func readRequest(featuresPath, boundaryPath, targetUse string) (pipeline.Request, error) {
	data, err := os.ReadFile(featuresPath)
	if err != nil {
		return pipeline.Request{}, eris.Wrap(err, "read features")
	}
	fs, err := model.DecodeFeatureSet(data)
	if err != nil {
		return pipeline.Request{}, eris.Wrapf(err, "decode features %s", featuresPath)
	}

	req := pipeline.Request{Features: fs, TargetUse: targetUse}
	if boundaryPath != "" {
		b, err := geo.LoadBoundary(boundaryPath)
		if err != nil {
			return pipeline.Request{}, eris.Wrap(err, "load boundary")
		}
		req.Boundary = b
	}
	return req, nil
}

// writeAnalysis writes an as indented JSON to path, or stdout when empty.
func writeAnalysis(an *pipeline.Analysis, path string) error {
	if path != "" {
		return export.ToFile(path, export.FormatJSON, []*pipeline.Analysis{an})
	}
	return export.WriteJSON(os.Stdout, []*pipeline.Analysis{an})
}
