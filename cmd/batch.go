package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Salah021-coder/start-up-sub000/internal/model"
	"github.com/Salah021-coder/start-up-sub000/internal/pipeline"
)

var (
	batchDir         string
	batchTargetUse   string
	batchSave        bool
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze every feature-set file in a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if batchConcurrency > 0 {
			cfg.Batch.MaxConcurrent = batchConcurrency
		}
		env, err := initEnv(ctx, "batch", batchSave)
		if err != nil {
			return err
		}
		defer env.Close()

		reqs, err := loadBatchRequests(batchDir, batchTargetUse)
		if err != nil {
			return err
		}
		if len(reqs) == 0 {
			zap.L().Info("no feature-set files found", zap.String("dir", batchDir))
			return nil
		}

		results, err := env.Analyzer.AnalyzeBatch(ctx, reqs, cfg.Batch.MaxConcurrent, nil)
		if err != nil {
			return eris.Wrap(err, "batch")
		}

		if batchSave {
			if err := env.Store.SaveAnalyses(ctx, succeeded(results)); err != nil {
				return eris.Wrap(err, "save batch")
			}
		}

		formatBatchResults(os.Stdout, results)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchDir, "dir", "", "directory of feature-set JSON files (required)")
	batchCmd.Flags().StringVar(&batchTargetUse, "target-use", "", "target land use for every parcel (default: auto-detect)")
	batchCmd.Flags().BoolVar(&batchSave, "save", false, "persist successful analyses in the store")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max parallel analyses (default from config)")
	_ = batchCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(batchCmd)
}

// loadBatchRequests reads every *.json file in dir, in name order. A file
// that cannot be decoded becomes a request without features so it is
// reported as a failure alongside the others.
func loadBatchRequests(dir, targetUse string) ([]pipeline.Request, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, eris.Wrap(err, "batch dir")
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, eris.Wrap(err, "list feature files")
	}
	sort.Strings(paths)

	reqs := make([]pipeline.Request, 0, len(paths))
	for _, p := range paths {
		req := pipeline.Request{
			Label:     strings.TrimSuffix(filepath.Base(p), filepath.Ext(p)),
			TargetUse: targetUse,
		}
		data, err := os.ReadFile(p)
		if err == nil {
			req.Features, err = model.DecodeFeatureSet(data)
		}
		if err != nil {
			zap.L().Warn("skipping unreadable feature file", zap.String("path", p), zap.Error(err))
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func succeeded(results []pipeline.BatchResult) []*pipeline.Analysis {
	var out []*pipeline.Analysis
	for _, r := range results {
		if r.Analysis != nil {
			out = append(out, r.Analysis)
		}
	}
	return out
}

func formatBatchResults(out io.Writer, results []pipeline.BatchResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PARCEL\tID\tTARGET\tSCORE\tRISK\tTOP USE\tERROR")
	_, _ = fmt.Fprintln(w, "------\t--\t------\t-----\t----\t-------\t-----")

	for _, r := range results {
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "%s\t\t\t\t\t\t%s\n", r.Label, pipeline.ProfessionalAssessmentMsg)
			continue
		}
		s := r.Analysis.Summarize()
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%s\t\n",
			r.Label, truncateID(s.ID), s.TargetUse, s.OverallScore, s.RiskLevel, s.TopUse)
	}
	_ = w.Flush()
}
