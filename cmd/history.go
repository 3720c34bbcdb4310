package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/Salah021-coder/start-up-sub000/internal/pipeline"
	"github.com/Salah021-coder/start-up-sub000/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved analyses, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		targetUse, _ := cmd.Flags().GetString("target-use")
		riskLevel, _ := cmd.Flags().GetString("risk-level")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		list, err := st.ListAnalyses(ctx, store.ListFilter{
			TargetUse: targetUse,
			RiskLevel: riskLevel,
			Limit:     limit,
			Offset:    offset,
		})
		if err != nil {
			return eris.Wrap(err, "history")
		}

		if len(list) == 0 {
			fmt.Fprintln(os.Stderr, "No analyses found.")
			return nil
		}

		formatSummaries(os.Stdout, list)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <analysis-id>",
	Short: "Show the full record of a saved analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		an, err := st.GetAnalysis(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "show")
		}
		return writeAnalysis(an, "")
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <analysis-id>",
	Short: "Delete a saved analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.DeleteAnalysis(ctx, args[0]); err != nil {
			return eris.Wrap(err, "delete")
		}
		fmt.Fprintf(os.Stderr, "Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	historyCmd.Flags().String("target-use", "", "filter by target land use")
	historyCmd.Flags().String("risk-level", "", "filter by overall hazard level")
	historyCmd.Flags().Int("limit", 20, "max analyses to list")
	historyCmd.Flags().Int("offset", 0, "number of analyses to skip")
	rootCmd.AddCommand(historyCmd, showCmd, deleteCmd)
}

func formatSummaries(out io.Writer, list []pipeline.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCREATED\tTARGET\tSCORE\tRISK\tTOP USE")
	_, _ = fmt.Fprintln(w, "--\t-------\t------\t-----\t----\t-------")

	for _, s := range list {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%s\n",
			truncateID(s.ID),
			s.CreatedAt.Format("2006-01-02 15:04"),
			s.TargetUse,
			s.OverallScore,
			s.RiskLevel,
			s.TopUse,
		)
	}
	_ = w.Flush()
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
