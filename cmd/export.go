package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/Salah021-coder/start-up-sub000/internal/export"
	"github.com/Salah021-coder/start-up-sub000/internal/pipeline"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export <analysis-id>...",
	Short: "Export saved analyses as JSON, CSV or XLSX",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		if format == export.FormatXLSX && exportOutput == "" {
			return eris.New("export: --output is required for xlsx")
		}
		if err := cfg.Validate("store"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ans := make([]*pipeline.Analysis, 0, len(args))
		for _, id := range args {
			an, err := st.GetAnalysis(ctx, id)
			if err != nil {
				return eris.Wrap(err, "export")
			}
			ans = append(ans, an)
		}

		if exportOutput == "" {
			return export.Write(os.Stdout, format, ans)
		}
		if err := export.ToFile(exportOutput, format, ans); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %d analyses to %s\n", len(ans), exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format: json, csv or xlsx")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout; required for xlsx)")
	rootCmd.AddCommand(exportCmd)
}
