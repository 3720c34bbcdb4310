package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Salah021-coder/start-up-sub000/internal/config"
)

var cfg *config.Config

var (
	rootLogLevel    string
	rootDatabaseURL string
)

var rootCmd = &cobra.Command{
	Use:   "landeval",
	Short: "Land parcel suitability and risk evaluation",
	Long: `Weights criteria for a target land use, runs AHP and the suitability predictor,
assesses seven natural hazards and ranks candidate land uses for a parcel.

Settings come from ./config.yaml and LANDEVAL_* environment variables.
--log-level and --db override both.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "landeval: load config")
		}
		applyGlobalFlags(c)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "landeval: init logger")
		}
		zap.L().Debug("landeval: config loaded",
			zap.String("command", cmd.Name()),
			zap.String("store_driver", cfg.Store.Driver),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&rootDatabaseURL, "db", "", "override store.database_url")
}

// applyGlobalFlags lets persistent flags win over file and env settings.
func applyGlobalFlags(c *config.Config) {
	if rootLogLevel != "" {
		c.Log.Level = rootLogLevel
	}
	if rootDatabaseURL != "" {
		c.Store.DatabaseURL = rootDatabaseURL
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
