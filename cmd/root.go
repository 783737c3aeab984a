package cmd

import (
	"fmt"
	"os"

	"Slidecast/config"
	"Slidecast/logger"
	"Slidecast/server"

	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "slidecast",
	Short: "Slidecast turns slides into narrated videos and joins video clips.",
	Long: `Slidecast renders a single image plus narration text into an MP4 and
concatenates uploaded videos without re-encoding. Run without a subcommand to
start the web server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = loaded

		logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(cfg.Logging.Level),
			OutputPath: cfg.Logging.File,
			MaxSize:    cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAge:     cfg.Logging.MaxAgeDays,
			Compress:   cfg.Logging.Compress,
		})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cfg)
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		logger.Sync()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $SLIDECAST_CONFIG)")
}
