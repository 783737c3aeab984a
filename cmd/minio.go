package cmd

import (
	"context"
	"fmt"
	"time"

	"Slidecast/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix string
	minioStats  bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "List archived artifacts",
	Long:  `List the videos archived in the MinIO bucket, filtered by prefix, or print bucket statistics only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.MinioEnabled() {
			return fmt.Errorf("minio is not configured, set MINIO_ENDPOINT")
		}

		store, err := storage.New(cfg.Minio)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("minio unavailable: %w", err)
		}
		return store.PrintStatus(ctx, cmd.OutOrStdout(), minioPrefix, minioStats)
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "only list keys with this prefix, e.g. slides/")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "print bucket statistics only")

	minioCmd.Example = `  # list every archived artifact
  slidecast minio

  # only combined videos
  slidecast minio -p combined/

  # statistics only
  slidecast minio -s`
}
