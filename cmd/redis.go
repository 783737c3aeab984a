package cmd

import (
	"context"
	"fmt"
	"time"

	"Slidecast/cache"

	"github.com/spf13/cobra"
)

var (
	redisFlush   bool
	redisPattern string
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Test the narration cache connection",
	Long:  `Connect to Redis, run a set/get/delete round trip and optionally flush cached narrations.`,
	Example: `  slidecast redis
  slidecast redis --flush
  slidecast redis --flush --pattern "narration:google:*"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.RedisEnabled() {
			return fmt.Errorf("redis is not configured, set REDIS_HOST")
		}
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "Redis: %s, DB: %d\n", cfg.RedisAddr(), cfg.Redis.DB)
		client, err := cache.Connect(cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		fmt.Fprintln(out, "Connected.")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := cache.Check(ctx, client); err != nil {
			return err
		}
		fmt.Fprintln(out, "Read/write check passed.")

		if redisFlush {
			n, err := cache.NewNarrationCache(client).Flush(ctx, redisPattern)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed %d cached narrations.\n", n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)

	redisCmd.Flags().BoolVar(&redisFlush, "flush", false, "delete cached narrations")
	redisCmd.Flags().StringVar(&redisPattern, "pattern", cache.NarrationPattern, "key pattern used by --flush")
}
