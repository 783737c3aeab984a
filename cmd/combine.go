package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"Slidecast/internal/app"
	"Slidecast/model"

	"github.com/spf13/cobra"
)

var combineOutput string

var combineCmd = &cobra.Command{
	Use:     "combine VIDEO...",
	Short:   "Concatenate videos into one MP4",
	Long:    `Join the given videos in argument order with stream copy. Inputs must share codecs and parameters.`,
	Example: `  slidecast combine intro.mp4 part1.mp4 outro.mp4 -o talk.mp4`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := model.VideoCombineRequest{}
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			req.Files = append(req.Files, model.UploadedFile{Name: filepath.Base(path), Data: data})
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg, app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		art, err := a.Combiner.Combine(ctx, req)
		if err != nil {
			return err
		}
		return writeOutput(cmd, combineOutput, art)
	},
}

func init() {
	rootCmd.AddCommand(combineCmd)

	combineCmd.Flags().StringVarP(&combineOutput, "output", "o", model.CombinedFileName, "output MP4 path")
}
