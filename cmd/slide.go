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

var (
	slideImage    string
	slideText     string
	slideTextFile string
	slideOutput   string
)

var slideCmd = &cobra.Command{
	Use:   "slide",
	Short: "Render one narrated slide to MP4",
	Long:  `Read an image and narration text, synthesize speech and write a single-slide MP4 without starting the server.`,
	Example: `  slidecast slide --image slide.png --text "Welcome to the quarterly review." -o intro.mp4
  slidecast slide --image slide.jpg --text-file notes.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := slideText
		if slideTextFile != "" {
			data, err := os.ReadFile(slideTextFile)
			if err != nil {
				return fmt.Errorf("read text file: %w", err)
			}
			text = string(data)
		}

		var image []byte
		if slideImage != "" {
			data, err := os.ReadFile(slideImage)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			image = data
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg, app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		art, err := a.Slides.Synthesize(ctx, model.SlideRequest{
			Image:     image,
			ImageName: filepath.Base(slideImage),
			Text:      text,
		})
		if err != nil {
			return err
		}
		return writeOutput(cmd, slideOutput, art)
	},
}

func writeOutput(cmd *cobra.Command, path string, art *model.Artifact) error {
	if err := os.WriteFile(path, art.Data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if art.Duration > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes, %.1fs)\n", path, len(art.Data), art.Duration)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", path, len(art.Data))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(slideCmd)

	slideCmd.Flags().StringVar(&slideImage, "image", "", "slide image (JPG or PNG)")
	slideCmd.Flags().StringVar(&slideText, "text", "", "narration text")
	slideCmd.Flags().StringVar(&slideTextFile, "text-file", "", "read narration text from a file")
	slideCmd.Flags().StringVarP(&slideOutput, "output", "o", model.SlideFileName, "output MP4 path")
	slideCmd.MarkFlagsMutuallyExclusive("text", "text-file")
}
