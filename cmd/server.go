package cmd

import (
	"Slidecast/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Slidecast web server",
	Long:  `Start the HTTP server that serves the slide and combine forms and their API endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
