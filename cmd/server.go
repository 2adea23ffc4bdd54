package cmd

import (
	"WaveFM/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the WaveFM server",
	Long:  `Start the WaveFM HTTP server, serving the playback API and websocket surfaces.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
