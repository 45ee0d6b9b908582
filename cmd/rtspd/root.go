package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rtspd",
	Short: "A single-stream real-time streaming daemon",
	Long: "rtspd serves one H.264 elementary stream to a single client at a time: " +
		"a text control connection negotiates transport and playback, and a paced " +
		"UDP sender delivers fragmented RTP-shaped packets at a fixed frame rate.",
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
