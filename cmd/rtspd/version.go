package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"rtspd/internal/httpserver"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rtspd %s (commit %s, built %s, %s)\n",
			httpserver.Version, httpserver.GitCommit, httpserver.BuildTime, runtime.Version())
	},
}
