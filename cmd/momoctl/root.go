package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var apiAddr string

var rootCmd = &cobra.Command{
	Use:   "momoctl",
	Short: "momo-scheduler daemon and admin CLI",
	Long: `momoctl runs the momo-scheduler host process and gives an operator a
thin CLI over its admin API.

Examples:
  momoctl serve                 # start the daemon
  momoctl jobs list             # list defined jobs
  momoctl jobs trigger my-job   # run one attempt of my-job now`,
	Version: version,
}

// Execute adds all child commands to the root command and executes it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "http://localhost:5003", "admin API base URL, used by jobs subcommands")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(versionCmd)
}
