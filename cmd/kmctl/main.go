package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kmctl",
	Short: "Administer a knowledge-memory store",
	Long: `kmctl operates directly on the knowledge-memory database using the same
environment configuration as the server.

Examples:
  kmctl migrate
  kmctl corpus create --name notes --root ./notes
  kmctl corpus sync 1
  kmctl memory create --path /user/prefs --content "prefers tea" --tag food
  kmctl search --mode keyword --target memories --text tea
  kmctl checkpoint get slack-C1-U1`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		level := zerolog.WarnLevel
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = zerolog.DebugLevel
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(corpusCmd)
	rootCmd.AddCommand(memoryCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(checkpointCmd)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "json", "Output format: json, yaml")
}
