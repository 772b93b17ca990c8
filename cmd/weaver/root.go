package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/promptweaver/weaver/internal/api"
	"github.com/promptweaver/weaver/version"
)

var (
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "weaver",
	Short: "Structured prompt generation backend for visual content",
	Long: `Weaver turns plain-language requests into structured, machine-usable
prompts for image, video, website and banner generators.

It provides:
  - A one-shot prompt assistant backed by an OpenAI-compatible API
  - Proxying to per-kind conversation workflows on an external engine
  - Account provisioning and live profile updates for signed-in users`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.weaver/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs. A .env file in the working
	// directory supplies secrets in development; absence is fine.
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
