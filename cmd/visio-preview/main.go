// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the visio-preview CLI.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/visio-preview/internal/config"
	"github.com/pdiddy/visio-preview/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the visio-preview CLI.
var rootCmd = &cobra.Command{
	Use:   "visio-preview",
	Short: "Generate PNG previews of Visio diagrams",
	Long: `visio-preview walks configured folders for Visio documents, drives the
Visio application to export every page as a PNG preview, and writes a
spreadsheet mapping each preview to its source document.

Settings come from a YAML file named by --config, the CONFIGFILE environment
variable, or config.yaml in the working directory. A .env file in the working
directory is loaded first.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine.
		_ = godotenv.Load()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: $CONFIGFILE or ./config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

// loadConfig resolves the config path (flag, then CONFIGFILE, then
// ./config.yaml) and loads it.
func loadConfig() (types.PreviewConfig, error) {
	return config.Load(config.Path(viper.GetString("config")))
}

func main() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
