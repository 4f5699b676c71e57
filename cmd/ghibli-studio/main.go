// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the ghibli-studio CLI: select a local
// image, submit it to the conversion service, and save the stylized result,
// either in one shot (convert) or through a local browser session (serve).
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ghibli-studio/internal/logging"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is configured in the root PersistentPreRunE.
var logger = logging.Discard()

// rootCmd is the base command for the ghibli-studio CLI.
var rootCmd = &cobra.Command{
	Use:   "ghibli-studio",
	Short: "Turn photos into Studio Ghibli-style artwork",
	Long: `ghibli-studio sends a local image to a remote style-conversion service and
saves the stylized result as ghibli-style-image.png.

Use convert for a one-shot conversion from the terminal, or serve to open a
local page in the browser with upload, convert, and download controls.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger = logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug().Str("file", used).Msg("using config file")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./ghibli-studio.yaml or ~/.config/ghibli-studio/ghibli-studio.yaml)")
	rootCmd.PersistentFlags().String("endpoint", "", "conversion endpoint URL")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: console or json")

	viper.BindPFlag("conversion.endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	// A .env file is optional.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ghibli-studio")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "ghibli-studio"))
		}
	}

	viper.SetEnvPrefix("GHIBLI_STUDIO")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "warning: reading config %s: %v\n", cfgFile, err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
