// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ghibli-studio/internal/conversion"
	"github.com/pdiddy/ghibli-studio/internal/download"
	"github.com/pdiddy/ghibli-studio/internal/logging"
	"github.com/pdiddy/ghibli-studio/pkg/types"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

func init() {
	setDefaults(viper.GetViper())
}

// setDefaults registers every configuration key so env overrides apply
// even without a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("conversion.endpoint", conversion.DefaultEndpoint)
	v.SetDefault("conversion.health_url", "")
	v.SetDefault("conversion.field_name", conversion.DefaultFieldName)
	v.SetDefault("conversion.timeout", 60*time.Second)
	v.SetDefault("conversion.user_agent", "ghibli-studio/"+version)
	v.SetDefault("conversion.max_response_bytes", int64(32<<20))
	v.SetDefault("download.output_dir", ".")
	v.SetDefault("download.file_name", download.DefaultFileName)
	v.SetDefault("serve.addr", "127.0.0.1:8080")
	v.SetDefault("serve.shutdown_timeout", 10*time.Second)
	v.SetDefault("serve.max_upload_bytes", int64(10<<20))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatConsole)
}

// loadConfig decodes the effective configuration from the global viper.
func loadConfig() (types.Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	if strings.TrimSpace(cfg.Conversion.HealthURL) == "" {
		cfg.Conversion.HealthURL = conversion.HealthURLFor(cfg.Conversion.Endpoint)
	}
	return cfg, nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect ghibli-studio configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
