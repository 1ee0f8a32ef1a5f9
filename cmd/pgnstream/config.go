package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/opengs/pgnstream"
)

// loadConfig reads the optional yaml configuration file and lets the
// command-line flags override whatever it sets. Defaults for untouched
// values are applied by pgnstream.New.
func loadConfig(cmd *cobra.Command) (pgnstream.Config, error) {
	var cfg pgnstream.Config

	if configPath, _ := cmd.Flags().GetString("config"); configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return cfg, errors.Join(errors.New("failed to read config file"), err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Join(errors.New("failed to parse config file"), err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("file") || cfg.FileName == "" {
		cfg.FileName, _ = flags.GetString("file")
	}
	if flags.Changed("buffer-size") || cfg.BufferSize == 0 {
		cfg.BufferSize, _ = flags.GetInt("buffer-size")
	}
	if flags.Changed("max-record-size") || cfg.MaxRecordSize == 0 {
		cfg.MaxRecordSize, _ = flags.GetInt("max-record-size")
	}
	if flags.Changed("debug-mode") || cfg.DebugMode == "" {
		mode, _ := flags.GetString("debug-mode")
		cfg.DebugMode = pgnstream.DebugMode(mode)
	}
	if flags.Changed("log-path") || cfg.LogPath == "" {
		cfg.LogPath, _ = flags.GetString("log-path")
	}

	return cfg, nil
}

func addParserFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to a yaml configuration file")
	cmd.Flags().String("file", "", "path to the PGN source file")
	cmd.Flags().Int("buffer-size", 0, "size in bytes of the chunks read from the source")
	cmd.Flags().Int("max-record-size", 0, "upper bound on the bytes held while searching for a record boundary")
	cmd.Flags().String("debug-mode", "", "silent, verbose or debug")
	cmd.Flags().String("log-path", "", "path to the parser log file")
}
