package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// configCmd groups configuration helpers
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Save(configPath); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Printf("Config written to %s\n", configPath)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		masked := *cfg
		if masked.Gemini.APIKey != "" {
			masked.Gemini.APIKey = "****"
		}
		fmt.Printf("name:        %s %s\n", masked.Name, masked.Version)
		fmt.Printf("model:       %s (temperature %.1f)\n", masked.Gemini.Model, masked.Gemini.Temperature)
		fmt.Printf("api key:     %s\n", orUnset(masked.Gemini.APIKey))
		fmt.Printf("image model: %s\n", masked.Image.Model)
		fmt.Printf("template:    %s\n", masked.Render.TemplatePath)
		fmt.Printf("output dir:  %s\n", masked.Render.OutputDir)
		fmt.Printf("work dir:    %s\n", masked.Render.WorkDir)
		fmt.Printf("debug logs:  %t\n", masked.Logging.DebugMode)
		return nil
	},
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
