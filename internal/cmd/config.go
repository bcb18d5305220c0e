package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dawnworks/tracer/internal/config"
	"github.com/dawnworks/tracer/internal/fsutil"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or create tracer configuration",
	Long: `View or create tracer configuration.

Without arguments, displays the effective configuration.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration as YAML",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/tracer/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing config file")
	configInitCmd.Flags().String("path", "", "write the config file here instead of the default location")

	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(out, "# Config file: %s\n", used)
	} else {
		fmt.Fprintln(out, "# Config file: (none - using defaults)")
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	configFile, _ := cmd.Flags().GetString("path")
	if configFile == "" {
		configFile = config.ConfigFile()
	}

	if _, err := os.Stat(configFile); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configFile)
	}

	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return fmt.Errorf("failed to encode default configuration: %w", err)
	}
	header := []byte("# Tracer configuration\n# Environment variables override these keys: TRACER_ROUTING_MIN_SCORE etc.\n\n")
	if err := fsutil.WriteFileAtomic(configFile, append(header, data...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(out, "Active config: %s\n", used)
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}

	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintln(out, "  2. ./config.yaml (current directory)")
	fmt.Fprintln(out, "\nEnvironment variables: TRACER_* (e.g., TRACER_ROUTING_MIN_SCORE)")
	return nil
}
