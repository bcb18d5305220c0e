package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dawnworks/tracer/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "tracer",
	Short: "Route analysis workers to reblooming targets",
	Long: `Tracer scores owl, crow, spider and whale workers against a registry of
targets, routes each worker to the targets it suits best, and explains those
routes against the genealogy of rebloom events.

Targets and reblooms are seeded from a YAML scenario file (--scenario or
scenario.path in the config file).`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/tracer/config.yaml)")
	rootCmd.PersistentFlags().StringP("scenario", "s", "", "scenario file to seed targets and reblooms from")
	rootCmd.PersistentFlags().Bool("json", false, "print results as JSON")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log to stderr when no log directory is configured")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("scenario.path", rootCmd.PersistentFlags().Lookup("scenario"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("TRACER")
	// e.g. TRACER_ROUTING_MIN_SCORE for routing.min_score
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
