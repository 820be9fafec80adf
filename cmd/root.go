package cmd

import (
	"os"

	"github.com/jsphweid/midiscan/config"
	"github.com/jsphweid/midiscan/constants"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath    string
	lenientConfig bool
	verbose       bool

	log = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "midiscan",
	Short: "Analyzes standard midi files",
	Long: `midiscan extracts note events from standard midi files and reports the
key, chords, rhythm patterns and instrument roles of every track.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetOutput(os.Stderr)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "yaml config file (default $MIDISCAN_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&lenientConfig, "lenient-config", false, "fall back to the defaults when the config cannot be loaded")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return constants.GetConfigPath()
}

func loadConfig() (config.Config, error) {
	path := resolvedConfigPath()
	if lenientConfig {
		return config.LoadOrDefault(path, log), nil
	}
	return config.Load(path)
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
