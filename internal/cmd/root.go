package cmd

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/strrl/polar-persona/internal/config"
	"github.com/strrl/polar-persona/internal/logging"
	"github.com/strrl/polar-persona/internal/topics"
)

var (
	cfg    *config.Config
	logger *log.Logger

	flagLang     string
	flagLogLevel string
	flagTopics   string
)

var rootCmd = &cobra.Command{
	Use:   "polar-persona",
	Short: "Chat with Nanuq, a polar bear from Svalbard",
	Long: `polar-persona answers questions in character as Nanuq, a polar bear living
on the sea ice around Svalbard, and builds a blueprint of everything Nanuq has
said about itself from the recorded conversation history.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.HiddenDefaultCmd = false

	rootCmd.PersistentFlags().StringVarP(&flagLang, "lang", "l", "", "Language preference (en, es; default from POLAR_LANGUAGE)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagTopics, "topics", "", "YAML topic table to use instead of the built-in one")
}

// loadConfig reads the environment, then lets explicit flags win.
func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.LoadConfig()
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("lang") {
		loaded.Language = topics.Preferred(flagLang)
	}
	if cmd.Flags().Changed("log-level") {
		loaded.LogLevel = flagLogLevel
	}
	if cmd.Flags().Changed("topics") {
		loaded.TopicsFile = flagTopics
	}

	cfg = loaded
	logger = logging.New(cfg.LogLevel, cmd.ErrOrStderr())
	return nil
}
