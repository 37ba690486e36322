package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/example/flashvoz/internal"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "flashvoz [text]",
		Short: "Spanish flashcard study client",
		Long: `flashvoz is a desktop study client for Spanish vocabulary flashcards.

It browses card decks served by a flashcard backend, speaks card text
with synchronized word highlighting, and manages per-definition
illustration images.

Examples:
  flashvoz                          # Launch interactive GUI (default)
  flashvoz "el gato duerme"         # Speak a phrase via CLI and exit
  flashvoz --batch phrases.txt      # Speak multiple phrases from file
  flashvoz --list-categories        # List backend categories and exit`,
		Args:    cobra.MaximumNArgs(1),
		Version: internal.Version,
	}

	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.flashvoz.yaml)")

	// Local flags
	cmd.Flags().StringVar(&flags.APIURL, "api-url", flags.APIURL, "Base URL of the flashcard backend")
	cmd.Flags().StringVarP(&flags.Category, "category", "c", "", "Category to open at startup (default: last used)")
	cmd.Flags().StringVarP(&flags.Deck, "deck", "d", "", "Deck to open at startup (default: last used for category)")
	cmd.Flags().StringVar(&flags.Tone, "tone", "", "Tone instruction prepended to synthesized speech (e.g. 'Slowly')")
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Speak texts from file (one per line) and exit")
	cmd.Flags().StringVar(&flags.StateDir, "state-dir", "", "Directory for local state such as preferences (default: ~/.local/state/flashvoz)")
	cmd.Flags().StringVar(&flags.AudioPlayer, "audio-player", "", "Audio player command (default: autodetect mpg123, ffplay, afplay, ...)")
	cmd.Flags().BoolVar(&flags.NoAutoPlay, "no-auto-play", false, "Disable automatic audio playback when a card is shown")
	cmd.Flags().BoolVar(&flags.ListCategories, "list-categories", false, "List backend categories and exit")
	cmd.Flags().BoolVar(&flags.ListDecks, "list-decks", false, "List decks in the selected category and exit")
	cmd.Flags().StringVar(&flags.ExportCSV, "export-csv", "", "Export the selected deck to a CSV file and exit")
	cmd.Flags().StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")

	// Direct TTS flags
	cmd.Flags().BoolVar(&flags.DirectTTS, "direct-tts", false, "Synthesize speech locally via OpenAI instead of the backend")
	cmd.Flags().StringVar(&flags.OpenAIModel, "openai-model", flags.OpenAIModel, "OpenAI TTS model for --direct-tts: tts-1, tts-1-hd, gpt-4o-mini-tts")
	cmd.Flags().StringVar(&flags.OpenAIVoice, "openai-voice", flags.OpenAIVoice, "OpenAI voice for --direct-tts: alloy, ash, coral, echo, nova, shimmer, ...")
	cmd.Flags().Float64Var(&flags.OpenAISpeed, "openai-speed", flags.OpenAISpeed, "OpenAI speech speed for --direct-tts (0.25 to 4.0)")

	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("api.url", cmd.Flags().Lookup("api-url"))
	viper.BindPFlag("playback.tone", cmd.Flags().Lookup("tone"))
	viper.BindPFlag("playback.player", cmd.Flags().Lookup("audio-player"))
	viper.BindPFlag("playback.no_auto_play", cmd.Flags().Lookup("no-auto-play"))
	viper.BindPFlag("state.directory", cmd.Flags().Lookup("state-dir"))
	viper.BindPFlag("log.level", cmd.Flags().Lookup("log-level"))
	viper.BindPFlag("audio.openai_model", cmd.Flags().Lookup("openai-model"))
	viper.BindPFlag("audio.openai_voice", cmd.Flags().Lookup("openai-voice"))
	viper.BindPFlag("audio.openai_speed", cmd.Flags().Lookup("openai-speed"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	// Load a .env file if present so OPENAI_API_KEY and friends can live
	// next to the binary during development.
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".flashvoz" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".flashvoz")
	}

	// Environment variables
	viper.SetEnvPrefix("FLASHVOZ")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("audio.openai_key")
}
