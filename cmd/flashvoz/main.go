package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/flashvoz/internal/api"
	"github.com/example/flashvoz/internal/audio"
	"github.com/example/flashvoz/internal/batch"
	"github.com/example/flashvoz/internal/card"
	"github.com/example/flashvoz/internal/cli"
	"github.com/example/flashvoz/internal/export"
	"github.com/example/flashvoz/internal/gui"
	"github.com/example/flashvoz/internal/logger"
	"github.com/example/flashvoz/internal/playback"
	"github.com/example/flashvoz/internal/prefs"
)

func main() {
	flags := cli.NewFlags()

	rootCmd := cli.CreateRootCommand(flags)

	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, args, flags)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCommand(cmd *cobra.Command, args []string, flags *cli.Flags) error {
	logger.SetDefault(logger.New(logger.WithLevel(logger.ParseLevel(flags.LogLevel))))

	ctx := context.Background()
	client := api.New(flags.APIURL)

	// Handle --list-categories flag
	if flags.ListCategories {
		categories, err := client.Categories(ctx)
		if err != nil {
			return fmt.Errorf("failed to list categories: %w", err)
		}
		for _, c := range categories {
			fmt.Println(c)
		}
		return nil
	}

	// Handle --list-decks flag
	if flags.ListDecks {
		category, _, err := resolveSelection(ctx, client, flags)
		if err != nil {
			return err
		}
		decks, err := client.DeckNames(ctx, category)
		if err != nil {
			return fmt.Errorf("failed to list decks: %w", err)
		}
		for _, d := range decks {
			fmt.Println(d)
		}
		return nil
	}

	// Handle --export-csv flag
	if flags.ExportCSV != "" {
		return exportDeck(ctx, client, flags)
	}

	// Handle batch processing
	if flags.BatchFile != "" {
		entries, err := batch.ReadFile(flags.BatchFile)
		if err != nil {
			return err
		}
		return speakHeadless(ctx, client, flags, entries)
	}

	// Single text from the command line
	if len(args) > 0 {
		return speakHeadless(ctx, client, flags, []batch.Entry{{Text: args[0], Tone: flags.Tone}})
	}

	// No input provided - launch GUI mode by default
	return runGUIMode(flags)
}

// resolveSelection picks the category and deck to operate on: explicit flags
// first, then the persisted last selection, then the backend's first entry.
func resolveSelection(ctx context.Context, client *api.Client, flags *cli.Flags) (string, string, error) {
	category, deck := flags.Category, flags.Deck

	var store *prefs.Store
	if category == "" || deck == "" {
		if path, err := prefs.DefaultPath(); err == nil {
			if s, err := prefs.Open(path); err == nil {
				store = s
				defer store.Close()
			}
		}
	}

	if category == "" {
		categories, err := client.Categories(ctx)
		if err != nil {
			return "", "", fmt.Errorf("failed to list categories: %w", err)
		}
		var saved string
		var ok bool
		if store != nil {
			saved, ok = store.LastCategory()
		}
		category = prefs.PickCategory(saved, ok, categories)
		if category == "" && len(categories) > 0 {
			category = categories[0]
		}
		if category == "" {
			return "", "", fmt.Errorf("no categories available, use --category")
		}
	}

	if deck == "" {
		decks, err := client.DeckNames(ctx, category)
		if err != nil {
			return "", "", fmt.Errorf("failed to list decks: %w", err)
		}
		var saved string
		var ok bool
		if store != nil {
			saved, ok = store.LastDeck(category)
		}
		deck = prefs.PickDeck(saved, ok, decks)
		if deck == "" && len(decks) > 0 {
			deck = decks[0]
		}
	}

	return category, deck, nil
}

// exportDeck fetches a deck and writes it to a CSV file.
func exportDeck(ctx context.Context, client *api.Client, flags *cli.Flags) error {
	category, deck, err := resolveSelection(ctx, client, flags)
	if err != nil {
		return err
	}
	if deck == "" {
		return fmt.Errorf("no deck selected, use --deck")
	}

	data, err := client.DeckData(ctx, category, deck)
	if err != nil {
		return fmt.Errorf("failed to fetch deck: %w", err)
	}
	cards, err := card.DecodeDeck(data)
	if err != nil {
		return fmt.Errorf("deck %q is malformed: %w", deck, err)
	}

	opts := &export.Options{OutputPath: flags.ExportCSV, IncludeHeaders: true}
	if err := export.WriteCSV(cards, opts); err != nil {
		return err
	}
	fmt.Printf("Exported %d cards to %s\n", len(cards), flags.ExportCSV)
	return nil
}

// speakHeadless speaks the given entries one after another without a GUI.
func speakHeadless(ctx context.Context, client *api.Client, flags *cli.Flags, entries []batch.Entry) error {
	category, deck, err := resolveSelection(ctx, client, flags)
	if err != nil {
		return err
	}

	synth, err := buildSynthesizer(client, flags)
	if err != nil {
		return err
	}

	player := playback.NewExecPlayer()
	player.Command = flags.AudioPlayer

	done := make(chan struct{}, 1)
	ctl := playback.NewController(synth, player,
		playback.WithStatusFunc(func(s playback.Status) {
			fmt.Println(s.Text)
			// Sessions end with either "Audio finished." or an error
			// status; retry statuses are progress, not termination.
			if s.Text == "Audio finished." || strings.HasPrefix(s.Text, "Error:") {
				select {
				case done <- struct{}{}:
				default:
				}
			}
		}),
	)

	for _, entry := range entries {
		tone := entry.Tone
		if tone == "" {
			tone = flags.Tone
		}
		fmt.Printf("Speaking: %s\n", entry.Text)
		select {
		case <-done: // drop a leftover signal from a failed entry
		default:
		}
		ctl.Speak(ctx, entry.Text, playback.SpeakContext{
			Category: category,
			Deck:     deck,
			Tone:     tone,
			Subject:  entry.Text,
		})
		if ctl.IsPlaying() {
			// Playback runs in the background; wait for the session to
			// finish before starting the next entry.
			<-done
		}
	}
	return nil
}

// buildSynthesizer returns the backend client or, in direct mode, a local
// OpenAI-backed synthesizer with espeak fallback.
func buildSynthesizer(client *api.Client, flags *cli.Flags) (playback.Synthesizer, error) {
	if !flags.DirectTTS {
		return client, nil
	}

	config := audio.DefaultConfig()
	config.OpenAIKey = cli.GetOpenAIKey()
	config.OpenAIModel = flags.OpenAIModel
	config.OpenAIVoice = flags.OpenAIVoice
	config.OpenAISpeed = flags.OpenAISpeed

	provider, err := audio.NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("direct TTS unavailable: %w", err)
	}
	provider = audio.NewProviderWithFallback(provider, audio.NewESpeakProvider(config))
	return audio.NewDirectSynthesizer(provider, ""), nil
}

// runGUIMode launches the interactive study window.
func runGUIMode(flags *cli.Flags) error {
	config := &gui.Config{
		APIURL:      flags.APIURL,
		Category:    flags.Category,
		Deck:        flags.Deck,
		Tone:        flags.Tone,
		AutoPlay:    !flags.NoAutoPlay,
		StateDir:    flags.StateDir,
		AudioPlayer: flags.AudioPlayer,
	}

	if flags.DirectTTS {
		client := api.New(flags.APIURL)
		synth, err := buildSynthesizer(client, flags)
		if err != nil {
			return err
		}
		config.Synthesizer = synth
	}

	gui.New(config).Run()
	return nil
}
