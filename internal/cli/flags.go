package cli

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile        string
	APIURL         string
	Category       string
	Deck           string
	Tone           string
	BatchFile      string
	StateDir       string
	AudioPlayer    string
	NoAutoPlay     bool
	ListCategories bool
	ListDecks      bool
	ExportCSV      string
	LogLevel       string

	// Direct TTS flags
	DirectTTS   bool
	OpenAIModel string
	OpenAIVoice string
	OpenAISpeed float64
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		APIURL:      "http://127.0.0.1:8000",
		LogLevel:    "info",
		OpenAIModel: "gpt-4o-mini-tts",
		OpenAIVoice: "alloy",
		OpenAISpeed: 1.0,
	}
}
