package tui

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/scribelabs/scribe/internal/config"
	"github.com/scribelabs/scribe/internal/models"
)

// ConfigureResult holds the outcome of the configuration wizard.
type ConfigureResult struct {
	Config    *config.Config
	Cancelled bool
}

// RunConfigure walks the user through engine, model, language, chunking and
// diarization settings, returning the edited config for the caller to save.
func RunConfigure(cfg *config.Config) (*ConfigureResult, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	clearScreen()
	fmt.Println(Logo())
	fmt.Println()

	if err := editEngine(cfg); err != nil {
		return &ConfigureResult{Cancelled: true}, nil
	}
	if err := editChunking(cfg); err != nil {
		return &ConfigureResult{Cancelled: true}, nil
	}
	if err := editDiarization(cfg); err != nil {
		return &ConfigureResult{Cancelled: true}, nil
	}

	confirmed, err := showSummary(cfg)
	if err != nil || !confirmed {
		return &ConfigureResult{Cancelled: true}, nil
	}
	return &ConfigureResult{Config: cfg}, nil
}

func editEngine(cfg *config.Config) error {
	selectedEngine := cfg.Transcription.Engine
	if selectedEngine == "" {
		selectedEngine = "whisper-cpp"
	}

	engineForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Transcription Engine").
				Description("Choose which engine turns audio into text").
				Options(
					huh.NewOption("Whisper.cpp (local, no API key)", "whisper-cpp"),
					huh.NewOption("OpenAI Whisper (cloud)", "openai"),
				).
				Value(&selectedEngine),
		),
	).WithTheme(getTheme())

	if err := engineForm.Run(); err != nil {
		return err
	}
	cfg.Transcription.Engine = selectedEngine

	switch selectedEngine {
	case "whisper-cpp":
		return editWhisperModel(cfg)
	case "openai":
		return editOpenAI(cfg)
	}
	return nil
}

func editWhisperModel(cfg *config.Config) error {
	var options []huh.Option[string]
	for _, m := range models.ListKind(models.KindWhisper) {
		label := fmt.Sprintf("%s (%s)", m.Name, m.Size)
		if models.IsInstalled(m.ID) {
			label += " - installed"
		} else {
			label += " - not installed"
		}
		options = append(options, huh.NewOption(label, m.ID))
	}

	selectedModel := cfg.Transcription.Model
	if selectedModel == "" {
		selectedModel = "base.en"
	}
	language := cfg.Transcription.Language

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Whisper Model").
				Description("Missing models can be fetched with 'scribe models download'").
				Options(options...).
				Value(&selectedModel),
			huh.NewInput().
				Title("Language").
				Description("ISO-639-1 code (e.g., 'en', 'es', 'fr') or empty for auto-detect").
				Placeholder("auto-detect").
				Value(&language),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}
	cfg.Transcription.Model = selectedModel
	cfg.Transcription.Language = language
	return nil
}

func editOpenAI(cfg *config.Config) error {
	current := cfg.Providers["openai"].APIKey
	apiKey := current
	language := cfg.Transcription.Language

	keyDesc := "Starts with sk-. Get one at https://platform.openai.com/api-keys"
	if current != "" {
		keyDesc = fmt.Sprintf("Currently: %s", maskAPIKey(current))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("OpenAI API Key").
				Description(keyDesc).
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
			huh.NewInput().
				Title("Language").
				Description("ISO-639-1 code (e.g., 'en', 'es', 'fr') or empty for auto-detect").
				Placeholder("auto-detect").
				Value(&language),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}
	if apiKey != "" {
		cfg.Providers["openai"] = config.ProviderConfig{APIKey: apiKey}
	}
	cfg.Transcription.Model = "whisper-1"
	cfg.Transcription.Language = language
	return nil
}

func editChunking(cfg *config.Config) error {
	chunkSeconds := strconv.FormatFloat(cfg.Transcription.ChunkSeconds, 'f', -1, 64)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Chunk Duration (seconds)").
				Description("Shorter chunks mean lower latency, longer chunks mean better context").
				Value(&chunkSeconds).
				Validate(validatePositiveSeconds),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}
	cfg.Transcription.ChunkSeconds, _ = strconv.ParseFloat(chunkSeconds, 64)
	return nil
}

func editDiarization(cfg *config.Config) error {
	enabled := cfg.Diarization.Enabled

	enabledForm := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Label Speakers?").
				Description("Prefix transcript lines with Speaker 1, Speaker 2, ...").
				Value(&enabled),
		),
	).WithTheme(getTheme())

	if err := enabledForm.Run(); err != nil {
		return err
	}
	cfg.Diarization.Enabled = enabled
	if !enabled {
		return nil
	}

	mode := cfg.Diarization.Mode
	if mode == "" {
		mode = "gap"
	}
	speakerModelLabel := "Speaker embedding model (best accuracy)"
	if !models.IsInstalled("wespeaker") {
		speakerModelLabel += " - model not installed"
	}

	modeForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Diarization Mode").
				Options(
					huh.NewOption("Silence-gap heuristic (no model needed)", "gap"),
					huh.NewOption(speakerModelLabel, "embedding"),
				).
				Value(&mode),
		),
	).WithTheme(getTheme())

	if err := modeForm.Run(); err != nil {
		return err
	}
	cfg.Diarization.Mode = mode
	return nil
}

func showSummary(cfg *config.Config) (bool, error) {
	summary := fmt.Sprintf("Engine: %s\nModel: %s\nChunk: %ss\nDiarization: %s",
		cfg.Transcription.Engine,
		cfg.Transcription.Model,
		strconv.FormatFloat(cfg.Transcription.ChunkSeconds, 'f', -1, 64),
		diarizationSummary(cfg),
	)

	confirmed := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Description(summary).
				Affirmative("Save").
				Negative("Discard").
				Value(&confirmed),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

func diarizationSummary(cfg *config.Config) string {
	if !cfg.Diarization.Enabled {
		return "off"
	}
	if cfg.Diarization.Mode == "embedding" {
		return "on (speaker embeddings)"
	}
	return "on (silence gaps)"
}

func validatePositiveSeconds(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("enter a number of seconds")
	}
	if v <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:7] + "..." + key[len(key)-4:]
}

// clearScreen clears the terminal screen
func clearScreen() {
	output := termenv.NewOutput(os.Stdout)
	output.ClearScreen()
}

func getTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Focused.Base = lipgloss.NewStyle().BorderForeground(ColorPrimary)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(ColorSecondary)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(ColorText)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Blurred.Description = lipgloss.NewStyle().Foreground(ColorSubtle)

	return t
}
