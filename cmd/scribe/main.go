package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scribelabs/scribe/internal/config"
	"github.com/scribelabs/scribe/internal/deps"
	"github.com/scribelabs/scribe/internal/logging"
	"github.com/scribelabs/scribe/internal/models"
	"github.com/scribelabs/scribe/internal/tui"
)

var version = "dev"

var logLevel string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Turn audio files and live microphone input into timestamped transcripts",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(logLevel, true)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: trace, debug, info, warn, error")

	rootCmd.AddCommand(
		transcribeCmd(),
		liveCmd(),
		modelsCmd(),
		configureCmd(),
		doctorCmd(),
		versionCmd(),
	)
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check tools, models and configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor()
		},
	}
}

func runDoctor() error {
	whisper := deps.CheckWhisperCli()
	if whisper.Installed {
		fmt.Printf("[x] whisper-cli: %s", whisper.Path)
		if whisper.Version != "" {
			fmt.Printf(" (%s)", whisper.Version)
		}
		fmt.Println()
	} else {
		fmt.Println("[ ] whisper-cli: not found in PATH (required for the local engine)")
	}

	installed := models.ListInstalled()
	if len(installed) > 0 {
		fmt.Printf("[x] models installed: %s\n", strings.Join(installed, ", "))
	} else {
		fmt.Println("[ ] models installed: none (run 'scribe models download base.en')")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("[ ] config: %v\n", err)
		return nil
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("[ ] config: %v\n", err)
		return nil
	}
	configPath, _ := config.GetConfigPath()
	fmt.Printf("[x] config: %s (engine %s)\n", configPath, cfg.Transcription.Engine)
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the scribe version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		Long: `Interactive configuration wizard for scribe.
This will guide you through setting up:
- Transcription engine (local whisper.cpp or OpenAI)
- Model and language
- Chunking and speaker diarization`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure()
		},
	}
}

func runConfigure() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result, err := tui.RunConfigure(cfg)
	if err != nil {
		return fmt.Errorf("configuration wizard error: %w", err)
	}
	if result.Cancelled {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	if err := result.Config.Validate(); err != nil {
		fmt.Printf("Configuration validation failed: %v\n", err)
		return err
	}
	if err := result.Config.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("Configuration saved successfully!")

	configPath, _ := config.GetConfigPath()
	fmt.Printf("Config file location: %s\n", configPath)
	return nil
}

func modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage transcription and speaker models",
	}

	cmd.AddCommand(modelsListCmd())
	cmd.AddCommand(modelsDownloadCmd())
	cmd.AddCommand(modelsRemoveCmd())

	return cmd
}

func modelsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available models",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelsList()
		},
	}
}

func runModelsList() error {
	printSection := func(title string, kind models.Kind) {
		fmt.Printf("\n%s:\n", title)
		for _, m := range models.ListKind(kind) {
			prefix := "  [ ]"
			if models.IsInstalled(m.ID) {
				prefix = "  [x]"
			}
			fmt.Printf("%s %s - %s [%s]\n", prefix, m.ID, m.Name, m.Size)
		}
	}

	printSection("whisper (transcription)", models.KindWhisper)
	printSection("speaker (diarization)", models.KindSpeaker)
	fmt.Println()
	return nil
}

func modelsDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <model>",
		Short: "Download a model (see 'scribe models list')",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelsDownload(cmd.Context(), args[0])
		},
	}
}

func runModelsDownload(ctx context.Context, modelID string) error {
	info := models.Get(modelID)
	if info == nil {
		return fmt.Errorf("unknown model: %s", modelID)
	}
	if models.IsInstalled(modelID) {
		fmt.Printf("model '%s' is already installed at %s\n", modelID, models.Path(modelID))
		return nil
	}

	fmt.Printf("downloading %s (%s)...\n", modelID, info.Size)

	var lastPercent int
	err := models.Download(ctx, modelID, func(downloaded, total int64) {
		if total > 0 {
			percent := int(downloaded * 100 / total)
			if percent >= lastPercent+10 {
				fmt.Printf("%d%% ", percent)
				lastPercent = percent
			}
		}
	})
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	fmt.Printf("\ndownload complete: %s\n", models.Path(modelID))
	return nil
}

func modelsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <model>",
		Short: "Remove a downloaded model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := models.Remove(args[0]); err != nil {
				return err
			}
			fmt.Printf("model '%s' removed successfully\n", args[0])
			return nil
		},
	}
}
