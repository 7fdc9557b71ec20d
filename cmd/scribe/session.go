package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/scribelabs/scribe/internal/audio"
	"github.com/scribelabs/scribe/internal/config"
	"github.com/scribelabs/scribe/internal/diarize"
	"github.com/scribelabs/scribe/internal/engine"
	"github.com/scribelabs/scribe/internal/logging"
	"github.com/scribelabs/scribe/internal/pipeline"
	"github.com/scribelabs/scribe/internal/transcript"
	"github.com/scribelabs/scribe/internal/tui"
)

// sessionFlags are the transcription settings shared by the transcribe
// and live commands. Set flags override the config file.
type sessionFlags struct {
	output       string
	model        string
	modelPath    string
	language     string
	chunkSeconds float64
	engineName   string
	workers      int
	diarize      bool
	diarizeMode  string
	device       string
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "transcript output path")
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "model ID (see 'scribe models list') or API model name")
	cmd.Flags().StringVar(&f.modelPath, "model-path", "", "explicit model file, overrides --model")
	cmd.Flags().StringVarP(&f.language, "language", "l", "", "ISO-639-1 language code, empty for auto-detect")
	cmd.Flags().Float64VarP(&f.chunkSeconds, "chunk-seconds", "c", 0, "chunk duration in seconds")
	cmd.Flags().StringVar(&f.engineName, "engine", "", "transcription engine: whisper-cpp or openai")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "chunks transcribed concurrently")
	cmd.Flags().BoolVar(&f.diarize, "diarize", false, "label speakers in the transcript")
	cmd.Flags().StringVar(&f.diarizeMode, "diarize-mode", "", "diarization mode: gap or embedding")
}

// apply layers set flags over the loaded config.
func (f *sessionFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.Transcription.Model = f.model
	}
	if flags.Changed("model-path") {
		cfg.Transcription.ModelPath = f.modelPath
	}
	if flags.Changed("language") {
		cfg.Transcription.Language = f.language
	}
	if flags.Changed("chunk-seconds") {
		cfg.Transcription.ChunkSeconds = f.chunkSeconds
	}
	if flags.Changed("engine") {
		cfg.Transcription.Engine = f.engineName
	}
	if flags.Changed("workers") {
		cfg.Transcription.Workers = f.workers
	}
	if flags.Changed("diarize") {
		cfg.Diarization.Enabled = f.diarize
	}
	if flags.Changed("diarize-mode") {
		cfg.Diarization.Mode = f.diarizeMode
		cfg.Diarization.Enabled = true
	}
	if flags.Changed("device") {
		cfg.Recording.Device = f.device
	}
}

func loadSessionConfig(cmd *cobra.Command, f *sessionFlags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	f.apply(cmd, cfg)
	if !cmd.Flags().Changed("log-level") && cfg.Logging.Level != "" {
		logging.Setup(cfg.Logging.Level, cfg.Logging.Pretty)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildAssigner constructs the speaker assigner, or nil when diarization
// is off. A missing speaker model degrades to unlabeled output with a
// single warning instead of failing the run.
func buildAssigner(cfg *config.Config) (diarize.Assigner, error) {
	if !cfg.Diarization.Enabled {
		return nil, nil
	}
	assigner, err := diarize.New(cfg.ToDiarizeConfig())
	if err != nil {
		if mu, ok := diarize.IsModelUnavailable(err); ok {
			log.Warn().Err(err).Msg("diarize: continuing without speaker labels")
			fmt.Fprintf(os.Stderr, "speaker labels disabled: %s\n", mu.Remediation)
			return nil, nil
		}
		return nil, err
	}
	return assigner, nil
}

func transcribeCmd() *cobra.Command {
	var flags sessionFlags

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe a WAV or MP3 file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd, &flags, args[0])
		},
	}
	flags.register(cmd)
	return cmd
}

func runTranscribe(cmd *cobra.Command, flags *sessionFlags, inputPath string) error {
	cfg, err := loadSessionConfig(cmd, flags)
	if err != nil {
		return err
	}

	source, err := audio.OpenFile(inputPath)
	if err != nil {
		switch {
		case errors.Is(err, audio.ErrSourceUnavailable):
			return fmt.Errorf("cannot open %s: %w", inputPath, err)
		case errors.Is(err, audio.ErrDecode):
			return fmt.Errorf("cannot decode %s: %w", inputPath, err)
		}
		return err
	}

	outputPath := flags.output
	if outputPath == "" {
		outputPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".txt"
	}

	summary, err := runPipeline(cmd.Context(), cfg, source, outputPath, nil, nil)
	if err != nil {
		return err
	}

	fmt.Printf("Transcript saved to %s\n", outputPath)
	fmt.Printf("%d chunks, %d lines, %s of audio",
		summary.Chunks, summary.Segments, transcript.Clock(summary.Duration))
	if summary.Failed > 0 {
		fmt.Printf(", %d chunks failed", summary.Failed)
	}
	fmt.Println()
	return nil
}

func liveCmd() *cobra.Command {
	var flags sessionFlags

	cmd := &cobra.Command{
		Use:   "live",
		Short: "Transcribe the microphone until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(cmd, &flags)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&flags.device, "device", "d", "", "capture device name substring, empty for default")
	return cmd
}

func runLive(cmd *cobra.Command, flags *sessionFlags) error {
	cfg, err := loadSessionConfig(cmd, flags)
	if err != nil {
		return err
	}

	deviceCfg := audio.DefaultDeviceConfig()
	deviceCfg.Device = cfg.Recording.Device
	if cfg.Recording.ChannelBufferSize > 0 {
		deviceCfg.FrameBuffer = cfg.Recording.ChannelBufferSize
	}
	source, err := audio.OpenDevice(deviceCfg)
	if err != nil {
		return fmt.Errorf("cannot open capture device: %w", err)
	}

	outputPath := flags.output
	if outputPath == "" {
		name := "live_transcription_" + time.Now().Format("20060102_150405") + ".txt"
		outputPath = filepath.Join(cfg.Output.Directory, name)
	}

	// long sessions pick up config edits without a restart
	manager, err := config.NewManager(func(newCfg *config.Config) {
		logging.SetLevel(newCfg.Logging.Level)
	})
	if err != nil {
		return err
	}
	watchCtx, stopWatching := context.WithCancel(cmd.Context())
	defer stopWatching()
	if err := manager.StartWatching(watchCtx); err != nil {
		log.Warn().Err(err).Msg("config: live reload unavailable")
	}
	defer manager.Stop()

	display := tui.NewLiveDisplay()
	display.Banner(source.Descriptor(), outputPath)

	summary, err := runPipeline(cmd.Context(), cfg, source, outputPath, display.Render, func(c *pipeline.Coordinator, cancel context.CancelFunc) {
		// Enter or Ctrl+C drains; a second Ctrl+C aborts
		sigCh := make(chan os.Signal, 2)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			buf := make([]byte, 1)
			for {
				if _, err := os.Stdin.Read(buf); err != nil {
					return
				}
				if buf[0] == '\n' {
					c.Stop()
					return
				}
			}
		}()
		go func() {
			<-sigCh
			fmt.Fprintln(os.Stderr, "\nstopping, finishing queued chunks (Ctrl+C again to abort)")
			c.Stop()
			<-sigCh
			cancel()
		}()
	})
	if err != nil {
		return err
	}

	display.Done(summary, outputPath)
	return nil
}

// runPipeline assembles engine, assigner, writer and coordinator, runs the
// session and tears everything down.
func runPipeline(
	ctx context.Context,
	cfg *config.Config,
	source audio.Source,
	outputPath string,
	onProgress func(pipeline.Progress),
	installSignals func(*pipeline.Coordinator, context.CancelFunc),
) (pipeline.Summary, error) {
	engineCfg, err := cfg.ToEngineConfig()
	if err != nil {
		return pipeline.Summary{}, err
	}
	eng, err := engine.New(engineCfg)
	if err != nil {
		return pipeline.Summary{}, err
	}
	defer eng.Close()

	assigner, err := buildAssigner(cfg)
	if err != nil {
		return pipeline.Summary{}, err
	}
	if assigner != nil {
		defer assigner.Close()
	}

	writer, err := transcript.NewWriter(outputPath)
	if err != nil {
		return pipeline.Summary{}, err
	}
	defer writer.Close()

	coordinator, err := pipeline.New(pipeline.Options{
		Source:         source,
		Engine:         eng,
		Assigner:       assigner,
		Writer:         writer,
		ChunkSeconds:   cfg.Transcription.ChunkSeconds,
		Workers:        cfg.Transcription.Workers,
		FailureMarkers: cfg.Output.FailureMarkers,
		OnProgress:     onProgress,
	})
	if err != nil {
		return pipeline.Summary{}, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if installSignals != nil {
		installSignals(coordinator, cancel)
	}

	return coordinator.Run(runCtx)
}
