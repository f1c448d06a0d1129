// cmd/detect.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/whistlecode/internal/audio"
	"github.com/ColonelBlimp/whistlecode/internal/recovery"
	"github.com/ColonelBlimp/whistlecode/internal/tonal"
)

// wavChunkSize is the number of frames read from a WAV file per chunk
const wavChunkSize = 4096

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect whistled signals from the audio device",
	Long: `Captures audio from the configured input device and prints every
reference signal it recognises until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runDetect,
}

var detectFileCmd = &cobra.Command{
	Use:   "detect-file <wav>",
	Short: "Detect whistled signals in a WAV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetectFile,
}

func init() {
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(detectFileCmd)
}

func runDetect(cmd *cobra.Command, _ []string) error {
	s, logger, err := settings(cmd)
	if err != nil {
		return err
	}
	p, err := newPipeline(s, logger, 0)
	if err != nil {
		return err
	}
	p.engine.SetMatchCallback(printMatch(cmd.OutOrStdout(), p))

	capture := audio.New(s.AudioConfig())
	if err := capture.Init(); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	defer func() {
		if err := capture.Close(); err != nil {
			logger.Warn("closing audio", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := capture.Start(ctx); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	logger.Info("listening", "device", s.DeviceIndex, "sample_rate", s.SampleRate)

	err = recovery.Run(func() error { return p.engine.Run(ctx, capture.Samples) })
	if errors.Is(err, context.Canceled) {
		logger.Info("stopped", "frames", p.engine.Frames(), "matches", p.engine.Session().Matches())
		return nil
	}
	return err
}

func runDetectFile(cmd *cobra.Command, args []string) error {
	s, logger, err := settings(cmd)
	if err != nil {
		return err
	}

	wav, err := audio.OpenWAV(args[0])
	if err != nil {
		return err
	}
	defer wav.Close()

	info := wav.Info()
	logger.Debug("opened wav", "path", args[0], "sample_rate", info.SampleRate, "channels", info.Channels, "bits", info.BitDepth)

	p, err := newPipeline(s, logger, float64(info.SampleRate))
	if err != nil {
		return err
	}
	p.engine.SetMatchCallback(printMatch(cmd.OutOrStdout(), p))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chunks := make(chan []float32, 8)
	streamErr := make(chan error, 1)
	go func() {
		streamErr <- recovery.Run(func() error { return wav.Stream(ctx, wavChunkSize, chunks) })
	}()

	if err := recovery.Run(func() error { return p.engine.Run(ctx, chunks) }); err != nil {
		return err
	}
	if err := <-streamErr; err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d frames, %d matches\n", p.engine.Frames(), p.engine.Session().Matches())
	return nil
}

func printMatch(w io.Writer, p *pipeline) func(frame int, res tonal.MatchResult) {
	return func(frame int, res tonal.MatchResult) {
		fmt.Fprintf(w, "%8.2fs  signal %d\n", p.offset(frame), res.SignalID)
	}
}
