// cmd/record.go
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/whistlecode/internal/audio"
	"github.com/ColonelBlimp/whistlecode/internal/dsp"
	"github.com/ColonelBlimp/whistlecode/internal/engine"
	"github.com/ColonelBlimp/whistlecode/internal/recovery"
	"github.com/ColonelBlimp/whistlecode/internal/store"
	"github.com/ColonelBlimp/whistlecode/internal/tonal"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record training examples from the audio device",
	Long: `Captures audio and, each time a whistle fills the example history,
asks for the class key to store it under. Enter a number to use an existing
class, "n" for a new class, or an empty line to discard the example.`,
	Args: cobra.NoArgs,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
}

// classChoice is the answer to the class key prompt
type classChoice struct {
	key     int
	newKey  bool
	discard bool
}

// parseClassChoice interprets one line typed at the class key prompt
func parseClassChoice(line string) (classChoice, error) {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return classChoice{discard: true}, nil
	case "n", "N":
		return classChoice{newKey: true}, nil
	}
	key, err := strconv.Atoi(line)
	if err != nil || key < 0 {
		return classChoice{}, fmt.Errorf("invalid class key %q", line)
	}
	return classChoice{key: key}, nil
}

func runRecord(cmd *cobra.Command, _ []string) error {
	s, logger, err := settings(cmd)
	if err != nil {
		return err
	}
	p, err := newPipeline(s, logger, 0)
	if err != nil {
		return err
	}
	rec, err := engine.NewRecorder(s.HistoryLength)
	if err != nil {
		return err
	}

	st, err := store.Open(s.ExampleStorePath())
	if err != nil {
		return err
	}
	defer st.Close()

	// The recorder is only touched from the engine goroutine. paused holds
	// it off while an example waits for its class key.
	var paused atomic.Bool
	examples := make(chan []tonal.Sample, 1)
	p.engine.SetFeatureCallback(func(_ int, f dsp.Feature) {
		if paused.Load() || !rec.Push(f) {
			return
		}
		paused.Store(true)
		examples <- rec.Take()
	})

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

	runErr := make(chan error, 1)
	go func() {
		runErr <- recovery.Run(func() error { return p.engine.Run(ctx, capture.Samples) })
	}()

	lines := readLines(ctx, cmd.InOrStdin())
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Recording, whistle a signal (Ctrl+C to stop)")

	for {
		select {
		case err := <-runErr:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case samples := <-examples:
			if err := storeExample(ctx, out, lines, st, samples); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
			paused.Store(false)
		}
	}
}

// storeExample prompts for a class key until a valid answer arrives, then stores or discards samples
func storeExample(ctx context.Context, out io.Writer, lines <-chan string, st *store.Store, samples []tonal.Sample) error {
	for {
		fmt.Fprint(out, "Example ready. Class key (number, n = new, empty = discard): ")

		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return io.EOF
			}
			line = l
		}

		choice, err := parseClassChoice(line)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		if choice.discard {
			fmt.Fprintln(out, "Discarded")
			return nil
		}
		if choice.newKey {
			if choice.key, err = st.NextClassKey(ctx); err != nil {
				return err
			}
		}

		ex, err := st.Append(ctx, choice.key, samples)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Stored example %s in class %d\n", ex.ID, ex.ClassKey)
		return nil
	}
}

// readLines delivers r line by line until EOF or ctx is done
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
