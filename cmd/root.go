// cmd/root.go
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ColonelBlimp/whistlecode/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "whistlecode",
	Short: "Whistled signal detector",
	Long: `Listens to audio input, tracks the dominant whistled pitch and reports
when a known sequence of relative pitch steps has been whistled.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags (override config file)
	rootCmd.PersistentFlags().IntP("device", "d", -1, "audio device index (-1 for default)")
	rootCmd.PersistentFlags().IntP("window", "n", 30, "frames of history searched for a signal")
	rootCmd.PersistentFlags().StringP("store", "s", "", "example database path")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "enable debug output")
}

// flagKeys maps persistent flags to their config keys
var flagKeys = map[string]string{
	"device": "device_index",
	"window": "window_size",
	"store":  "store_path",
	"debug":  "debug",
}

// loadConfig binds flags and reads the config file. Binding happens here
// rather than in init so it survives viper.Reset.
func loadConfig(cmd *cobra.Command, _ []string) error {
	for name, key := range flagKeys {
		if err := viper.BindPFlag(key, cmd.Root().PersistentFlags().Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	if err := config.Init(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// settings returns the validated settings and a logger configured from them
func settings(cmd *cobra.Command) (*config.Settings, *slog.Logger, error) {
	s, err := config.Get()
	if err != nil {
		return nil, nil, err
	}
	return s, newLogger(cmd.ErrOrStderr(), s.Debug), nil
}

// newLogger returns a colourised console logger at info level, or debug
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
	}))
}
