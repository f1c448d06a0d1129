// cmd/catalog.go
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/whistlecode/internal/audio"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the reference signals as semitone steps from their first note",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, _, err := settings(cmd)
		if err != nil {
			return err
		}
		cat, err := s.Catalog()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, sig := range cat.Signals() {
			steps := make([]string, len(sig.Notes))
			for i, n := range sig.Notes {
				steps[i] = fmt.Sprintf("%+.1f", n*12)
			}
			fmt.Fprintf(out, "signal %d (%d notes): %s\n", sig.ID, len(sig.Notes), strings.Join(steps, " "))
		}
		return nil
	},
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio capture devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, _, err := settings(cmd)
		if err != nil {
			return err
		}
		capture := audio.New(s.AudioConfig())
		if err := capture.Init(); err != nil {
			return fmt.Errorf("audio: %w", err)
		}
		defer capture.Close()

		devices, err := capture.ListDevices()
		if err != nil {
			return fmt.Errorf("audio: %w", err)
		}
		out := cmd.OutOrStdout()
		for i, d := range devices {
			fmt.Fprintf(out, "%2d  %s\n", i, d.Name())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(devicesCmd)
}
