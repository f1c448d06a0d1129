// cmd/examples.go
package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/whistlecode/internal/engine"
	"github.com/ColonelBlimp/whistlecode/internal/store"
)

var examplesCmd = &cobra.Command{
	Use:   "examples",
	Short: "List recorded training examples per class",
	Args:  cobra.NoArgs,
	RunE:  runExamplesList,
}

var examplesShowCmd = &cobra.Command{
	Use:   "show <class>",
	Short: "Print the frames of every example in a class",
	Args:  cobra.ExactArgs(1),
	RunE:  runExamplesShow,
}

var examplesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Replay every stored example through the detector",
	Args:  cobra.NoArgs,
	RunE:  runExamplesCheck,
}

var examplesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored example",
	Args:  cobra.ExactArgs(1),
	RunE:  runExamplesDelete,
}

func init() {
	examplesCmd.AddCommand(examplesShowCmd)
	examplesCmd.AddCommand(examplesCheckCmd)
	examplesCmd.AddCommand(examplesDeleteCmd)
	rootCmd.AddCommand(examplesCmd)
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	s, _, err := settings(cmd)
	if err != nil {
		return nil, err
	}
	return store.Open(s.ExampleStorePath())
}

func runExamplesList(cmd *cobra.Command, _ []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	classes, err := st.Classes(cmd.Context())
	if err != nil {
		return err
	}
	if len(classes) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No examples recorded")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CLASS\tEXAMPLES")
	for _, c := range classes {
		fmt.Fprintf(tw, "%d\t%d\n", c.ClassKey, c.Count)
	}
	return tw.Flush()
}

func runExamplesShow(cmd *cobra.Command, args []string) error {
	key, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid class key %q", args[0])
	}
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	examples, err := st.Examples(cmd.Context(), key)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, ex := range examples {
		fmt.Fprintf(out, "%s  %s\n", ex.ID, ex.CreatedAt.Format("2006-01-02 15:04:05"))
		var b strings.Builder
		for _, smp := range ex.Samples() {
			if smp.ToneActive {
				fmt.Fprintf(&b, " %.0f", smp.FrequencyHz)
			} else {
				b.WriteString(" -")
			}
		}
		fmt.Fprintf(out, " %s\n", b.String())
	}
	fmt.Fprintf(out, "%d examples in class %d\n", len(examples), key)
	return nil
}

func runExamplesCheck(cmd *cobra.Command, _ []string) error {
	s, logger, err := settings(cmd)
	if err != nil {
		return err
	}
	cat, err := s.Catalog()
	if err != nil {
		return err
	}
	st, err := store.Open(s.ExampleStorePath())
	if err != nil {
		return err
	}
	defer st.Close()

	classes, err := st.Classes(cmd.Context())
	if err != nil {
		return err
	}

	m := s.Matcher(logger)
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CLASS\tEXAMPLE\tDETECTED")
	for _, c := range classes {
		examples, err := st.Examples(cmd.Context(), c.ClassKey)
		if err != nil {
			return err
		}
		for _, ex := range examples {
			res, ok, err := engine.Replay(cat, m, s.WindowSize, ex.Samples())
			if err != nil {
				return err
			}
			detected := "none"
			if ok {
				detected = fmt.Sprintf("signal %d", res.SignalID)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ClassKey, ex.ID, detected)
		}
	}
	return tw.Flush()
}

func runExamplesDelete(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}
