// Command mucab loads a compiled MUCA dictionary and transliterates a
// piece of text into its reading (spec §6 "CLI — runtime").
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mucab/mucab"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mucab <mucab.bin> <text>",
		Short:         "Transliterate Japanese text into its dictionary reading",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTransliterate,
	}
	return cmd
}

func runTransliterate(cmd *cobra.Command, args []string) error {
	dictPath, text := args[0], args[1]

	dict, err := mucab.Open(dictPath)
	if err != nil {
		return fmt.Errorf("mucab: %w", err)
	}
	defer dict.Close()

	fmt.Printf("Loaded dictionary with %d entries\n", dict.NumEntries())
	fmt.Printf("Input: %s\n", text)

	out, err := mucab.Transliterate(dict, text)
	if err != nil {
		return fmt.Errorf("mucab: %w", err)
	}
	fmt.Printf("Output: %s\n", out)
	return nil
}
