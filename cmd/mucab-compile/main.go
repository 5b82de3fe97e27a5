// Command mucab-compile reads a directory of EUC-JP CSV lexica plus a
// matrix.def connection-cost matrix and writes a compiled MUCA
// dictionary (spec §6 "CLI — compiler").
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

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
		Use:           "mucab-compile <input_dir> <output_dir>",
		Short:         "Compile a CSV lexicon and connection matrix into a MUCA dictionary",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCompile,
	}
	return cmd
}

func runCompile(cmd *cobra.Command, args []string) error {
	inputDir, outputDir := args[0], args[1]

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("mucab-compile: create output dir: %w", err)
	}

	outputPath := filepath.Join(outputDir, "mucab.bin")
	if err := mucab.Compile(context.Background(), inputDir, outputPath); err != nil {
		return fmt.Errorf("mucab-compile: %w", err)
	}
	return nil
}
