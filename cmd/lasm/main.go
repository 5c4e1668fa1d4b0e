// Command lasm assembles Lada source text into a binary program container.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ktstephano/lada/internal/vmlog"
	"github.com/ktstephano/lada/vm"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lasm <input.lv> <output.lb>",
		Short: "Assemble Lada source into a binary program container",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return assemble(args[0], args[1])
		},
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func assemble(inputPath, outputPath string) error {
	log := vmlog.Default().Tool("lasm")

	src, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inputPath, err)
	}

	prog, asmErr := vm.Assemble(string(src))
	if asmErr != nil {
		log.Error("assembly failed", "line", asmErr.Line, "err", asmErr.Kind.Error())
		return asmErr
	}

	if err := os.WriteFile(outputPath, vm.Encode(prog), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}
	log.Info("assembled", "input", inputPath, "output", outputPath, "instructions", len(prog.Inst), "static_bytes", len(prog.Mem))
	return nil
}
