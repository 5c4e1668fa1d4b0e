// Command ldis disassembles a Lada binary program container to stdout.
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ktstephano/lada/vm"
)

func main() {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "ldis <input.lb>",
		Short: "Disassemble a Lada binary program container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return disassemble(args[0], verbose)
		},
	}
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print a static-memory/instruction-count summary to stderr")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// disassemble prints bare, reassemblable instruction text to stdout, so
// `ldis a.lb` output can be fed straight back into lasm. The optional
// summary goes to stderr so it never pollutes that stream.
func disassemble(inputPath string, verbose bool) error {
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inputPath, err)
	}

	prog, decErr := vm.Decode(bytes.NewReader(raw))
	if decErr != nil {
		return decErr
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "static memory: %d bytes\n", len(prog.Mem))
		fmt.Fprintf(os.Stderr, "instructions:  %d\n", len(prog.Inst))
	}
	fmt.Print(vm.Disassemble(prog))
	return nil
}
