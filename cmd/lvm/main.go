// Command lvm runs a Lada binary program container to completion or trap.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ktstephano/lada/internal/vmlog"
	"github.com/ktstephano/lada/vm"
)

func main() {
	var stackCap int
	var arenaSize int
	var debug bool
	var printFmt string
	var growStack bool
	var growArena bool
	var breakpointsStr string

	rootCmd := &cobra.Command{
		Use:   "lvm <program.lb> [flags]",
		Short: "Run a Lada binary program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := runConfig{
				path:           args[0],
				stackCap:       stackCap,
				arenaSize:      arenaSize,
				debug:          debug,
				printFmt:       printFmt,
				growStack:      growStack,
				growArena:      growArena,
				breakpointsStr: breakpointsStr,
			}
			return run(cfg)
		},
	}

	flags := rootCmd.Flags()
	flags.IntVar(&stackCap, "stack-cap", 1024, "value stack capacity, in words")
	flags.IntVar(&arenaSize, "arena-size", 0, "arena size in bytes (0 = max(4096, program static data length))")
	flags.BoolVarP(&debug, "debug", "d", false, "interactive single-step + breakpoints")
	flags.StringVar(&printFmt, "print", "int", "stack value print format: int, hex or float")
	flags.BoolVar(&growStack, "grow-stack", false, "grow the stack instead of trapping on overflow")
	flags.BoolVar(&growArena, "grow-arena", false, "grow the arena instead of trapping on illegal memory access")
	flags.StringVar(&breakpointsStr, "break", "", "comma-separated instruction indices to break on (debug mode)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type runConfig struct {
	path           string
	stackCap       int
	arenaSize      int
	debug          bool
	printFmt       string
	growStack      bool
	growArena      bool
	breakpointsStr string
}

func run(cfg runConfig) error {
	log := vmlog.Default().Tool("lvm")

	raw, err := os.ReadFile(cfg.path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", cfg.path, err)
	}
	prog, decErr := vm.Decode(bytes.NewReader(raw))
	if decErr != nil {
		return decErr
	}

	printAs, err := parsePrintFormat(cfg.printFmt)
	if err != nil {
		return err
	}

	arenaSize := cfg.arenaSize
	if arenaSize <= 0 {
		arenaSize = len(prog.Mem)
		if arenaSize < 4096 {
			arenaSize = 4096
		}
	}

	engine := vm.NewEngine(prog, vm.Config{
		StackCap:  cfg.stackCap,
		ArenaSize: arenaSize,
		Natives:   vm.DefaultNatives(os.Stdout),
		Out:       os.Stdout,
		DumpAs:    printAs,
	})

	if cfg.debug {
		return runDebug(engine, cfg.breakpointsStr, log)
	}
	return runToCompletion(engine, cfg.growStack, cfg.growArena, log)
}

// runToCompletion drives Engine.Run, retrying once per trap when the
// matching --grow-* flag is set, per spec.md §7's host-recovery policy
// (grow the stack on StackOverflow, grow the arena on IllegalMemAccess).
func runToCompletion(e *vm.Engine, growStack, growArena bool, log *vmlog.Logger) error {
	for {
		err := e.Run()
		if err == nil {
			return nil
		}
		if growStack && err == vm.ErrStackOverflow {
			log.Warn("stack overflow, growing stack", "extra", e.StackSize())
			e.GrowStack(e.StackSize())
			continue
		}
		if growArena && err == vm.ErrIllegalMemAccess {
			log.Warn("illegal memory access, growing arena")
			e.GrowArena(4096)
			continue
		}
		pc, kind := e.LastError()
		fmt.Fprintf(os.Stderr, "trap at ip=%d: %s\n", pc, kind)
		return kind
	}
}

// runDebug implements the breakpoint REPL, ported from
// KTStephano-GVM/vm/run.go's execProgramDebugMode: n/next single-steps,
// r/run free-runs to the next breakpoint, b <index> sets a new breakpoint
// on an instruction index.
func runDebug(e *vm.Engine, breakpointsStr string, log *vmlog.Logger) error {
	breakpoints := parseBreakpoints(breakpointsStr)
	input := bufio.NewScanner(os.Stdin)

	autoRun := false
	report := func(ip int64, inst vm.Instruction) bool {
		if autoRun {
			if _, isBreak := breakpoints[int(ip)]; !isBreak {
				return true
			}
			autoRun = false
		}
		for {
			fmt.Printf("(lvm) ")
			if !input.Scan() {
				return false
			}
			cmd := strings.TrimSpace(input.Text())
			switch {
			case cmd == "n" || cmd == "next" || cmd == "":
				return false
			case cmd == "r" || cmd == "run":
				autoRun = true
				return true
			case strings.HasPrefix(cmd, "b "):
				var idx int
				if _, err := fmt.Sscanf(cmd, "b %d", &idx); err == nil {
					breakpoints[idx] = struct{}{}
					fmt.Printf("breakpoint set at %d\n", idx)
				}
			default:
				fmt.Println("commands: n(ext), r(un), b <index>")
			}
		}
	}

	// RunDebug returns to the caller after every single step (and after
	// each breakpoint hit during a free-run); drive it in a loop until the
	// program halts or traps, per KTStephano-GVM/vm/run.go's outer
	// execProgramDebugMode loop.
	for !e.Halted() {
		if err := e.RunDebug(os.Stdout, breakpoints, report); err != nil {
			pc, kind := e.LastError()
			fmt.Fprintf(os.Stderr, "trap at ip=%d: %s\n", pc, kind)
			return kind
		}
	}
	log.Info("program halted")
	return nil
}

func parseBreakpoints(s string) map[int]struct{} {
	breakpoints := map[int]struct{}{}
	if s == "" {
		return breakpoints
	}
	for _, tok := range strings.Split(s, ",") {
		var idx int
		if _, err := fmt.Sscanf(strings.TrimSpace(tok), "%d", &idx); err == nil {
			breakpoints[idx] = struct{}{}
		}
	}
	return breakpoints
}

func parsePrintFormat(s string) (vm.PrintFormat, error) {
	switch strings.ToLower(s) {
	case "int", "":
		return vm.PrintInt, nil
	case "hex":
		return vm.PrintHex, nil
	case "float":
		return vm.PrintFloat, nil
	default:
		return 0, fmt.Errorf("unknown --print format %q: use int, hex or float", s)
	}
}
