package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"

	"github.com/raymyers/ralph-ilc/pkg/asm"
	"github.com/raymyers/ralph-ilc/pkg/asmgen"
	"github.com/raymyers/ralph-ilc/pkg/il"
	"github.com/raymyers/ralph-ilc/pkg/lexer"
	"github.com/raymyers/ralph-ilc/pkg/logging"
	"github.com/raymyers/ralph-ilc/pkg/parser"
	"github.com/raymyers/ralph-ilc/pkg/regalloc"
)

var version = "0.1.0"

// Environment variables supplying flag defaults
const (
	envRegs = "RALPH_ILC_REGS"
	envJobs = "RALPH_ILC_JOBS"
)

// Debug flags for dumping intermediate results
var (
	dIL    bool
	dLife  bool
	dAlloc bool
	dAsm   bool
)

// Code generation options
var (
	outputFile string
	borders    bool
	numRegs    int
	jobs       int
	verbose    bool
)

// ErrDiagnostics indicates the input had errors that were already reported
var ErrDiagnostics = errors.New("compilation failed")

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	// Accept single-dash debug flags such as -dalloc
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// debugFlagNames lists the debug flags that also accept single-dash style
var debugFlagNames = []string{"dil", "dlife", "dalloc", "dasm"}

// normalizeFlags converts single-dash debug flags like -dalloc to --dalloc
func normalizeFlags(args []string) []string {
	return lo.Map(args, func(arg string, _ int) string {
		if name, ok := strings.CutPrefix(arg, "-"); ok && lo.Contains(debugFlagNames, name) {
			return "--" + name
		}
		return arg
	})
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ralph-ilc [file]",
		Short: "ralph-ilc compiles IL to x86-64 assembly",
		Long: `ralph-ilc translates a small three-address intermediate language
into x86-64 NASM assembly using a linear-scan register allocator
that spills to memory and hands freed registers back to spilled
variables.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			logging.SetOutput(errOut)
			if verbose {
				logging.SetLevel(slog.LevelDebug)
			}
			return compile(cmd.Context(), args[0], out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	// Add debug flags
	rootCmd.Flags().BoolVarP(&dIL, "dil", "", false, "Dump the parsed IL with slot numbers")
	rootCmd.Flags().BoolVarP(&dLife, "dlife", "", false, "Dump variable lifespans")
	rootCmd.Flags().BoolVarP(&dAlloc, "dalloc", "", false, "Dump register allocation as YAML")
	rootCmd.Flags().BoolVarP(&dAsm, "dasm", "", false, "Dump assembly")

	// Add code generation flags
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: input name with .s suffix)")
	rootCmd.Flags().BoolVar(&borders, "borders", false, "Annotate each command in the assembly")
	rootCmd.Flags().IntVar(&numRegs, "regs", env.Int(envRegs, len(regalloc.DefaultRegisters)), "Number of allocatable registers")
	rootCmd.Flags().IntVarP(&jobs, "jobs", "j", env.Int(envJobs, runtime.NumCPU()), "Functions allocated in parallel")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log allocator decisions")

	return rootCmd
}

// readProgram reads and parses an IL file, reporting diagnostics to errOut
func readProgram(filename string, errOut io.Writer) (*il.Program, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(errOut, "ralph-ilc: error reading %s: %v\n", filename, err)
		return nil, err
	}

	p := parser.New(lexer.New(string(content)))
	program := p.ParseProgram()
	if len(p.Errors()) > 0 {
		for _, e := range p.Errors() {
			fmt.Fprintf(errOut, "%s: %s\n", filename, e)
		}
		return nil, ErrDiagnostics
	}
	return program, nil
}

// allocatorConfig builds the allocator configuration from the flags
func allocatorConfig() (regalloc.Config, error) {
	if numRegs < 0 || numRegs > len(regalloc.DefaultRegisters) {
		return regalloc.Config{}, fmt.Errorf("--regs must be between 0 and %d, got %d",
			len(regalloc.DefaultRegisters), numRegs)
	}
	if numRegs == 0 {
		logging.Warn("no allocatable registers, every variable lives in memory")
	}
	return regalloc.DefaultConfig().WithRegisters(numRegs), nil
}

func compile(ctx context.Context, filename string, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := allocatorConfig()
	if err != nil {
		fmt.Fprintf(errOut, "ralph-ilc: %v\n", err)
		return err
	}

	program, err := readProgram(filename, errOut)
	if err != nil {
		return err
	}
	logging.Info("parsed", "file", filename, "functions", len(program.Functions))

	if dIL {
		il.NewPrinter(out).PrintProgram(program)
	}

	allocs, err := regalloc.AllocateProgram(ctx, program, cfg, jobs)
	if err != nil {
		reportError(errOut, err)
		return err
	}

	if dLife {
		printer := regalloc.NewPrinter(out)
		for i := range program.Functions {
			printer.PrintLifespans(&program.Functions[i], allocs[i])
		}
	}
	if dAlloc {
		if err := regalloc.WriteYAML(out, program, allocs); err != nil {
			fmt.Fprintf(errOut, "ralph-ilc: %v\n", err)
			return err
		}
	}

	asmProg, err := asmgen.TransformProgram(program, allocs, cfg, asmgen.Options{Borders: borders})
	if err != nil {
		reportError(errOut, err)
		return err
	}

	outputFilename := outputFile
	if outputFilename == "" {
		outputFilename = asmOutputFilename(filename)
	}
	if err := writeAsm(outputFilename, asmProg); err != nil {
		fmt.Fprintf(errOut, "ralph-ilc: error creating %s: %v\n", outputFilename, err)
		return err
	}

	if dAsm {
		asm.NewPrinter(out).PrintProgram(asmProg)
	}
	return nil
}

// reportError prints err, marking allocator bugs as internal errors
func reportError(errOut io.Writer, err error) {
	if errors.Is(err, regalloc.ErrInternal) {
		logging.Error("internal error", "err", err)
		fmt.Fprintf(errOut, "ralph-ilc: internal error: %v\n", err)
		return
	}
	fmt.Fprintf(errOut, "ralph-ilc: %v\n", err)
}

func writeAsm(filename string, prog *asm.Program) error {
	outFile, err := os.Create(filename)
	if err != nil {
		return err
	}
	asm.NewPrinter(outFile).PrintProgram(prog)
	return outFile.Close()
}

// asmOutputFilename returns the output filename in the current directory:
// the input's base name with .il replaced by .s
func asmOutputFilename(filename string) string {
	base := filepath.Base(filename)
	if name, ok := strings.CutSuffix(base, ".il"); ok && name != "" {
		return name + ".s"
	}
	return base + ".s"
}
