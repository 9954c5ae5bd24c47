package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/geange/transducer/codec"
	"github.com/geange/transducer/internal/logging"
)

var rootCmd = newRootCmd()

// Execute runs the root command, printing any error to stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fst-minimize: %v\n", err)
		return err
	}
	return nil
}

func newRootCmd() *cobra.Command {
	cfg := defaultConfig()

	cmd := &cobra.Command{
		Use:   "fst-minimize [flags] INFILE",
		Short: "Minimize a stream of deterministic transducers",
		Long: `fst-minimize reads every transducer from INFILE ("-" for standard input),
minimizes each one and writes the results to standard output in the same stream format.

Input transducers must be deterministic on their input labels. Minimization removes
unreachable and dead states, pushes weights toward the start state and merges states
that cannot be told apart by any future input.`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd, cfg, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.output, "output", "o", cfg.output, "Write to this file instead of standard output")
	flags.StringVarP(&cfg.format, "format", "f", cfg.format, "Stream format: att or yaml")
	flags.StringVar(&cfg.semiring, "semiring", cfg.semiring, "Semiring of weighted ATT input: tropical or log")
	flags.IntVarP(&cfg.jobs, "jobs", "j", cfg.jobs, "Transducers minimized in parallel (0 = one per CPU)")
	flags.Float64Var(&cfg.delta, "delta", cfg.delta, "Tolerance for comparing weights")
	flags.IntVar(&cfg.maxRelaxations, "max-relaxations", cfg.maxRelaxations,
		"How often a state may be relaxed while pushing log weights before they count as divergent")
	flags.StringVar(&cfg.onInstability, "on-instability", cfg.onInstability,
		"What to do when weights are too close to compare reliably: error or warn")
	flags.BoolVar(&cfg.skipInvalid, "skip-invalid", cfg.skipInvalid,
		"Report and skip nondeterministic transducers instead of aborting")
	flags.BoolVarP(&cfg.verbose, "verbose", "v", cfg.verbose, "Print per-transducer statistics")
	flags.BoolVarP(&cfg.quiet, "quiet", "q", cfg.quiet, "Only print errors")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	return cmd
}

func run(cmd *cobra.Command, cfg *config, path string) error {
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.logLevel())

	in, err := openInput(cmd, path)
	if err != nil {
		return err
	}
	defer in.Close()

	out := cmd.OutOrStdout()
	var outFile *os.File
	if cfg.output != "" && cfg.output != "-" {
		outFile, err = os.Create(cfg.output)
		if err != nil {
			return fmt.Errorf("cannot create output: %w", err)
		}
		// Error paths only; on success the file is closed below and its error reported.
		defer outFile.Close()
		out = outFile
	}

	format, _ := codec.ParseFormat(cfg.format)
	reader, err := codec.NewReader(format, in, codec.WithWeightKind(cfg.weightKind()))
	if err != nil {
		return err
	}
	writer, err := codec.NewWriter(format, out)
	if err != nil {
		return err
	}

	logger.Debug("minimizing stream", "input", path, "format", format.String(), "jobs", cfg.workers())
	stats, err := minimizeStream(cmd.Context(), reader, writer, cfg, logger)
	if err != nil {
		return err
	}
	if outFile != nil {
		if err := outFile.Close(); err != nil {
			return fmt.Errorf("cannot close output: %w", err)
		}
	}
	logger.Log(cmd.Context(), summaryLevel(stats), "done",
		"transducers", stats.written, "skipped", stats.skipped,
		"states_in", stats.statesIn, "states_out", stats.statesOut)
	return nil
}

func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open input: %w", err)
	}
	return f, nil
}

func summaryLevel(stats *streamStats) slog.Level {
	if stats.skipped > 0 {
		return slog.LevelWarn
	}
	return slog.LevelDebug
}
