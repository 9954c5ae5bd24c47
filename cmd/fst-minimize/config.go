package main

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/geange/transducer"
	"github.com/geange/transducer/codec"
)

type config struct {
	output        string
	format        string
	semiring      string
	jobs          int
	delta          float64
	maxRelaxations int
	onInstability  string
	skipInvalid   bool
	verbose       bool
	quiet         bool
}

func defaultConfig() *config {
	return &config{
		format:        "att",
		semiring:      "tropical",
		jobs:          1,
		delta:          transducer.DefaultDelta,
		maxRelaxations: transducer.DefaultMaxRelaxations,
		onInstability:  "error",
	}
}

func (c *config) validate() error {
	if _, err := codec.ParseFormat(c.format); err != nil {
		return err
	}
	if c.semiring != "tropical" && c.semiring != "log" {
		return fmt.Errorf("unknown semiring %q (want tropical or log)", c.semiring)
	}
	if c.onInstability != "error" && c.onInstability != "warn" {
		return fmt.Errorf("unknown --on-instability value %q (want error or warn)", c.onInstability)
	}
	if c.jobs < 0 {
		return fmt.Errorf("--jobs must not be negative, got %d", c.jobs)
	}
	if c.delta <= 0 {
		return fmt.Errorf("--delta must be positive, got %g", c.delta)
	}
	if c.maxRelaxations <= 0 {
		return fmt.Errorf("--max-relaxations must be positive, got %d", c.maxRelaxations)
	}
	return nil
}

func (c *config) weightKind() transducer.Kind {
	if c.semiring == "log" {
		return transducer.Log
	}
	return transducer.Tropical
}

func (c *config) workers() int {
	if c.jobs == 0 {
		return runtime.NumCPU()
	}
	return c.jobs
}

func (c *config) logLevel() slog.Level {
	switch {
	case c.verbose:
		return slog.LevelDebug
	case c.quiet:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *config) minimizeOptions(logger *slog.Logger) []transducer.Option {
	policy := transducer.FailOnInstability
	if c.onInstability == "warn" {
		policy = transducer.WarnOnInstability
	}
	return []transducer.Option{
		transducer.WithDelta(c.delta),
		transducer.WithInstabilityPolicy(policy),
		transducer.WithMaxRelaxations(c.maxRelaxations),
		transducer.WithLogger(logger),
	}
}
