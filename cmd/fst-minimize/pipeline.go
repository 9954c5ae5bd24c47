package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/geange/transducer"
	"github.com/geange/transducer/codec"
)

type streamStats struct {
	written   int
	skipped   int
	statesIn  int
	statesOut int
}

type outcome struct {
	index     int
	statesIn  int
	minimized *transducer.Transducer
	err       error
}

// minimizeStream Reads every transducer from r, minimizes it and writes the result to w in input
// order. With more than one worker, transducers are minimized concurrently; each has its own
// result slot and the slots are drained in the order they were created.
func minimizeStream(ctx context.Context, r codec.Reader, w codec.Writer, cfg *config, logger *slog.Logger) (*streamStats, error) {
	opts := cfg.minimizeOptions(logger)
	stats := &streamStats{}

	if cfg.workers() <= 1 {
		for index := 0; ; index++ {
			t, err := r.ReadNext()
			if errors.Is(err, io.EOF) {
				return stats, nil
			}
			if err != nil {
				return stats, fmt.Errorf("reading transducer %d: %w", index, err)
			}
			if err := emit(w, minimizeOne(index, t, opts), cfg, stats, logger); err != nil {
				return stats, err
			}
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	slots := make(chan chan outcome, cfg.workers())

	g.Go(func() error {
		defer close(slots)
		var pool errgroup.Group
		pool.SetLimit(cfg.workers())
		defer pool.Wait()

		for index := 0; ; index++ {
			t, err := r.ReadNext()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading transducer %d: %w", index, err)
			}

			slot := make(chan outcome, 1)
			select {
			case slots <- slot:
			case <-ctx.Done():
				return ctx.Err()
			}
			pool.Go(func() error {
				slot <- minimizeOne(index, t, opts)
				return nil
			})
		}
	})

	g.Go(func() error {
		for slot := range slots {
			if err := emit(w, <-slot, cfg, stats, logger); err != nil {
				return err
			}
		}
		return nil
	})

	return stats, g.Wait()
}

func minimizeOne(index int, t *transducer.Transducer, opts []transducer.Option) outcome {
	m, err := transducer.Minimize(t, opts...)
	return outcome{index: index, statesIn: t.NumStates(), minimized: m, err: err}
}

// emit Writes one outcome, or reports and skips it when the policy allows.
func emit(w codec.Writer, o outcome, cfg *config, stats *streamStats, logger *slog.Logger) error {
	if o.err != nil {
		if cfg.skipInvalid && errors.Is(o.err, transducer.ErrInvalidInputKind) {
			logger.Warn("skipping transducer", "index", o.index, "error", o.err)
			stats.skipped++
			return nil
		}
		return fmt.Errorf("transducer %d: %w", o.index, o.err)
	}

	if err := w.Write(o.minimized); err != nil {
		return fmt.Errorf("writing transducer %d: %w", o.index, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing transducer %d: %w", o.index, err)
	}
	stats.written++
	stats.statesIn += o.statesIn
	stats.statesOut += o.minimized.NumStates()
	logger.Debug("transducer minimized", "index", o.index,
		"states_in", o.statesIn, "states_out", o.minimized.NumStates())
	return nil
}
