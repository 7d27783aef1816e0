package singer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sirosfoundation/target-sherpaan/internal/purchase"
)

// Processor handles a batch of records in order
type Processor interface {
	ProcessBatch(ctx context.Context, records []purchase.Record) error
}

// RunnerConfig configures a Runner
type RunnerConfig struct {
	Processor Processor
	Streams   []string
	BatchSize int
	Logger    *slog.Logger
}

// Runner feeds records of the configured streams to the processor in batches
// and emits STATE once everything before it has been processed
type Runner struct {
	processor Processor
	streams   map[string]bool
	batchSize int
	logger    *slog.Logger
}

// NewRunner creates a runner
func NewRunner(cfg RunnerConfig) *Runner {
	streams := make(map[string]bool, len(cfg.Streams))
	for _, s := range cfg.Streams {
		streams[s] = true
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		processor: cfg.Processor,
		streams:   streams,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run consumes in until EOF. The latest STATE value is written to out, one
// JSON line, after the records preceding it were processed. The first
// failing batch aborts the run; its pending state is not emitted.
func (r *Runner) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := NewReader(in)

	var (
		batch   []purchase.Record
		pending []byte
		records int
	)

	emit := func(state []byte) error {
		if _, err := fmt.Fprintf(out, "%s\n", state); err != nil {
			return fmt.Errorf("writing state: %w", err)
		}
		return nil
	}

	flush := func() error {
		if len(batch) > 0 {
			r.logger.Info("processing batch", slog.Int("records", len(batch)))
			if err := r.processor.ProcessBatch(ctx, batch); err != nil {
				return err
			}
			batch = nil
		}
		if pending != nil {
			if err := emit(pending); err != nil {
				return err
			}
			pending = nil
		}
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		switch msg.Type {
		case TypeSchema:
			r.logger.Info("received schema",
				slog.String("stream", msg.Stream),
				slog.Bool("handled", r.streams[msg.Stream]))

		case TypeRecord:
			if !r.streams[msg.Stream] {
				r.logger.Debug("ignoring record of unhandled stream", slog.String("stream", msg.Stream))
				continue
			}
			records++
			batch = append(batch, purchase.Record(msg.Record))
			if len(batch) >= r.batchSize {
				if err := flush(); err != nil {
					return err
				}
			}

		case TypeState:
			if len(msg.Value) == 0 || string(msg.Value) == "null" {
				continue
			}
			pending = append([]byte(nil), msg.Value...)
			if len(batch) == 0 {
				if err := flush(); err != nil {
					return err
				}
			}

		case TypeActivateVersion:
			// versioned streams are not supported by the service

		default:
			r.logger.Warn("ignoring unknown message type", slog.String("type", string(msg.Type)))
		}
	}

	if err := flush(); err != nil {
		return err
	}
	r.logger.Info("input exhausted", slog.Int("records", records))
	return nil
}
