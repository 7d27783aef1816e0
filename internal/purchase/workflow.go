// Package purchase realizes a purchase order record as a two-call Sherpa
// transaction: AddOrderedPurchase creates the order header and returns its
// number, ChangePurchase2 attaches the lines to that number.
//
// A failure after the first call leaves a created order without lines; it is
// reported, not compensated.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sirosfoundation/target-sherpaan/pkg/datefmt"
	"github.com/sirosfoundation/target-sherpaan/pkg/envelope"
	"github.com/sirosfoundation/target-sherpaan/pkg/response"
)

// Sender performs a SOAP call and returns the response body
type Sender interface {
	Send(ctx context.Context, operation string, envelope []byte) ([]byte, error)
}

// Config configures a Workflow
type Config struct {
	SecurityCode string
	Defaults     Defaults
	Sender       Sender
	Normalizer   *datefmt.Normalizer // defaults to datefmt.New with Logger
	Tracker      *Tracker            // defaults to a tracker without observer
	Logger       *slog.Logger
}

// Workflow processes purchase order records sequentially
type Workflow struct {
	securityCode string
	defaults     Defaults
	sender       Sender
	normalizer   *datefmt.Normalizer
	tracker      *Tracker
	logger       *slog.Logger
}

// NewWorkflow creates a workflow
func NewWorkflow(cfg Config) (*Workflow, error) {
	if cfg.Sender == nil {
		return nil, errors.New("sender is required")
	}
	if cfg.SecurityCode == "" {
		return nil, errors.New("security code is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	normalizer := cfg.Normalizer
	if normalizer == nil {
		normalizer = datefmt.New(datefmt.WithLogger(logger))
	}
	tracker := cfg.Tracker
	if tracker == nil {
		tracker = NewTracker(nil)
	}

	return &Workflow{
		securityCode: cfg.SecurityCode,
		defaults:     cfg.Defaults,
		sender:       cfg.Sender,
		normalizer:   normalizer,
		tracker:      tracker,
		logger:       logger,
	}, nil
}

// Tracker returns the tracker that records outcomes
func (w *Workflow) Tracker() *Tracker {
	return w.tracker
}

// Process runs the transaction for one record. The returned outcome is never
// nil; on failure the error is a *RecordError naming the failed stage.
func (w *Workflow) Process(ctx context.Context, record Record) (*Outcome, error) {
	id := RecordID(record)
	log := w.logger.With(slog.String("record_id", id))
	out := &Outcome{RecordID: id, Stage: StageValidating}

	if w.tracker.Begin(id) {
		log.Warn("record was already completed in this run, a second purchase order will be created")
	}

	req, err := FromRecord(record, w.defaults)
	if err != nil {
		return w.fail(log, out, err)
	}
	out.Lines = len(req.Lines)

	if len(req.Lines) == 0 {
		log.Warn("no line items found, skipping")
		out.Stage = StageSkipped
		w.tracker.Record(out)
		return out, nil
	}

	// Create the order header
	w.advance(out, StageCreating)
	log.Info("creating purchase order",
		slog.String("supplier", req.SupplierCode),
		slog.String("warehouse", req.WarehouseCode))

	createReq, err := envelope.BuildCreateOrder(w.securityCode, req.SupplierCode, req.Reference, req.WarehouseCode)
	if err != nil {
		return w.fail(log, out, fmt.Errorf("building %s envelope: %w", envelope.OpAddOrderedPurchase, err))
	}
	createResp, err := w.sender.Send(ctx, envelope.OpAddOrderedPurchase, createReq)
	if err != nil {
		return w.fail(log, out, err)
	}

	number, ok := response.ExtractOrderNumber(createResp)
	if !ok {
		return w.fail(log, out, &ExtractionError{Operation: envelope.OpAddOrderedPurchase, Body: createResp})
	}
	out.OrderNumber = number
	w.advance(out, StageCreated)
	log = log.With(slog.String("order_number", number))
	log.Info("created purchase order")

	// Attach the lines
	w.advance(out, StageAttachingLines)
	expected := w.normalizer.Normalize(req.ExpectedDate)
	log.Info("adding line items", slog.Int("lines", len(req.Lines)), slog.String("expected_date", expected.Value))

	attachReq, err := envelope.BuildAttachLines(w.securityCode, number, req.Lines, expected.Value)
	if err != nil {
		return w.fail(log, out, fmt.Errorf("building %s envelope: %w", envelope.OpChangePurchase2, err))
	}
	attachResp, err := w.sender.Send(ctx, envelope.OpChangePurchase2, attachReq)
	if err != nil {
		return w.fail(log, out, err)
	}
	w.logResult(log, attachResp)

	out.Stage = StageCompleted
	w.tracker.Record(out)
	log.Info("processed purchase order", slog.Int("lines", len(req.Lines)))

	return out, nil
}

// ProcessBatch processes records in order and stops at the first failure
func (w *Workflow) ProcessBatch(ctx context.Context, records []Record) error {
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := w.Process(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workflow) advance(out *Outcome, stage Stage) {
	out.Stage = stage
	// Begin was called for this id, Advance cannot fail
	_ = w.tracker.Advance(out.RecordID, stage)
}

func (w *Workflow) fail(log *slog.Logger, out *Outcome, err error) (*Outcome, error) {
	recErr := &RecordError{RecordID: out.RecordID, Stage: out.Stage, Err: err}

	attrs := []any{
		slog.String("stage", out.Stage.String()),
		slog.String("error", err.Error()),
	}
	var extractErr *ExtractionError
	if errors.As(err, &extractErr) {
		attrs = append(attrs, slog.String("response", extractErr.Response()))
	}
	log.Error("error processing record", attrs...)

	out.FailedStage = out.Stage
	out.Stage = StageFailed
	out.Err = recErr
	w.tracker.Record(out)

	return out, recErr
}

// logResult logs the answer payload of a ChangePurchase2 response. The
// service signals success through the HTTP status; the payload is informative.
func (w *Workflow) logResult(log *slog.Logger, data []byte) {
	doc, err := response.Parse(data)
	if err != nil {
		log.Warn("unparseable ChangePurchase2 response", slog.String("error", err.Error()))
		return
	}
	if result, ok := doc.Result(); ok {
		log.Debug("ChangePurchase2 result", slog.String("element", result.Tag), slog.String("text", result.Text()))
	}
}
