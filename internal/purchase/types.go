package purchase

import (
	"github.com/sirosfoundation/target-sherpaan/pkg/envelope"
)

// Stage is a step of the purchase order transaction
type Stage int

const (
	StageValidating     Stage = iota // record is being mapped to a request
	StageCreating                    // AddOrderedPurchase in flight
	StageCreated                     // order number known
	StageAttachingLines              // ChangePurchase2 in flight
	StageCompleted                   // both calls succeeded
	StageSkipped                     // well-formed record without lines
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageValidating:
		return "validating"
	case StageCreating:
		return "creating"
	case StageCreated:
		return "created"
	case StageAttachingLines:
		return "attaching_lines"
	case StageCompleted:
		return "completed"
	case StageSkipped:
		return "skipped"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Record is a decoded Singer record
type Record map[string]any

// Defaults holds configured fallbacks for record fields
type Defaults struct {
	WarehouseCode string
}

// Request is a validated purchase order ready to be sent
type Request struct {
	SupplierCode  string
	Reference     string
	WarehouseCode string
	Lines         []envelope.Line
	ExpectedDate  string // raw created_at, may be empty
}

// Outcome describes how far a record got
type Outcome struct {
	RecordID    string
	Stage       Stage
	FailedStage Stage // set when Stage is StageFailed
	OrderNumber string
	Lines       int
	Err         error
}
