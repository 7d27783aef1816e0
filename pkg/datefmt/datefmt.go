// Package datefmt normalizes loosely formatted ISO-8601 timestamps into the
// fixed millisecond layout expected by the Sherpa service.
//
// Input may carry any number of fractional digits and a "Z" or "±HH:MM"
// offset. The fraction is truncated or padded to exactly three digits and
// the wall clock is kept as written; offsets are validated but not applied.
//
//	2025-11-28T09:15:00.123456Z      -> 2025-11-28T09:15:00.123
//	2025-11-28T09:15:00+02:00        -> 2025-11-28T09:15:00.000
//	2025-11-28                       -> 2025-11-28T00:00:00.000
//
// Absent or unparseable input falls back to now + 30 days.
package datefmt

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// Layout is the output layout required by the Sherpa service
const Layout = "2006-01-02T15:04:05.000"

// FallbackOffset is added to the current time when no usable date is given
const FallbackOffset = 30 * 24 * time.Hour

// ErrEmpty is returned by Parse for an absent date
var ErrEmpty = errors.New("date is empty")

var isoPattern = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2})(?:[T ](\d{2}:\d{2}(?::\d{2})?)(?:[.,](\d+))?)?(Z|[+-]\d{2}:?\d{2})?$`,
)

// Result is the outcome of a normalization
type Result struct {
	Value    string
	Fallback bool
	Err      error // cause of the fallback, nil otherwise
}

// Normalizer converts dates to Layout
type Normalizer struct {
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithClock sets the clock used for the fallback date
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		n.now = now
	}
}

// WithLogger sets the logger that receives fallback warnings
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// New creates a Normalizer
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize formats raw in Layout. It never fails: absent or invalid input
// yields the fallback date, flagged in the result and logged as a warning.
func (n *Normalizer) Normalize(raw string) Result {
	value, err := Parse(raw)
	if err == nil {
		return Result{Value: value}
	}

	fallback := n.now().Add(FallbackOffset).Format(Layout)
	if errors.Is(err, ErrEmpty) {
		n.logger.Warn("no expected date given, using default", slog.String("expected_date", fallback))
	} else {
		n.logger.Warn("failed to parse date, using default",
			slog.String("raw", raw),
			slog.String("expected_date", fallback),
			slog.String("error", err.Error()))
	}
	return Result{Value: fallback, Fallback: true, Err: err}
}

// Parse formats raw in Layout or reports why it cannot
func Parse(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmpty
	}

	m := isoPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", fmt.Errorf("unrecognized date %q", raw)
	}
	date, clock, fraction, offset := m[1], m[2], m[3], m[4]

	switch len(clock) {
	case 0:
		clock = "00:00:00"
	case 5:
		clock += ":00"
	}

	t, err := time.Parse("2006-01-02T15:04:05", date+"T"+clock)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", raw, err)
	}
	if err := checkOffset(offset); err != nil {
		return "", fmt.Errorf("invalid date %q: %w", raw, err)
	}

	if len(fraction) > 3 {
		fraction = fraction[:3]
	}
	fraction += strings.Repeat("0", 3-len(fraction))

	return t.Format("2006-01-02T15:04:05") + "." + fraction, nil
}

func checkOffset(offset string) error {
	if offset == "" || offset == "Z" {
		return nil
	}
	digits := strings.ReplaceAll(offset[1:], ":", "")
	if _, err := time.Parse("1504", digits); err != nil {
		return fmt.Errorf("bad offset %q", offset)
	}
	return nil
}
