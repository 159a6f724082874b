package admission

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/ruteri/ra-quote-explorer/interfaces"
)

const (
	requestKeyPrefix = "requests:"
	errorKeyPrefix   = "errors:"
	blockKeyPrefix   = "blocked:"
)

// Outcome is the admission decision for a single submission.
type Outcome int

const (
	// OutcomeAdmit lets the submission proceed to validation.
	OutcomeAdmit Outcome = iota

	// OutcomeRateLimited rejects a submission over the request window limit.
	OutcomeRateLimited

	// OutcomeBlocked rejects every submission from a client that accumulated
	// too many validation errors.
	OutcomeBlocked
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAdmit:
		return "admit"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// RateLimit is the state of a client's request window after accounting
// for the current submission.
type RateLimit struct {
	Limit     int
	Count     int64
	Remaining int
	Reset     time.Duration
}

// ResetSeconds rounds Reset up to whole seconds.
func (r RateLimit) ResetSeconds() int {
	return int(math.Ceil(r.Reset.Seconds()))
}

type Decision struct {
	Outcome Outcome

	// RateLimit is unset for OutcomeBlocked, which is decided before
	// any request accounting.
	RateLimit RateLimit

	BlockedUntil time.Time
}

type ErrorTally struct {
	Count             int64
	RemainingAttempts int
	Blocked           bool
}

// Gate decides whether a client's submission may proceed. All state lives in
// the ledger; the gate itself holds nothing between requests.
type Gate struct {
	ledger interfaces.Ledger
	limits Limits
	log    *slog.Logger
	now    func() time.Time
}

func NewGate(ledger interfaces.Ledger, limits Limits, log *slog.Logger) *Gate {
	return &Gate{
		ledger: ledger,
		limits: limits,
		log:    log,
		now:    time.Now,
	}
}

// WithClock replaces the time source used for block timestamps.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

func (g *Gate) Limits() Limits {
	return g.limits
}

// Admit runs the block check and then the request accounting for id.
// A blocked client never consumes a request slot. A rate limited submission
// stays counted, so retrying inside the window cannot evade the limit.
func (g *Gate) Admit(ctx context.Context, id ClientIdentity) (Decision, error) {
	blockedUntil, blocked, err := g.blockedUntil(ctx, id)
	if err != nil {
		return Decision{}, err
	}
	if blocked {
		return Decision{Outcome: OutcomeBlocked, BlockedUntil: blockedUntil}, nil
	}

	key := requestKeyPrefix + id.String()
	count, err := g.ledger.IncrementWithExpiry(ctx, key, g.limits.RequestWindow)
	if err != nil {
		return Decision{}, fmt.Errorf("could not count request: %w", err)
	}

	ttl, err := g.ledger.TTL(ctx, key)
	if err != nil {
		return Decision{}, fmt.Errorf("could not read request window: %w", err)
	}
	if ttl <= 0 {
		ttl = g.limits.RequestWindow
	}

	rateLimit := RateLimit{
		Limit:     g.limits.MaxRequestsPerWindow,
		Count:     count,
		Remaining: remaining(g.limits.MaxRequestsPerWindow, count),
		Reset:     ttl,
	}

	if count > int64(g.limits.MaxRequestsPerWindow) {
		return Decision{Outcome: OutcomeRateLimited, RateLimit: rateLimit}, nil
	}

	return Decision{Outcome: OutcomeAdmit, RateLimit: rateLimit}, nil
}

// RecordError counts a failed validation for id. Reaching MaxErrors within
// ErrorWindow writes a block record that expires after BlockDuration.
func (g *Gate) RecordError(ctx context.Context, id ClientIdentity) (ErrorTally, error) {
	count, err := g.ledger.IncrementWithExpiry(ctx, errorKeyPrefix+id.String(), g.limits.ErrorWindow)
	if err != nil {
		return ErrorTally{}, fmt.Errorf("could not count validation error: %w", err)
	}

	tally := ErrorTally{
		Count:             count,
		RemainingAttempts: remaining(g.limits.MaxErrors, count),
	}

	if count >= int64(g.limits.MaxErrors) {
		until := g.now().Add(g.limits.BlockDuration)
		err := g.ledger.SetWithExpiry(ctx, blockKeyPrefix+id.String(), strconv.FormatInt(until.UnixMilli(), 10), g.limits.BlockDuration)
		if err != nil {
			return ErrorTally{}, fmt.Errorf("could not write block record: %w", err)
		}
		tally.Blocked = true
		g.log.Info("Client blocked after repeated validation errors", "client", id.String(), "errors", count, "until", until)
	}

	return tally, nil
}

func (g *Gate) blockedUntil(ctx context.Context, id ClientIdentity) (time.Time, bool, error) {
	value, found, err := g.ledger.Get(ctx, blockKeyPrefix+id.String())
	if err != nil {
		return time.Time{}, false, fmt.Errorf("could not read block record: %w", err)
	}
	if !found {
		return time.Time{}, false, nil
	}

	untilMillis, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		g.log.Warn("Ignoring malformed block record", "client", id.String(), "value", value)
		return time.Time{}, false, nil
	}

	until := time.UnixMilli(untilMillis)
	return until, g.now().Before(until), nil
}

func remaining(limit int, count int64) int {
	if left := int64(limit) - count; left > 0 {
		return int(left)
	}
	return 0
}
