// Package access decides whether a user may see a race's forecasts and, when
// the free quota is spent, charges gold for it exactly once.
//
// Every state change runs as one store transaction whose first write is the
// insert-if-absent of the (user, race) unlock row. Of any number of
// concurrent requests for the same race only one insert succeeds; the others
// observe the existing row and answer already_unlocked. A denial or any
// failure rolls the claim back together with the debit and the ledger entry.
package access

import (
	"context" // Request scoped context
	"errors"  // Error inspection
	"fmt"     // Descriptions
	"time"    // Latency measurement

	"github.com/sirupsen/logrus" // Structured logging

	"race_access/internal/domain"  // Domain models
	"race_access/internal/metrics" // Prometheus metrics
	"race_access/internal/store"   // Data access
	"race_access/internal/utils"   // Read cache
)

// Reason explains an access decision
type Reason string

// Access decision reasons
const (
	ReasonAlreadyUnlocked  Reason = "already_unlocked"
	ReasonFreeQuota        Reason = "free_quota"
	ReasonGoldSpent        Reason = "gold_spent"
	ReasonInsufficientGold Reason = "insufficient_gold"
)

// Result of an access request
type Result struct {
	Granted        bool                `json:"granted"`
	Reason         Reason              `json:"reason"`
	GoldRequired   *uint64             `json:"goldRequired,omitempty"`
	CurrentBalance *uint64             `json:"currentBalance,omitempty"`
	Entry          *domain.LedgerEntry `json:"-"` // Ledger entry written by this call, nil otherwise
}

// AlreadyUnlocked reports whether the race had been unlocked before this call
func (r Result) AlreadyUnlocked() bool {
	return r.Reason == ReasonAlreadyUnlocked
}

// Options tunes the gate
type Options struct {
	FreeRacesPerMeeting    uint   // Free unlocks per (user, meeting)
	GoldCostPerRace        uint64 // Gold debited per paid unlock
	DefaultRevenueSharePct uint8  // Producer share when the profile has none
	MaxAttempts            int    // Attempts on optimistic conflicts
}

// DefaultOptions returns the production defaults
func DefaultOptions() Options {
	return Options{
		FreeRacesPerMeeting:    2,
		GoldCostPerRace:        1,
		DefaultRevenueSharePct: domain.DefaultRevenueSharePct,
		MaxAttempts:            3,
	}
}

// Gate orchestrates the quota tracker, the wallet and the ledger
type Gate struct {
	store   *store.Store
	opts    Options
	cache   *utils.Cache
	metrics *metrics.Recorder
}

// NewGate wires a gate; cache and rec may be nil
func NewGate(st *store.Store, opts Options, cache *utils.Cache, rec *metrics.Recorder) *Gate {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.GoldCostPerRace == 0 {
		opts.GoldCostPerRace = 1
	}
	return &Gate{store: st, opts: opts, cache: cache, metrics: rec}
}

// target is a validated (user, meeting, race) triple with its attribution
type target struct {
	userID   string
	meeting  *domain.Meeting
	race     *domain.Race
	forecast *domain.Forecast
	producer *domain.HandicapperProfile
}

// RequestAccess answers whether userID may see the forecasts of raceID in
// meetingID, unlocking it through the free quota or gold when needed.
// A denial for lack of gold is a normal result, not an error.
func (g *Gate) RequestAccess(ctx context.Context, userID, meetingID, raceID string) (Result, error) {
	start := time.Now()
	res, err := g.requestAccess(ctx, userID, meetingID, raceID)
	outcome := string(res.Reason)
	if err != nil {
		outcome = "error_" + string(domain.KindOf(err))
	}
	g.metrics.Access(outcome, time.Since(start))
	return res, err
}

func (g *Gate) requestAccess(ctx context.Context, userID, meetingID, raceID string) (Result, error) {
	t, err := g.resolve(ctx, userID, meetingID, raceID)
	if err != nil {
		return Result{}, err
	}
	fields := logrus.Fields{"user_id": userID, "meeting_id": meetingID, "race_id": raceID}

	var res Result
	err = g.withRetry(ctx, "access.request", func() error {
		var err error
		res, err = g.unlock(ctx, t)
		return err
	})
	if err != nil {
		logrus.WithFields(fields).WithField("error", err.Error()).Error("Access request failed")
		return Result{}, err
	}

	switch res.Reason {
	case ReasonInsufficientGold:
		logrus.WithFields(fields).WithFields(logrus.Fields{
			"gold_required":   *res.GoldRequired,
			"current_balance": *res.CurrentBalance,
		}).Info("Access denied")
	case ReasonFreeQuota, ReasonGoldSpent:
		g.metrics.LedgerEntry(string(res.Entry.Type))
		g.invalidate(ctx, userID)
		logrus.WithFields(fields).WithFields(logrus.Fields{
			"reason":          res.Reason,
			"amount":          res.Entry.Amount,
			"balance_after":   res.Entry.BalanceAfter,
			"ledger_entry_id": res.Entry.ID,
		}).Info("Race unlocked")
	}
	return res, nil
}

// resolve validates the identifiers; anything that does not resolve is a validation error
func (g *Gate) resolve(ctx context.Context, userID, meetingID, raceID string) (*target, error) {
	if userID == "" || meetingID == "" || raceID == "" {
		return nil, domain.E(domain.KindValidation, "access.request", "user, meeting and race ids are required")
	}
	if _, err := g.store.User(ctx, userID); err != nil {
		return nil, asValidation(err, "unknown user "+userID)
	}
	meeting, err := g.store.Meeting(ctx, meetingID)
	if err != nil {
		return nil, asValidation(err, "unknown meeting "+meetingID)
	}
	race, err := g.store.Race(ctx, raceID)
	if err != nil {
		return nil, asValidation(err, "unknown race "+raceID)
	}
	if race.MeetingID != meeting.ID {
		return nil, domain.E(domain.KindValidation, "access.request", "race "+raceID+" is not part of meeting "+meetingID)
	}
	forecast, producer, err := g.store.ForecastForRace(ctx, raceID)
	if err != nil {
		return nil, err
	}
	return &target{userID: userID, meeting: meeting, race: race, forecast: forecast, producer: producer}, nil
}

// unlock performs one attempt of the state transition
func (g *Gate) unlock(ctx context.Context, t *target) (Result, error) {
	// Read-only short-circuit; the claim below is what makes it safe
	unlocked, err := g.store.IsUnlocked(ctx, t.userID, t.race.ID)
	if err != nil {
		return Result{}, err
	}
	if unlocked {
		return Result{Granted: true, Reason: ReasonAlreadyUnlocked}, nil
	}

	var res Result
	err = g.store.Tx(ctx, func(tx *store.Store) error {
		// Quota row first so the free claim below has something to lock
		if err := tx.EnsureConsumption(ctx, t.userID, t.meeting.ID); err != nil {
			return err
		}
		// Insert-if-absent on (user, race) serializes duplicate requests
		claimed, err := tx.ClaimRace(ctx, t.userID, t.meeting.ID, t.race.ID)
		if err != nil {
			return err
		}
		if !claimed {
			res = Result{Granted: true, Reason: ReasonAlreadyUnlocked} // Lost the race to a concurrent call
			return nil
		}

		// Conditional increment, false once the meeting cap is reached
		free, err := tx.TryClaimFree(ctx, t.userID, t.meeting.ID, g.opts.FreeRacesPerMeeting)
		if err != nil {
			return err
		}
		if free {
			wallet, err := tx.Wallet(ctx, t.userID)
			if err != nil {
				return err
			}
			entry := g.grantEntry(t, domain.EntryFreeUnlock, 0, wallet.Golds)
			entry.Description = fmt.Sprintf("Race %d unlocked with free quota", t.race.Number)
			if err := appendGrant(ctx, tx, entry); err != nil {
				return err
			}
			res = Result{Granted: true, Reason: ReasonFreeQuota, Entry: entry}
			return nil
		}

		// Paid path: compare-and-set debit, a stale balance comes back as a conflict
		cost := g.opts.GoldCostPerRace
		balance, err := tx.Debit(ctx, t.userID, domain.Gold, cost)
		if errors.Is(err, domain.ErrInsufficientFunds) {
			res = Result{Granted: false, Reason: ReasonInsufficientGold, GoldRequired: &cost, CurrentBalance: &balance}
			return err // Roll back the claim
		}
		if err != nil {
			return err
		}
		entry := g.grantEntry(t, domain.EntryPaidUnlock, -int64(cost), balance)
		entry.Description = fmt.Sprintf("Race %d unlocked for %d gold", t.race.Number, cost)
		if t.producer.EarnsRevenue() {
			pct := t.producer.RevenueSharePct
			if pct == 0 {
				pct = g.opts.DefaultRevenueSharePct
			}
			share := domain.SplitRevenue(cost, t.producer.ID, pct)
			entry.RevenueShare = &share
		}
		if err := appendGrant(ctx, tx, entry); err != nil {
			return err // Rolls back the debit and the claim
		}
		res = Result{Granted: true, Reason: ReasonGoldSpent, Entry: entry}
		return nil
	})
	if errors.Is(err, domain.ErrInsufficientFunds) && res.Reason == ReasonInsufficientGold {
		return res, nil // Denied, not failed
	}
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// grantEntry builds the single ledger entry of an unlock
func (g *Gate) grantEntry(t *target, typ domain.EntryType, amount int64, balanceAfter uint64) *domain.LedgerEntry {
	key := domain.UnlockKey(t.userID, t.meeting.ID, t.race.ID)
	raceID := t.race.ID
	entry := &domain.LedgerEntry{
		UserID:         t.userID,
		Type:           typ,
		Currency:       domain.Gold,
		Amount:         amount,
		BalanceAfter:   balanceAfter,
		RaceID:         &raceID,
		IdempotencyKey: &key,
	}
	if t.forecast != nil {
		forecastID := t.forecast.ID
		entry.ForecastID = &forecastID
	}
	return entry
}

// appendGrant writes a grant entry; a second entry for the same grant aborts the transaction
func appendGrant(ctx context.Context, tx *store.Store, entry *domain.LedgerEntry) error {
	inserted, err := tx.AppendEntry(ctx, entry)
	if err != nil {
		return err
	}
	if !inserted {
		return domain.E(domain.KindInvariant, "access.unlock", "ledger already holds an entry for "+*entry.IdempotencyKey)
	}
	return nil
}

// Status is the quota view of one (user, meeting)
type Status struct {
	MeetingID       string   `json:"meetingId"`
	FreeUsed        uint     `json:"freeUsed"`
	FreeRemaining   uint     `json:"freeRemaining"`
	UnlockedRaceIDs []string `json:"unlockedRaceIds"`
}

// Status reports the free quota use and unlocked races of userID for meetingID
func (g *Gate) Status(ctx context.Context, userID, meetingID string) (Status, error) {
	if _, err := g.store.User(ctx, userID); err != nil {
		return Status{}, asValidation(err, "unknown user "+userID)
	}
	if _, err := g.store.Meeting(ctx, meetingID); err != nil {
		return Status{}, asValidation(err, "unknown meeting "+meetingID)
	}
	mc, err := g.store.Consumption(ctx, userID, meetingID)
	if err != nil {
		return Status{}, err
	}
	ids := mc.UnlockedRaceIDs
	if ids == nil {
		ids = []string{}
	}
	return Status{
		MeetingID:       meetingID,
		FreeUsed:        mc.FreeUsed,
		FreeRemaining:   mc.FreeRemaining(g.opts.FreeRacesPerMeeting),
		UnlockedRaceIDs: ids,
	}, nil
}

// IsUnlocked reports whether userID may already see raceID
func (g *Gate) IsUnlocked(ctx context.Context, userID, raceID string) (bool, error) {
	return g.store.IsUnlocked(ctx, userID, raceID)
}

// withRetry repeats fn on optimistic conflicts; a conflict that outlives
// every attempt surfaces as transient so the caller retries the whole call
func (g *Gate) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= g.opts.MaxAttempts; attempt++ {
		err = fn()
		if domain.KindOf(err) != domain.KindConflict {
			return err
		}
		g.metrics.Conflict()
		logrus.WithFields(logrus.Fields{"op": op, "attempt": attempt, "error": err.Error()}).Warn("Concurrent update, retrying")
		if ctx.Err() != nil {
			break
		}
	}
	return domain.Wrap(domain.KindTransient, op, err)
}

// invalidate drops cached views after a committed change
func (g *Gate) invalidate(ctx context.Context, userID string) {
	if err := g.cache.InvalidateUser(ctx, userID); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Cache invalidation failed")
	}
}

// asValidation turns a missing entity into a validation error
func asValidation(err error, msg string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.Error{Kind: domain.KindValidation, Op: "access.request", Msg: msg, Err: err}
	}
	return err
}
