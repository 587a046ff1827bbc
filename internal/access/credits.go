package access

import (
	"context" // Request scoped context
	"errors"  // Error inspection
	"strconv" // Entry ids in keys

	"github.com/sirupsen/logrus" // Structured logging

	"race_access/internal/domain" // Domain models
	"race_access/internal/store"  // Data access
)

// CreditInput describes a credit applied to a wallet after it was approved elsewhere
type CreditInput struct {
	UserID      string
	Currency    domain.Currency
	Amount      uint64
	Type        domain.EntryType // Purchase or Bonus
	Reference   string           // External reference; repeats are applied once
	Description string
}

// Credit adds currency to a wallet and appends the matching ledger entry in
// one transaction. It returns the entry and whether this call applied it; a
// repeated reference returns the original entry unapplied.
func (g *Gate) Credit(ctx context.Context, in CreditInput) (*domain.LedgerEntry, bool, error) {
	if in.Amount == 0 {
		return nil, false, domain.E(domain.KindValidation, "access.credit", "amount must be positive")
	}
	if in.Type != domain.EntryPurchase && in.Type != domain.EntryBonus {
		return nil, false, domain.E(domain.KindValidation, "access.credit", "credit type must be purchase or bonus")
	}
	if !in.Currency.Valid() {
		return nil, false, domain.E(domain.KindValidation, "access.credit", "unknown currency "+string(in.Currency))
	}
	if _, err := g.store.User(ctx, in.UserID); err != nil {
		return nil, false, asValidation(err, "unknown user "+in.UserID)
	}
	var key *string
	if in.Reference != "" {
		k := domain.CreditKey(in.UserID, in.Reference)
		key = &k
	}

	entry, applied, err := g.applyOnce(ctx, "access.credit", key, func(tx *store.Store) (*domain.LedgerEntry, error) {
		balance, err := tx.Credit(ctx, in.UserID, in.Currency, in.Amount)
		if err != nil {
			return nil, err
		}
		return &domain.LedgerEntry{
			UserID:         in.UserID,
			Type:           in.Type,
			Currency:       in.Currency,
			Amount:         int64(in.Amount),
			BalanceAfter:   balance,
			Description:    in.Description,
			IdempotencyKey: key,
		}, nil
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{"user_id": in.UserID, "amount": in.Amount, "error": err.Error()}).Error("Credit failed")
		return nil, false, err
	}
	if applied {
		g.metrics.LedgerEntry(string(entry.Type))
		g.invalidate(ctx, in.UserID)
		logrus.WithFields(logrus.Fields{
			"user_id":         in.UserID,
			"currency":        in.Currency,
			"amount":          in.Amount,
			"type":            in.Type,
			"balance_after":   entry.BalanceAfter,
			"ledger_entry_id": entry.ID,
		}).Info("Wallet credited")
	}
	return entry, applied, nil
}

// Refund credits back a paid unlock. The race stays unlocked. At most one
// refund exists per paid unlock; repeating returns the first one unapplied.
func (g *Gate) Refund(ctx context.Context, entryID uint64, reason string) (*domain.LedgerEntry, bool, error) {
	original, err := g.store.EntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, domain.E(domain.KindValidation, "access.refund", "unknown ledger entry")
		}
		return nil, false, err
	}
	if original.Type != domain.EntryPaidUnlock || original.Amount >= 0 {
		return nil, false, domain.E(domain.KindValidation, "access.refund", "only paid unlocks can be refunded")
	}
	key := domain.RefundKey(strconv.FormatUint(original.ID, 10))
	amount := uint64(-original.Amount)

	entry, applied, err := g.applyOnce(ctx, "access.refund", &key, func(tx *store.Store) (*domain.LedgerEntry, error) {
		balance, err := tx.Credit(ctx, original.UserID, original.Currency, amount)
		if err != nil {
			return nil, err
		}
		relatedID := original.ID
		return &domain.LedgerEntry{
			UserID:         original.UserID,
			Type:           domain.EntryRefund,
			Currency:       original.Currency,
			Amount:         int64(amount),
			BalanceAfter:   balance,
			Description:    reason,
			RaceID:         original.RaceID,
			ForecastID:     original.ForecastID,
			RelatedTxID:    &relatedID,
			IdempotencyKey: &key,
		}, nil
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{"ledger_entry_id": entryID, "error": err.Error()}).Error("Refund failed")
		return nil, false, err
	}
	if applied {
		g.metrics.LedgerEntry(string(entry.Type))
		g.invalidate(ctx, original.UserID)
		logrus.WithFields(logrus.Fields{
			"user_id":         original.UserID,
			"related_tx_id":   original.ID,
			"amount":          amount,
			"balance_after":   entry.BalanceAfter,
			"ledger_entry_id": entry.ID,
		}).Info("Paid unlock refunded")
	}
	return entry, applied, nil
}

// applyOnce runs build and appends its entry in one transaction. With a key,
// an entry already written under it is returned instead; losing a concurrent
// insert rolls the balance change back and retries into that lookup.
func (g *Gate) applyOnce(ctx context.Context, op string, key *string, build func(tx *store.Store) (*domain.LedgerEntry, error)) (*domain.LedgerEntry, bool, error) {
	var (
		entry   *domain.LedgerEntry
		applied bool
	)
	err := g.withRetry(ctx, op, func() error {
		entry, applied = nil, false // Reset between attempts
		// Replayed key: hand back the stored entry without touching balances
		if key != nil {
			existing, err := g.store.EntryByKey(ctx, *key)
			if err == nil {
				entry = existing
				return nil
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return err
			}
		}
		return g.store.Tx(ctx, func(tx *store.Store) error {
			// Balance change and its entry commit together or not at all
			e, err := build(tx)
			if err != nil {
				return err
			}
			inserted, err := tx.AppendEntry(ctx, e)
			if err != nil {
				return err
			}
			if !inserted {
				// Same key won by a concurrent call; the retry finds it above
				return domain.E(domain.KindConflict, op, "entry written concurrently")
			}
			entry, applied = e, true
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	return entry, applied, nil
}
