package store

import (
	"context" // Request scoped context

	"race_access/internal/domain" // Domain models
)

// Wallet loads the wallet of userID
func (s *Store) Wallet(ctx context.Context, userID string) (domain.Wallet, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	var user domain.User
	if err := db.Select("id", "golds", "diamonds").Where("id = ?", userID).First(&user).Error; err != nil {
		return domain.Wallet{}, classify("store.wallet", err)
	}
	return user.Wallet, nil
}

// Debit subtracts amount from the currency balance of userID and returns the
// new balance. On InsufficientFunds the returned balance is the current one.
func (s *Store) Debit(ctx context.Context, userID string, c domain.Currency, amount uint64) (uint64, error) {
	w, err := s.Wallet(ctx, userID)
	if err != nil {
		return 0, err
	}
	prev := w.Balance(c)            // Read without a lock, checked again on write
	next, err := w.Debit(c, amount) // Enforces the non-negative invariant
	if err != nil {
		return next, err
	}
	if err := s.compareAndSet(ctx, userID, c, prev, next); err != nil {
		return 0, err
	}
	return next, nil
}

// Credit adds amount to the currency balance of userID and returns the new balance
func (s *Store) Credit(ctx context.Context, userID string, c domain.Currency, amount uint64) (uint64, error) {
	w, err := s.Wallet(ctx, userID)
	if err != nil {
		return 0, err
	}
	prev := w.Balance(c)
	next, err := w.Credit(c, amount) // Overflow is an invariant error
	if err != nil {
		return next, err
	}
	if err := s.compareAndSet(ctx, userID, c, prev, next); err != nil {
		return 0, err
	}
	return next, nil
}

// compareAndSet writes next only if the balance still equals prev; the
// previous balance is the optimistic concurrency token
func (s *Store) compareAndSet(ctx context.Context, userID string, c domain.Currency, prev, next uint64) error {
	db, cancel := s.conn(ctx)
	defer cancel()
	col := c.Column()
	res := db.Model(&domain.User{}).
		Where("id = ? AND "+col+" = ?", userID, prev).
		Update(col, next)
	if res.Error != nil {
		return classify("store.wallet_cas", res.Error) // Deadlocks surface as conflicts
	}
	// No row matched: the user is gone or someone wrote first
	if res.RowsAffected != 1 {
		return domain.E(domain.KindConflict, "store.wallet_cas", "balance changed concurrently")
	}
	return nil
}
