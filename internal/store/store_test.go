package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"race_access/internal/config"
	"race_access/internal/db"
	"race_access/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	conn, err := db.Open(&config.Config{DBDriver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "store.db")})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	return New(conn, time.Second)
}

func seedUser(t *testing.T, s *Store, golds uint64) string {
	t.Helper()
	u := domain.User{ID: uuid.NewString(), Username: uuid.NewString(), Password: "x", Wallet: domain.Wallet{Golds: golds}}
	require.NoError(t, s.DB().Create(&u).Error)
	return u.ID
}

func TestInsertIfAbsent_SecondInsertIsNoop(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.ClaimRace(ctx, "u1", "m1", "r1")
	require.NoError(t, err)
	second, err := s.ClaimRace(ctx, "u1", "m1", "r1")
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
	unlocked, err := s.IsUnlocked(ctx, "u1", "r1")
	require.NoError(t, err)
	assert.True(t, unlocked)
}

func TestTryClaimFree_StopsAtCapacity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.EnsureConsumption(ctx, "u1", "m1"))
	require.NoError(t, s.EnsureConsumption(ctx, "u1", "m1"))

	var claimed int
	for i := 0; i < 5; i++ {
		ok, err := s.TryClaimFree(ctx, "u1", "m1", 2)
		require.NoError(t, err)
		if ok {
			claimed++
		}
	}

	assert.Equal(t, 2, claimed)
	mc, err := s.Consumption(ctx, "u1", "m1")
	require.NoError(t, err)
	assert.Equal(t, uint(2), mc.FreeUsed)
}

func TestConsumption_ZeroWhenNeverRequested(t *testing.T) {
	s := newTestStore(t)

	mc, err := s.Consumption(context.Background(), "u1", "m1")

	require.NoError(t, err)
	assert.Equal(t, uint(0), mc.FreeUsed)
	assert.Empty(t, mc.UnlockedRaceIDs)
}

func TestWallet_DebitAndCredit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := seedUser(t, s, 3)

	bal, err := s.Debit(ctx, user, domain.Gold, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), bal)

	bal, err = s.Debit(ctx, user, domain.Gold, 2)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, uint64(1), bal)

	bal, err = s.Credit(ctx, user, domain.Diamond, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), bal)

	w, err := s.Wallet(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, domain.Wallet{Golds: 1, Diamonds: 4}, w)

	_, err = s.Wallet(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCompareAndSet_DetectsConcurrentChange(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := seedUser(t, s, 5)

	err := s.compareAndSet(ctx, user, domain.Gold, 4, 3)

	assert.ErrorIs(t, err, domain.ErrConflict)
	w, err := s.Wallet(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), w.Golds)
}

func TestTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := seedUser(t, s, 5)

	err := s.Tx(ctx, func(tx *Store) error {
		if _, err := tx.Debit(ctx, user, domain.Gold, 5); err != nil {
			return err
		}
		if _, err := tx.ClaimRace(ctx, user, "m1", "r1"); err != nil {
			return err
		}
		return domain.E(domain.KindInvariant, "test", "abort")
	})

	assert.ErrorIs(t, err, domain.ErrInvariant)
	w, err := s.Wallet(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), w.Golds)
	unlocked, err := s.IsUnlocked(ctx, user, "r1")
	require.NoError(t, err)
	assert.False(t, unlocked)
}

func TestTx_Timeout(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Tx(ctx, func(tx *Store) error {
		_, err := tx.Wallet(ctx, "u1")
		return err
	})

	assert.ErrorIs(t, err, domain.ErrTransient)
}

func TestAppendEntry_KeyIsUnique(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	key := domain.UnlockKey("u1", "m1", "r1")

	inserted, err := s.AppendEntry(ctx, &domain.LedgerEntry{UserID: "u1", Type: domain.EntryFreeUnlock, Currency: domain.Gold, IdempotencyKey: &key})
	require.NoError(t, err)
	assert.True(t, inserted)
	inserted, err = s.AppendEntry(ctx, &domain.LedgerEntry{UserID: "u1", Type: domain.EntryFreeUnlock, Currency: domain.Gold, IdempotencyKey: &key})
	require.NoError(t, err)
	assert.False(t, inserted)

	e, err := s.EntryByKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "u1", e.UserID)

	_, err = s.AppendEntry(ctx, &domain.LedgerEntry{UserID: "u1", Type: "chargeback", Currency: domain.Gold})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = s.AppendEntry(ctx, &domain.LedgerEntry{UserID: "u1", Type: domain.EntryPaidUnlock, Currency: domain.Gold, Amount: 1})
	assert.ErrorIs(t, err, domain.ErrInvariant)
}

func TestLedger_EntriesAreImmutable(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	e := &domain.LedgerEntry{UserID: "u1", Type: domain.EntryBonus, Currency: domain.Gold, Amount: 5, BalanceAfter: 5}
	_, err := s.AppendEntry(ctx, e)
	require.NoError(t, err)

	e.Amount = 50
	assert.Error(t, s.DB().Save(e).Error)
	assert.Error(t, s.DB().Delete(e).Error)

	stored, err := s.EntryByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stored.Amount)
}

func TestListEntries_FiltersAndPages(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for i := 0; i < 5; i++ {
		_, err := s.AppendEntry(ctx, &domain.LedgerEntry{UserID: "u1", Type: domain.EntryBonus, Currency: domain.Gold, Amount: int64(i + 1)})
		require.NoError(t, err)
	}
	_, err := s.AppendEntry(ctx, &domain.LedgerEntry{UserID: "u2", Type: domain.EntryPurchase, Currency: domain.Gold, Amount: 9})
	require.NoError(t, err)

	page, total, err := s.ListEntries(ctx, LedgerFilter{UserID: "u1"}, Page{Number: 2, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, int64(3), page[0].Amount)
	assert.Equal(t, int64(2), page[1].Amount)

	page, total, err = s.ListEntries(ctx, LedgerFilter{Type: domain.EntryPurchase}, Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "u2", page[0].UserID)

	page, _, err = s.ListEntries(ctx, LedgerFilter{UserID: "nobody"}, Page{})
	require.NoError(t, err)
	assert.NotNil(t, page)
	assert.Empty(t, page)
}

func TestForecastForRace(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	f, p, err := s.ForecastForRace(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.Nil(t, p)

	profile := domain.HandicapperProfile{ID: uuid.NewString(), DisplayName: "Sharp", RevenueSharePct: 60}
	require.NoError(t, s.DB().Create(&profile).Error)
	require.NoError(t, s.DB().Create(&domain.Forecast{ID: "f1", RaceID: "r1", HandicapperID: profile.ID}).Error)

	f, p, err = s.ForecastForRace(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "f1", f.ID)
	assert.Equal(t, uint8(60), p.RevenueSharePct)
}
