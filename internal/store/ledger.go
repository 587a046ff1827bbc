package store

import (
	"context" // Request scoped context
	"sort"    // Stable report ordering

	"race_access/internal/domain" // Domain models
)

// Page size bounds
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page selects a window of a listing, 1-based
type Page struct {
	Number int
	Size   int
}

// normalize applies defaults and bounds
func (p Page) normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 || p.Size > MaxPageSize {
		p.Size = DefaultPageSize
	}
	return p
}

// LedgerFilter narrows a ledger listing; zero fields are ignored
type LedgerFilter struct {
	UserID string
	Type   domain.EntryType
	From   int64 // Inclusive, unix millis
	To     int64 // Inclusive, unix millis
}

// AppendEntry appends e to the ledger. When e carries an idempotency key
// that is already used nothing is written and false is returned.
func (s *Store) AppendEntry(ctx context.Context, e *domain.LedgerEntry) (bool, error) {
	if !e.Type.Valid() {
		return false, domain.E(domain.KindValidation, "store.append_entry", "unknown entry type "+string(e.Type))
	}
	if (e.Type.IsCredit() && e.Amount < 0) || (!e.Type.IsCredit() && e.Amount > 0) {
		return false, domain.E(domain.KindInvariant, "store.append_entry", "amount sign does not match "+string(e.Type))
	}
	if e.IdempotencyKey == nil {
		return true, s.Create(ctx, e) // Unkeyed entries always insert
	}
	return s.InsertIfAbsent(ctx, e) // Unique index on idempotency_key decides
}

// EntryByID loads one ledger entry
func (s *Store) EntryByID(ctx context.Context, id uint64) (*domain.LedgerEntry, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	var e domain.LedgerEntry
	if err := db.First(&e, id).Error; err != nil {
		return nil, classify("store.entry_by_id", err)
	}
	return &e, nil
}

// EntryByKey loads the entry written under an idempotency key
func (s *Store) EntryByKey(ctx context.Context, key string) (*domain.LedgerEntry, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	var e domain.LedgerEntry
	if err := db.Where("idempotency_key = ?", key).First(&e).Error; err != nil {
		return nil, classify("store.entry_by_key", err)
	}
	return &e, nil
}

// ListEntries returns one page of entries matching f, newest first, and the total count
func (s *Store) ListEntries(ctx context.Context, f LedgerFilter, p Page) ([]domain.LedgerEntry, int64, error) {
	p = p.normalize()
	db, cancel := s.conn(ctx)
	defer cancel()
	query := db.Model(&domain.LedgerEntry{})
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID) // Served by idx_ledger_user_created
	}
	if f.Type != "" {
		query = query.Where("type = ?", f.Type) // Served by idx_ledger_type_created
	}
	if f.From > 0 {
		query = query.Where("created_at >= ?", f.From)
	}
	if f.To > 0 {
		query = query.Where("created_at <= ?", f.To)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, classify("store.list_entries", err)
	}
	entries := []domain.LedgerEntry{}
	if err := query.Order("created_at desc, id desc").
		Offset((p.Number - 1) * p.Size).
		Limit(p.Size).
		Find(&entries).Error; err != nil {
		return nil, 0, classify("store.list_entries", err)
	}
	return entries, total, nil
}

// HandicapperRevenue aggregates the revenue annotations of paid unlocks
type HandicapperRevenue struct {
	HandicapperID     string `json:"handicapper_id"`
	Unlocks           int64  `json:"unlocks"`
	HandicapperAmount uint64 `json:"handicapper_amount"`
	PlatformAmount    uint64 `json:"platform_amount"`
}

// RevenueByHandicapper sums the revenue shares of paid unlocks created in
// [from, to]; refunded unlocks are netted out of their producer's totals
func (s *Store) RevenueByHandicapper(ctx context.Context, from, to int64) ([]HandicapperRevenue, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	query := db.Where("type = ?", domain.EntryPaidUnlock)
	if from > 0 {
		query = query.Where("created_at >= ?", from)
	}
	if to > 0 {
		query = query.Where("created_at <= ?", to)
	}
	var paid []domain.LedgerEntry
	if err := query.Find(&paid).Error; err != nil {
		return nil, classify("store.revenue", err)
	}
	ids := make([]uint64, 0, len(paid))
	for _, e := range paid {
		ids = append(ids, e.ID)
	}
	refunded := map[uint64]bool{}
	if len(ids) > 0 {
		var related []uint64
		if err := db.Model(&domain.LedgerEntry{}).
			Where("type = ? AND related_tx_id IN ?", domain.EntryRefund, ids).
			Pluck("related_tx_id", &related).Error; err != nil {
			return nil, classify("store.revenue", err)
		}
		for _, id := range related {
			refunded[id] = true
		}
	}
	totals := map[string]*HandicapperRevenue{}
	for _, e := range paid {
		if e.RevenueShare == nil || refunded[e.ID] {
			continue // Ghost producers and refunded unlocks earn nothing
		}
		r, ok := totals[e.RevenueShare.HandicapperID]
		if !ok {
			r = &HandicapperRevenue{HandicapperID: e.RevenueShare.HandicapperID}
			totals[r.HandicapperID] = r
		}
		r.Unlocks++
		r.HandicapperAmount += e.RevenueShare.HandicapperAmount
		r.PlatformAmount += e.RevenueShare.PlatformAmount
	}
	out := make([]HandicapperRevenue, 0, len(totals))
	for _, r := range totals {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HandicapperID < out[j].HandicapperID })
	return out, nil
}
