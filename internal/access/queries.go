package access

import (
	"context" // Request scoped context
	"fmt"     // Cache field names

	"github.com/sirupsen/logrus" // Structured logging

	"race_access/internal/domain" // Domain models
	"race_access/internal/store"  // Data access
	"race_access/internal/utils"  // Read cache
)

// WalletView is the balance view of a user
type WalletView struct {
	UserID   string `json:"userId"`
	Golds    uint64 `json:"golds"`
	Diamonds uint64 `json:"diamonds"`
}

// EntryPage is one page of ledger entries
type EntryPage struct {
	Entries []domain.LedgerEntry `json:"entries"`
	Total   int64                `json:"total"`
	Page    int                  `json:"page"`
	Size    int                  `json:"size"`
}

// Wallet returns the balances of userID, served from cache when possible
func (g *Gate) Wallet(ctx context.Context, userID string) (WalletView, error) {
	var view WalletView
	if found, err := g.cache.Get(ctx, utils.WalletKey(userID), &view); err == nil && found {
		return view, nil
	} else if err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Wallet cache read failed")
	}

	w, err := g.store.Wallet(ctx, userID)
	if err != nil {
		return WalletView{}, asValidation(err, "unknown user "+userID)
	}
	view = WalletView{UserID: userID, Golds: w.Golds, Diamonds: w.Diamonds}
	if err := g.cache.Set(ctx, utils.WalletKey(userID), view); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Wallet cache write failed")
	}
	return view, nil
}

// History returns one page of the ledger of userID, newest first
func (g *Gate) History(ctx context.Context, userID string, number, size int) (EntryPage, error) {
	p := normalizePage(number, size)
	field := fmt.Sprintf("page:%d:size:%d", p.Number, p.Size)
	var page EntryPage
	if found, err := g.cache.GetField(ctx, utils.HistoryKey(userID), field, &page); err == nil && found {
		return page, nil
	} else if err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("History cache read failed")
	}

	page, err := g.Entries(ctx, store.LedgerFilter{UserID: userID}, p.Number, p.Size)
	if err != nil {
		return EntryPage{}, err
	}
	if err := g.cache.SetField(ctx, utils.HistoryKey(userID), field, page); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("History cache write failed")
	}
	return page, nil
}

// Entries lists ledger entries across users, newest first
func (g *Gate) Entries(ctx context.Context, f store.LedgerFilter, number, size int) (EntryPage, error) {
	if f.Type != "" && !f.Type.Valid() {
		return EntryPage{}, domain.E(domain.KindValidation, "access.entries", "unknown entry type "+string(f.Type))
	}
	if f.From > 0 && f.To > 0 && f.From > f.To {
		return EntryPage{}, domain.E(domain.KindValidation, "access.entries", "from must not be after to")
	}
	p := normalizePage(number, size)
	entries, total, err := g.store.ListEntries(ctx, f, p)
	if err != nil {
		return EntryPage{}, err
	}
	return EntryPage{Entries: entries, Total: total, Page: p.Number, Size: p.Size}, nil
}

// Revenue reports the producer and platform shares of paid unlocks in [from, to]
func (g *Gate) Revenue(ctx context.Context, from, to int64) ([]store.HandicapperRevenue, error) {
	if from > 0 && to > 0 && from > to {
		return nil, domain.E(domain.KindValidation, "access.revenue", "from must not be after to")
	}
	return g.store.RevenueByHandicapper(ctx, from, to)
}

// normalizePage applies the store defaults so cache fields match stored pages
func normalizePage(number, size int) store.Page {
	if number < 1 {
		number = 1
	}
	if size < 1 || size > store.MaxPageSize {
		size = store.DefaultPageSize
	}
	return store.Page{Number: number, Size: size}
}
