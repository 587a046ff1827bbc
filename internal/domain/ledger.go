package domain

import "gorm.io/gorm" // Hooks guarding immutability

// EntryType tags a ledger entry
type EntryType string

// Ledger entry variants
const (
	EntryFreeUnlock        EntryType = "free_unlock"        // Informational, amount 0
	EntryPaidUnlock        EntryType = "paid_unlock"        // Gold debit for a race
	EntryPurchase          EntryType = "purchase"           // Approved top-up credit
	EntryRefund            EntryType = "refund"             // Credit reversing a paid unlock
	EntryBonus             EntryType = "bonus"              // Promotional credit
	EntryHandicapperPayout EntryType = "handicapper_payout" // Settlement to a producer
	EntryPlatformFee       EntryType = "platform_fee"       // Platform side of a settlement
)

// Valid reports whether t is a known entry type
func (t EntryType) Valid() bool {
	switch t {
	case EntryFreeUnlock, EntryPaidUnlock, EntryPurchase, EntryRefund, EntryBonus,
		EntryHandicapperPayout, EntryPlatformFee:
		return true
	}
	return false
}

// IsCredit reports whether entries of this type increase a balance
func (t EntryType) IsCredit() bool {
	return t == EntryPurchase || t == EntryRefund || t == EntryBonus || t == EntryHandicapperPayout
}

// RevenueShare annotates a paid unlock with its producer/platform split
type RevenueShare struct {
	HandicapperID     string `json:"handicapper_id"`
	HandicapperPct    uint8  `json:"handicapper_pct"`
	PlatformPct       uint8  `json:"platform_pct"`
	HandicapperAmount uint64 `json:"handicapper_amount"`
	PlatformAmount    uint64 `json:"platform_amount"`
}

// LedgerEntry Model: an immutable record of one balance-affecting event
type LedgerEntry struct {
	ID             uint64        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         string        `gorm:"size:36;not null;index:idx_ledger_user_created,priority:1" json:"user_id"`
	Type           EntryType     `gorm:"size:32;not null;index:idx_ledger_type_created,priority:1" json:"type"`
	Currency       Currency      `gorm:"size:16;not null" json:"currency"`
	Amount         int64         `gorm:"not null" json:"amount"`        // Signed change applied to the balance
	BalanceAfter   uint64        `gorm:"not null" json:"balance_after"` // Snapshot after the change
	Description    string        `gorm:"size:255" json:"description"`
	RaceID         *string       `gorm:"size:36" json:"race_id,omitempty"`
	ForecastID     *string       `gorm:"size:36" json:"forecast_id,omitempty"`
	RelatedTxID    *uint64       `gorm:"index" json:"related_tx_id,omitempty"`
	RevenueShare   *RevenueShare `gorm:"type:text;serializer:json" json:"revenue_share,omitempty"`
	IdempotencyKey *string       `gorm:"size:191;uniqueIndex" json:"-"` // One entry per grant, refund or credit reference
	CreatedAt      int64         `gorm:"autoCreateTime:milli;index:idx_ledger_user_created,priority:2;index:idx_ledger_type_created,priority:2" json:"created_at"`
}

// BeforeUpdate refuses any update; corrections are new entries
func (e *LedgerEntry) BeforeUpdate(*gorm.DB) error {
	return E(KindInvariant, "ledger.update", "ledger entries are append-only")
}

// BeforeDelete refuses any delete
func (e *LedgerEntry) BeforeDelete(*gorm.DB) error {
	return E(KindInvariant, "ledger.delete", "ledger entries are append-only")
}

// Consistent checks balanceAfter == balanceBefore + amount
func (e *LedgerEntry) Consistent(balanceBefore uint64) bool {
	return int64(balanceBefore)+e.Amount == int64(e.BalanceAfter)
}

// UnlockKey is the idempotency key of the single grant entry of a race unlock
func UnlockKey(userID, meetingID, raceID string) string {
	return "unlock:" + userID + ":" + meetingID + ":" + raceID
}

// RefundKey is the idempotency key of the single refund of an entry
func RefundKey(entryID string) string {
	return "refund:" + entryID
}

// CreditKey is the idempotency key of a credit carrying an external reference
func CreditKey(userID, reference string) string {
	return "credit:" + userID + ":" + reference
}
