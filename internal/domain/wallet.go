package domain

import "math" // Overflow bound for credits

// Currency names one of the wallet balances
type Currency string

// Supported currencies
const (
	Gold    Currency = "gold"    // Spendable currency used to unlock races
	Diamond Currency = "diamond" // Reserved, never consumed by access
)

// Valid reports whether c is a known currency
func (c Currency) Valid() bool {
	return c == Gold || c == Diamond
}

// Column returns the users table column holding this balance
func (c Currency) Column() string {
	if c == Diamond {
		return "diamonds"
	}
	return "golds"
}

// Wallet holds two independent non-negative balances; it is embedded in User
// and only ever changed through Debit and Credit
type Wallet struct {
	Golds    uint64 `gorm:"not null;default:0" json:"golds"`    // Gold balance
	Diamonds uint64 `gorm:"not null;default:0" json:"diamonds"` // Diamond balance
}

// Balance returns the balance for currency
func (w Wallet) Balance(c Currency) uint64 {
	if c == Diamond {
		return w.Diamonds
	}
	return w.Golds
}

// Debit subtracts amount and returns the new balance. The wallet is left
// unchanged when amount exceeds the balance.
func (w *Wallet) Debit(c Currency, amount uint64) (uint64, error) {
	if !c.Valid() {
		return 0, E(KindValidation, "wallet.debit", "unknown currency "+string(c))
	}
	bal := w.Balance(c)
	if amount > bal {
		return bal, E(KindInsufficientFunds, "wallet.debit", "amount exceeds balance")
	}
	w.set(c, bal-amount)
	return bal - amount, nil
}

// Credit adds amount and returns the new balance
func (w *Wallet) Credit(c Currency, amount uint64) (uint64, error) {
	if !c.Valid() {
		return 0, E(KindValidation, "wallet.credit", "unknown currency "+string(c))
	}
	bal := w.Balance(c)
	if amount > math.MaxInt64-bal {
		return bal, E(KindInvariant, "wallet.credit", "balance overflow")
	}
	w.set(c, bal+amount)
	return bal + amount, nil
}

func (w *Wallet) set(c Currency, v uint64) {
	if c == Diamond {
		w.Diamonds = v
		return
	}
	w.Golds = v
}
