package domain

// SplitRevenue divides a paid unlock between its producer and the platform.
// The producer amount is floored, so the platform keeps any remainder.
func SplitRevenue(amount uint64, handicapperID string, sharePct uint8) RevenueShare {
	if sharePct > 100 {
		sharePct = 100
	}
	pct := uint64(sharePct)
	handicapperAmount := amount/100*pct + amount%100*pct/100 // floor(amount*pct/100) without overflow
	return RevenueShare{
		HandicapperID:     handicapperID,
		HandicapperPct:    sharePct,
		PlatformPct:       100 - sharePct,
		HandicapperAmount: handicapperAmount,
		PlatformAmount:    amount - handicapperAmount,
	}
}
