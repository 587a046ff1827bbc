package domain

// Meeting Model: one race day at one venue
type Meeting struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"` // Primary key (uuid)
	Venue     string `gorm:"size:128" json:"venue"`        // Racecourse
	Date      string `gorm:"size:10;index" json:"date"`    // YYYY-MM-DD
	CreatedAt int64  `gorm:"autoCreateTime:milli" json:"created_at"`
}

// Race Model
type Race struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`             // Primary key (uuid)
	MeetingID string `gorm:"size:36;index;not null" json:"meeting_id"` // Owning meeting
	Number    int    `json:"number"`                                   // Race number within the meeting
	Name      string `gorm:"size:128" json:"name"`
	CreatedAt int64  `gorm:"autoCreateTime:milli" json:"created_at"`
}

// Forecast Model: a producer's picks for one race
type Forecast struct {
	ID            string `gorm:"primaryKey;size:36" json:"id"`
	RaceID        string `gorm:"size:36;index;not null" json:"race_id"`
	HandicapperID string `gorm:"size:36;index;not null" json:"handicapper_id"`
	Body          string `gorm:"type:text" json:"body"`
	CreatedAt     int64  `gorm:"autoCreateTime:milli" json:"created_at"`
}

// DefaultRevenueSharePct is the producer share applied when a profile sets none
const DefaultRevenueSharePct = 70

// HandicapperProfile Model. Ghost profiles are imported producers with no
// account behind them; they never receive a revenue share.
type HandicapperProfile struct {
	ID              string  `gorm:"primaryKey;size:36" json:"id"`
	UserID          *string `gorm:"size:36;index" json:"user_id,omitempty"` // Linked account, nil for ghosts
	DisplayName     string  `gorm:"size:128" json:"display_name"`
	RevenueSharePct uint8   `gorm:"not null;default:70" json:"revenue_share_pct"`
	IsGhost         bool    `gorm:"not null;default:false" json:"is_ghost"`
}

// EarnsRevenue reports whether paid unlocks of this producer's forecasts are split
func (h *HandicapperProfile) EarnsRevenue() bool {
	return h != nil && !h.IsGhost
}
