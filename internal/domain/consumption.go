package domain

import "slices" // Membership lookup

// MeetingConsumption Model: per (user, meeting) free quota counter. Created
// lazily on the first access request for the meeting and never deleted.
type MeetingConsumption struct {
	UserID          string   `gorm:"primaryKey;size:36" json:"user_id"`
	MeetingID       string   `gorm:"primaryKey;size:36" json:"meeting_id"`
	FreeUsed        uint     `gorm:"not null;default:0" json:"free_used"` // Monotonic, capped by the free quota
	UnlockedRaceIDs []string `gorm:"-" json:"unlocked_race_ids"`          // Loaded from UnlockedRace rows
	CreatedAt       int64    `gorm:"autoCreateTime:milli" json:"created_at"`
}

// UnlockedRace Model: membership row of a consumption's unlocked set. The
// (user_id, race_id) primary key is the uniqueness the idempotency relies on.
type UnlockedRace struct {
	UserID    string `gorm:"primaryKey;size:36"`
	RaceID    string `gorm:"primaryKey;size:36"`
	MeetingID string `gorm:"size:36;index;not null"`
	CreatedAt int64  `gorm:"autoCreateTime:milli"`
}

// Unlocked reports whether raceID is in the unlocked set
func (m *MeetingConsumption) Unlocked(raceID string) bool {
	return slices.Contains(m.UnlockedRaceIDs, raceID)
}

// FreeRemaining returns how many free unlocks are left under capacity
func (m *MeetingConsumption) FreeRemaining(capacity uint) uint {
	if m.FreeUsed >= capacity {
		return 0
	}
	return capacity - m.FreeUsed
}
