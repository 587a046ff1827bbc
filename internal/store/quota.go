package store

import (
	"context" // Request scoped context

	"gorm.io/gorm" // SQL expressions

	"race_access/internal/domain" // Domain models
)

// EnsureConsumption creates the (user, meeting) consumption record if it does not exist yet
func (s *Store) EnsureConsumption(ctx context.Context, userID, meetingID string) error {
	_, err := s.InsertIfAbsent(ctx, &domain.MeetingConsumption{UserID: userID, MeetingID: meetingID}) // Existing row is fine
	return err
}

// ClaimRace adds raceID to the unlocked set of (user, meeting). It reports
// false when the race was already unlocked; the set never shrinks.
func (s *Store) ClaimRace(ctx context.Context, userID, meetingID, raceID string) (bool, error) {
	return s.InsertIfAbsent(ctx, &domain.UnlockedRace{UserID: userID, MeetingID: meetingID, RaceID: raceID})
}

// TryClaimFree increments free_used when it is below capacity and reports
// whether it did. free_used is never decremented.
func (s *Store) TryClaimFree(ctx context.Context, userID, meetingID string, capacity uint) (bool, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	res := db.Model(&domain.MeetingConsumption{}).
		Where("user_id = ? AND meeting_id = ? AND free_used < ?", userID, meetingID, capacity).
		Update("free_used", gorm.Expr("free_used + ?", 1))
	if res.Error != nil {
		return false, classify("store.try_claim_free", res.Error)
	}
	return res.RowsAffected == 1, nil // Zero rows means the cap is reached
}

// IsUnlocked reports whether userID has unlocked raceID
func (s *Store) IsUnlocked(ctx context.Context, userID, raceID string) (bool, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	var n int64
	if err := db.Model(&domain.UnlockedRace{}).Where("user_id = ? AND race_id = ?", userID, raceID).Count(&n).Error; err != nil {
		return false, classify("store.is_unlocked", err)
	}
	return n > 0, nil
}

// Consumption loads the consumption of (user, meeting) with its unlocked
// race ids. A meeting never requested yields a zero record.
func (s *Store) Consumption(ctx context.Context, userID, meetingID string) (domain.MeetingConsumption, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	mc := domain.MeetingConsumption{UserID: userID, MeetingID: meetingID}
	var rows []domain.MeetingConsumption
	if err := db.Where("user_id = ? AND meeting_id = ?", userID, meetingID).Limit(1).Find(&rows).Error; err != nil {
		return mc, classify("store.consumption", err)
	}
	if len(rows) == 1 {
		mc = rows[0]
	}
	// Unlock order is the order races were claimed
	var ids []string
	if err := db.Model(&domain.UnlockedRace{}).
		Where("user_id = ? AND meeting_id = ?", userID, meetingID).
		Order("created_at asc, race_id asc").
		Pluck("race_id", &ids).Error; err != nil {
		return mc, classify("store.consumption", err)
	}
	mc.UnlockedRaceIDs = ids
	return mc, nil
}
