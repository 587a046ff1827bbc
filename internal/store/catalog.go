package store

import (
	"context" // Request scoped context

	"race_access/internal/domain" // Domain models
)

// User loads a user by id
func (s *Store) User(ctx context.Context, id string) (*domain.User, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	var u domain.User
	if err := db.Where("id = ?", id).First(&u).Error; err != nil {
		return nil, classify("store.user", err)
	}
	return &u, nil
}

// UserByUsername loads a user by its unique username
func (s *Store) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	var u domain.User
	if err := db.Where("username = ?", username).First(&u).Error; err != nil {
		return nil, classify("store.user_by_username", err)
	}
	return &u, nil
}

// Meeting loads a meeting by id
func (s *Store) Meeting(ctx context.Context, id string) (*domain.Meeting, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	var m domain.Meeting
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, classify("store.meeting", err)
	}
	return &m, nil
}

// Race loads a race by id
func (s *Store) Race(ctx context.Context, id string) (*domain.Race, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	var r domain.Race
	if err := db.Where("id = ?", id).First(&r).Error; err != nil {
		return nil, classify("store.race", err)
	}
	return &r, nil
}

// ForecastForRace returns the earliest forecast published for a race and its
// producer profile. Both are nil when the race has no forecast yet.
func (s *Store) ForecastForRace(ctx context.Context, raceID string) (*domain.Forecast, *domain.HandicapperProfile, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	var forecasts []domain.Forecast
	if err := db.Where("race_id = ?", raceID).Order("created_at asc, id asc").Limit(1).Find(&forecasts).Error; err != nil {
		return nil, nil, classify("store.forecast_for_race", err)
	}
	if len(forecasts) == 0 {
		return nil, nil, nil
	}
	f := forecasts[0]
	var profiles []domain.HandicapperProfile
	if err := db.Where("id = ?", f.HandicapperID).Limit(1).Find(&profiles).Error; err != nil {
		return nil, nil, classify("store.forecast_for_race", err)
	}
	if len(profiles) == 0 {
		return &f, nil, nil // Dangling producer reference, treated as unattributed
	}
	return &f, &profiles[0], nil
}

// ListUsers returns one page of users ordered by creation and the total count
func (s *Store) ListUsers(ctx context.Context, p Page) ([]domain.User, int64, error) {
	p = p.normalize()
	db, cancel := s.conn(ctx)
	defer cancel()
	var total int64
	if err := db.Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, 0, classify("store.list_users", err)
	}
	users := []domain.User{}
	if err := db.Order("created_at asc, id asc").Offset((p.Number - 1) * p.Size).Limit(p.Size).Find(&users).Error; err != nil {
		return nil, 0, classify("store.list_users", err)
	}
	return users, total, nil
}
