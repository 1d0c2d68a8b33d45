package services

import (
	"fmt"
	"time"

	"fitness_portal_backend/internal/models"
	"fitness_portal_backend/internal/repositories"
)

// recentCheckinsLimit caps the recent-activity list on the live dashboard.
const recentCheckinsLimit = 20

// sessionAverageWindow is how far back closed sessions count toward the
// average visit length. defaultSessionMinutes stands in when no session
// closed inside the window.
const (
	sessionAverageWindow  = 30 * 24 * time.Hour
	defaultSessionMinutes = 45
)

// StatsService computes the admin dashboard figures.
type StatsService interface {
	GetOverview() (*models.StatsOverview, error)
	GetLiveStats() (*models.LiveStatsResponse, error)
}

type statsService struct {
	statsRepo   repositories.StatsRepository
	checkinRepo repositories.CheckinRepository
	now         func() time.Time
}

// NewStatsService creates a new instance of StatsService.
func NewStatsService(statsRepo repositories.StatsRepository, checkinRepo repositories.CheckinRepository) StatsService {
	return &statsService{
		statsRepo:   statsRepo,
		checkinRepo: checkinRepo,
		now:         time.Now,
	}
}

// GetOverview returns member and point totals plus the 24-hour check-in count.
func (s *statsService) GetOverview() (*models.StatsOverview, error) {
	total, err := s.statsRepo.CountMembers()
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}
	active, err := s.statsRepo.CountMembersByStatus(models.MemberStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to count active members: %w", err)
	}
	totalPoints, err := s.statsRepo.TotalPoints()
	if err != nil {
		return nil, fmt.Errorf("failed to sum points: %w", err)
	}
	dayAgo := s.now().Add(-24 * time.Hour)
	recent, err := s.checkinRepo.CountSessionsSince(dayAgo)
	if err != nil {
		return nil, fmt.Errorf("failed to count recent check-ins: %w", err)
	}

	overview := &models.StatsOverview{
		TotalMembers:   total,
		ActiveMembers:  active,
		TotalPoints:    totalPoints,
		RecentCheckins: recent,
	}
	if total > 0 {
		overview.AveragePoints = float64(totalPoints) / float64(total)
	}
	return overview, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// GetLiveStats returns the real-time studio snapshot: utilization, today's
// check-ins, average closed session length and the member lists behind them.
func (s *statsService) GetLiveStats() (*models.LiveStatsResponse, error) {
	total, err := s.statsRepo.CountMembers()
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}
	active, err := s.statsRepo.CountMembersByStatus(models.MemberStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to count active members: %w", err)
	}
	inStudio, err := s.checkinRepo.CountOpenSessions()
	if err != nil {
		return nil, fmt.Errorf("failed to count open sessions: %w", err)
	}

	today := startOfDay(s.now())
	checkinsToday, err := s.checkinRepo.CountSessionsSince(today)
	if err != nil {
		return nil, fmt.Errorf("failed to count today's check-ins: %w", err)
	}
	avgMinutes, hasClosed, err := s.checkinRepo.AverageSessionMinutesSince(s.now().Add(-sessionAverageWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to average session minutes: %w", err)
	}
	if !hasClosed {
		avgMinutes = defaultSessionMinutes
	}

	currentMembers, err := s.checkinRepo.GetOpenSessionMembers()
	if err != nil {
		return nil, fmt.Errorf("failed to list members in studio: %w", err)
	}
	recentMembers, err := s.checkinRepo.GetRecentSessionMembers(recentCheckinsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent check-ins: %w", err)
	}

	stats := models.LiveStats{
		TotalMembers:          total,
		ActiveMembers:         active,
		CurrentlyInStudio:     inStudio,
		CheckinsToday:         checkinsToday,
		AverageSessionMinutes: avgMinutes,
	}
	if active > 0 {
		stats.UtilizationPercentage = int(float64(inStudio)/float64(active)*100 + 0.5)
	}

	return &models.LiveStatsResponse{
		Stats:                    stats,
		CurrentlyInStudioMembers: currentMembers,
		RecentCheckins:           recentMembers,
	}, nil
}
