package services

import (
	"testing"
	"time"

	"fitness_portal_backend/internal/models"
	"fitness_portal_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatsRepo struct {
	total  int
	active int
	points int
}

func (f *fakeStatsRepo) CountMembers() (int, error) { return f.total, nil }
func (f *fakeStatsRepo) CountMembersByStatus(status string) (int, error) {
	if status == models.MemberStatusActive {
		return f.active, nil
	}
	return 0, nil
}
func (f *fakeStatsRepo) TotalPoints() (int, error) { return f.points, nil }

type fakeCheckinRepo struct {
	sessionsSince int
	openSessions  int
	avgMinutes    int
	hasClosed     bool
	inStudio      []models.LiveMember
	recent        []models.LiveMember

	countSinceArgs []time.Time
	avgSinceArg    time.Time
}

func (f *fakeCheckinRepo) OpenSession(repositories.SQLExecutor, int64, time.Time) (int64, error) {
	return 0, nil
}
func (f *fakeCheckinRepo) CloseOpenSessions(repositories.SQLExecutor, int64, time.Time) (int64, error) {
	return 0, nil
}
func (f *fakeCheckinRepo) CountSessionsSince(since time.Time) (int, error) {
	f.countSinceArgs = append(f.countSinceArgs, since)
	return f.sessionsSince, nil
}
func (f *fakeCheckinRepo) CountSessionsBetween(time.Time, time.Time) (int, error) {
	return f.sessionsSince, nil
}
func (f *fakeCheckinRepo) CountOpenSessions() (int, error) { return f.openSessions, nil }
func (f *fakeCheckinRepo) GetOpenSessionMembers() ([]models.LiveMember, error) {
	return f.inStudio, nil
}
func (f *fakeCheckinRepo) GetRecentSessionMembers(int) ([]models.LiveMember, error) {
	return f.recent, nil
}
func (f *fakeCheckinRepo) AverageSessionMinutesSince(since time.Time) (int, bool, error) {
	f.avgSinceArg = since
	return f.avgMinutes, f.hasClosed, nil
}

func newStatsServiceForTest(statsRepo *fakeStatsRepo, checkinRepo *fakeCheckinRepo, now time.Time) StatsService {
	return &statsService{
		statsRepo:   statsRepo,
		checkinRepo: checkinRepo,
		now:         func() time.Time { return now },
	}
}
func (f *fakeCheckinRepo) DeleteByMember(repositories.SQLExecutor, int64) error { return nil }

func TestGetOverviewComputesAverage(t *testing.T) {
	svc := NewStatsService(&fakeStatsRepo{total: 4, active: 3, points: 250}, &fakeCheckinRepo{sessionsSince: 12})

	overview, err := svc.GetOverview()
	require.NoError(t, err)
	assert.Equal(t, 4, overview.TotalMembers)
	assert.Equal(t, 3, overview.ActiveMembers)
	assert.Equal(t, 250, overview.TotalPoints)
	assert.InDelta(t, 62.5, overview.AveragePoints, 0.001)
	assert.Equal(t, 12, overview.RecentCheckins)
}

func TestGetOverviewEmptyStudio(t *testing.T) {
	svc := NewStatsService(&fakeStatsRepo{}, &fakeCheckinRepo{})

	overview, err := svc.GetOverview()
	require.NoError(t, err)
	assert.Zero(t, overview.AveragePoints)
}

func TestGetLiveStatsUtilization(t *testing.T) {
	inStudio := []models.LiveMember{{ID: 1, IsCurrentlyInStudio: true}}
	svc := NewStatsService(
		&fakeStatsRepo{total: 10, active: 8},
		&fakeCheckinRepo{openSessions: 3, sessionsSince: 5, avgMinutes: 42, hasClosed: true, inStudio: inStudio},
	)

	live, err := svc.GetLiveStats()
	require.NoError(t, err)
	assert.Equal(t, 3, live.Stats.CurrentlyInStudio)
	// 3 of 8 active members, rounded to the nearest percent.
	assert.Equal(t, 38, live.Stats.UtilizationPercentage)
	assert.Equal(t, 42, live.Stats.AverageSessionMinutes)
	assert.Equal(t, inStudio, live.CurrentlyInStudioMembers)
}

func TestGetLiveStatsNoActiveMembers(t *testing.T) {
	svc := NewStatsService(&fakeStatsRepo{total: 2}, &fakeCheckinRepo{})

	live, err := svc.GetLiveStats()
	require.NoError(t, err)
	assert.Zero(t, live.Stats.UtilizationPercentage)
}

func TestGetOverviewCountsLast24Hours(t *testing.T) {
	now := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)
	checkins := &fakeCheckinRepo{sessionsSince: 6}
	svc := newStatsServiceForTest(&fakeStatsRepo{total: 1}, checkins, now)

	overview, err := svc.GetOverview()
	require.NoError(t, err)
	assert.Equal(t, 6, overview.RecentCheckins)
	require.Len(t, checkins.countSinceArgs, 1)
	assert.Equal(t, now.Add(-24*time.Hour), checkins.countSinceArgs[0])
}

func TestGetLiveStatsAveragesOverThirtyDays(t *testing.T) {
	now := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)
	checkins := &fakeCheckinRepo{avgMinutes: 52, hasClosed: true}
	svc := newStatsServiceForTest(&fakeStatsRepo{total: 5, active: 5}, checkins, now)

	live, err := svc.GetLiveStats()
	require.NoError(t, err)
	assert.Equal(t, 52, live.Stats.AverageSessionMinutes)
	assert.Equal(t, now.Add(-sessionAverageWindow), checkins.avgSinceArg)
}

func TestGetLiveStatsDefaultsAverageWithoutClosedSessions(t *testing.T) {
	now := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)
	svc := newStatsServiceForTest(&fakeStatsRepo{total: 5, active: 5}, &fakeCheckinRepo{}, now)

	live, err := svc.GetLiveStats()
	require.NoError(t, err)
	assert.Equal(t, defaultSessionMinutes, live.Stats.AverageSessionMinutes)
}
