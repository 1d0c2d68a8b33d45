package models

import "time"

// StatsOverview is the basic admin dashboard summary.
type StatsOverview struct {
	TotalMembers   int     `json:"total_members"`
	ActiveMembers  int     `json:"active_members"`
	TotalPoints    int     `json:"total_points"`
	AveragePoints  float64 `json:"average_points"`
	RecentCheckins int     `json:"recent_checkins"`
}

// LiveMember is a member row decorated with studio presence.
type LiveMember struct {
	ID                  int64      `json:"id"`
	MembershipID        string     `json:"membership_id"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	Points              int        `json:"points"`
	Status              string     `json:"status"`
	LastCheckin         *time.Time `json:"last_checkin,omitempty"`
	IsCurrentlyInStudio bool       `json:"is_currently_in_studio"`
}

// LiveStats is the real-time studio utilization snapshot.
type LiveStats struct {
	TotalMembers          int `json:"total_members"`
	ActiveMembers         int `json:"active_members"`
	CurrentlyInStudio     int `json:"currently_in_studio"`
	UtilizationPercentage int `json:"utilization_percentage"`
	CheckinsToday         int `json:"checkins_today"`
	AverageSessionMinutes int `json:"average_session_minutes"`
}

// LiveStatsResponse bundles the snapshot with member detail lists.
type LiveStatsResponse struct {
	Stats                    LiveStats    `json:"stats"`
	CurrentlyInStudioMembers []LiveMember `json:"currently_in_studio_members"`
	RecentCheckins           []LiveMember `json:"recent_checkins"`
}
