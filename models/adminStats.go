package models

type AdminStats struct {
	UsersByRole          map[string]int `json:"usersByRole"`
	TotalUsers           int            `json:"totalUsers"`
	ActivePrayerRequests int64          `json:"activePrayerRequests"`
	Testimonies          int64          `json:"testimonies"`
	UpcomingEvents       int64          `json:"upcomingEvents"`
}

type AdminUserList struct {
	Users   []UserProfile `json:"users"`
	Page    int           `json:"page"`
	PerPage int           `json:"perPage"`
	Total   int64         `json:"total"`
}
