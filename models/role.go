package models

const (
	RoleMember      = "member"
	RoleYouthLeader = "youth_leader"
	RoleAdmin       = "admin"
)

type RoleInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Roles lists every assignable role in display order.
var Roles = []RoleInfo{
	{Name: RoleMember, Description: "Can post prayer requests and testimonies"},
	{Name: RoleYouthLeader, Description: "Can manage youth group announcements and events"},
	{Name: RoleAdmin, Description: "Full access to the admin portal"},
}

func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r.Name == role {
			return true
		}
	}
	return false
}

// CanManageYouth reports whether the role may publish announcements and events.
func CanManageYouth(role string) bool {
	return role == RoleAdmin || role == RoleYouthLeader
}

type RoleUpdate struct {
	Role string `json:"role" binding:"required"`
}
