package models

import "time"

const (
	AudienceYouth = "youth"
	AudienceAll   = "all"
)

type Announcement struct {
	Announcement_ID int       `json:"announcementId" goqu:"skipinsert"`
	Title           string    `json:"title"`
	Body            string    `json:"body"`
	Audience        string    `json:"audience"`
	Is_Pinned       bool      `json:"isPinned"`
	Datetime_Create time.Time `json:"datetimeCreate"`
	Datetime_Update time.Time `json:"datetimeUpdate"`
	Created_By      int       `json:"createdBy"`
	Updated_By      int       `json:"updatedBy"`
}

type AnnouncementCreate struct {
	Title     string `json:"title" binding:"required,notblank,max=150"`
	Body      string `json:"body" binding:"required,notblank,max=5000"`
	Audience  string `json:"audience" binding:"omitempty,oneof=youth all"`
	Is_Pinned bool   `json:"isPinned"`
}
