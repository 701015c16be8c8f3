package models

import "time"

type Event struct {
	Event_ID        int        `json:"eventId" goqu:"skipinsert"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Location        string     `json:"location"`
	Datetime_Start  time.Time  `json:"datetimeStart"`
	Datetime_End    *time.Time `json:"datetimeEnd"`
	Reminder_Sent   bool       `json:"-" goqu:"skipinsert"`
	Datetime_Create time.Time  `json:"datetimeCreate"`
	Datetime_Update time.Time  `json:"datetimeUpdate"`
	Created_By      int        `json:"createdBy"`
	Updated_By      int        `json:"updatedBy"`
}

type EventCreate struct {
	Title          string     `json:"title" binding:"required,notblank,max=150"`
	Description    string     `json:"description" binding:"max=5000"`
	Location       string     `json:"location" binding:"max=200"`
	Datetime_Start time.Time  `json:"datetimeStart" binding:"required"`
	Datetime_End   *time.Time `json:"datetimeEnd"`
}

// EndsBeforeStart reports an end time earlier than the start.
func (e EventCreate) EndsBeforeStart() bool {
	return e.Datetime_End != nil && e.Datetime_End.Before(e.Datetime_Start)
}
