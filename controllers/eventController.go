package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Churchly/initializers"
	"github.com/Churchly/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
)

// GetEvents lists events by start time. upcoming=true hides events that
// have already finished; an event without an end counts as finished once
// it has started.
func GetEvents(c *gin.Context) {
	query := initializers.DB.From("event").
		Order(goqu.C("datetime_start").Asc())

	if upcoming, _ := strconv.ParseBool(c.DefaultQuery("upcoming", "false")); upcoming {
		now := time.Now()
		query = query.Where(goqu.Or(
			goqu.C("datetime_end").Gte(now),
			goqu.And(
				goqu.C("datetime_end").IsNull(),
				goqu.C("datetime_start").Gte(now),
			),
		))
	}

	events := []models.Event{}
	if err := query.ScanStructs(&events); err != nil {
		initializers.Log.WithError(err).Error("failed to load events")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load events"})
		return
	}

	c.JSON(http.StatusOK, events)
}

func parseEventID(c *gin.Context) (int, bool) {
	eventID, err := strconv.Atoi(c.Param("event_id"))
	if err != nil || eventID < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return 0, false
	}
	return eventID, true
}

func GetEvent(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	var event models.Event
	found, err := initializers.DB.From("event").
		Where(goqu.C("event_id").Eq(eventID)).
		ScanStruct(&event)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load event"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	c.JSON(http.StatusOK, event)
}

func bindEvent(c *gin.Context) (models.EventCreate, bool) {
	var body models.EventCreate
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and datetimeStart are required", "details": err.Error()})
		return body, false
	}
	if body.EndsBeforeStart() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "datetimeEnd must not be before datetimeStart"})
		return body, false
	}
	return body, true
}

func CreateEvent(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	body, ok := bindEvent(c)
	if !ok {
		return
	}

	now := time.Now()
	event := models.Event{
		Title:           strings.TrimSpace(body.Title),
		Description:     strings.TrimSpace(body.Description),
		Location:        strings.TrimSpace(body.Location),
		Datetime_Start:  body.Datetime_Start,
		Datetime_End:    body.Datetime_End,
		Datetime_Create: now,
		Datetime_Update: now,
		Created_By:      currentUser.User_Profile_ID,
		Updated_By:      currentUser.User_Profile_ID,
	}

	insert := initializers.DB.Insert("event").Rows(event).Returning("event_id")

	var insertedID int
	if _, err := insert.Executor().ScanVal(&insertedID); err != nil {
		initializers.Log.WithError(err).Error("failed to create event")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event"})
		return
	}
	event.Event_ID = insertedID

	c.JSON(http.StatusCreated, event)
}

// UpdateEvent replaces the event details. Moving the start re-arms the
// reminder.
func UpdateEvent(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	body, ok := bindEvent(c)
	if !ok {
		return
	}

	update := initializers.DB.Update("event").
		Set(goqu.Record{
			"title":           strings.TrimSpace(body.Title),
			"description":     strings.TrimSpace(body.Description),
			"location":        strings.TrimSpace(body.Location),
			"datetime_start":  body.Datetime_Start,
			"datetime_end":    body.Datetime_End,
			"reminder_sent":   goqu.L("CASE WHEN datetime_start = ? THEN reminder_sent ELSE FALSE END", body.Datetime_Start),
			"updated_by":      currentUser.User_Profile_ID,
			"datetime_update": time.Now(),
		}).
		Where(goqu.C("event_id").Eq(eventID))

	result, err := update.Executor().Exec()
	if err != nil {
		initializers.Log.WithError(err).Error("failed to update event")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update event"})
		return
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event updated successfully"})
}

func DeleteEvent(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	result, err := initializers.DB.Delete("event").
		Where(goqu.C("event_id").Eq(eventID)).
		Executor().Exec()
	if err != nil {
		initializers.Log.WithError(err).Error("failed to delete event")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete event"})
		return
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}
