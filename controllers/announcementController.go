package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Churchly/initializers"
	"github.com/Churchly/models"
	"github.com/Churchly/services"

	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
)

func GetAnnouncements(c *gin.Context) {
	query := initializers.DB.From("announcement").
		Order(goqu.C("is_pinned").Desc(), goqu.C("datetime_create").Desc())

	if audience := c.Query("audience"); audience == models.AudienceYouth || audience == models.AudienceAll {
		query = query.Where(goqu.C("audience").Eq(audience))
	}

	announcements := []models.Announcement{}
	if err := query.ScanStructs(&announcements); err != nil {
		initializers.Log.WithError(err).Error("failed to load announcements")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load announcements"})
		return
	}

	c.JSON(http.StatusOK, announcements)
}

func parseAnnouncementID(c *gin.Context) (int, bool) {
	announcementID, err := strconv.Atoi(c.Param("announcement_id"))
	if err != nil || announcementID < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid announcement ID"})
		return 0, false
	}
	return announcementID, true
}

func GetAnnouncement(c *gin.Context) {
	announcementID, ok := parseAnnouncementID(c)
	if !ok {
		return
	}

	var announcement models.Announcement
	found, err := initializers.DB.From("announcement").
		Where(goqu.C("announcement_id").Eq(announcementID)).
		ScanStruct(&announcement)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load announcement"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Announcement not found"})
		return
	}

	c.JSON(http.StatusOK, announcement)
}

// CreateAnnouncement publishes and pushes to the announcements topic.
func CreateAnnouncement(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	var body models.AnnouncementCreate
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and body are required", "details": err.Error()})
		return
	}

	if body.Audience == "" {
		body.Audience = models.AudienceYouth
	}

	now := time.Now()
	announcement := models.Announcement{
		Title:           strings.TrimSpace(body.Title),
		Body:            strings.TrimSpace(body.Body),
		Audience:        body.Audience,
		Is_Pinned:       body.Is_Pinned,
		Datetime_Create: now,
		Datetime_Update: now,
		Created_By:      currentUser.User_Profile_ID,
		Updated_By:      currentUser.User_Profile_ID,
	}

	insert := initializers.DB.Insert("announcement").Rows(announcement).Returning("announcement_id")

	var insertedID int
	if _, err := insert.Executor().ScanVal(&insertedID); err != nil {
		initializers.Log.WithError(err).Error("failed to create announcement")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create announcement"})
		return
	}
	announcement.Announcement_ID = insertedID

	go services.NotifyAnnouncementPublished(announcement)

	c.JSON(http.StatusCreated, announcement)
}

func UpdateAnnouncement(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	announcementID, ok := parseAnnouncementID(c)
	if !ok {
		return
	}

	var body models.AnnouncementCreate
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and body are required", "details": err.Error()})
		return
	}
	if body.Audience == "" {
		body.Audience = models.AudienceYouth
	}

	update := initializers.DB.Update("announcement").
		Set(goqu.Record{
			"title":           strings.TrimSpace(body.Title),
			"body":            strings.TrimSpace(body.Body),
			"audience":        body.Audience,
			"is_pinned":       body.Is_Pinned,
			"updated_by":      currentUser.User_Profile_ID,
			"datetime_update": time.Now(),
		}).
		Where(goqu.C("announcement_id").Eq(announcementID))

	result, err := update.Executor().Exec()
	if err != nil {
		initializers.Log.WithError(err).Error("failed to update announcement")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update announcement"})
		return
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Announcement not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Announcement updated successfully"})
}

func DeleteAnnouncement(c *gin.Context) {
	announcementID, ok := parseAnnouncementID(c)
	if !ok {
		return
	}

	result, err := initializers.DB.Delete("announcement").
		Where(goqu.C("announcement_id").Eq(announcementID)).
		Executor().Exec()
	if err != nil {
		initializers.Log.WithError(err).Error("failed to delete announcement")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete announcement"})
		return
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Announcement not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Announcement deleted successfully"})
}
