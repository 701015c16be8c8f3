package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Churchly/initializers"
	"github.com/Churchly/metrics"
	"github.com/Churchly/models"
	"github.com/Churchly/repositories"
	"github.com/Churchly/services"

	"github.com/gin-gonic/gin"
)

const prayerWallTimeout = 5 * time.Second

func prayerWallContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), prayerWallTimeout)
}

// respondPrayerWallError maps store errors onto HTTP statuses.
func respondPrayerWallError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, repositories.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid prayer request ID"})
	case errors.Is(err, repositories.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Prayer request not found or expired"})
	default:
		initializers.Log.WithError(err).Error("prayer wall: failed to " + action)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

// GetPrayerRequests lists active prayer requests, newest first.
// Query: mine=true, limit (1-100), before (RFC3339 createdAt cursor).
func GetPrayerRequests(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	opts := repositories.ListOptions{}

	if mine, _ := strconv.ParseBool(c.DefaultQuery("mine", "false")); mine {
		opts.UserID = currentUser.User_Profile_ID
	}

	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		opts.Limit = n
	}

	if before := c.Query("before"); before != "" {
		t, err := time.Parse(time.RFC3339, before)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "before must be an RFC3339 timestamp", "details": err.Error()})
			return
		}
		opts.Before = &t
	}

	ctx, cancel := prayerWallContext(c)
	defer cancel()

	requests, err := repositories.PrayerRequests.List(ctx, opts)
	if err != nil {
		respondPrayerWallError(c, err, "load prayer requests")
		return
	}
	if requests == nil {
		requests = []models.PrayerRequest{}
	}

	c.JSON(http.StatusOK, requests)
}

func CreatePrayerRequest(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	var body models.PrayerRequestCreate
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requestText is required (max 1000 characters)", "details": err.Error()})
		return
	}

	request := &models.PrayerRequest{
		UserID:      currentUser.User_Profile_ID,
		UserName:    currentUser.DisplayName(),
		RequestText: strings.TrimSpace(body.RequestText),
	}

	ctx, cancel := prayerWallContext(c)
	defer cancel()

	if err := repositories.PrayerRequests.Create(ctx, request); err != nil {
		respondPrayerWallError(c, err, "create prayer request")
		return
	}

	metrics.PrayerRequestsCreated.Inc()
	c.JSON(http.StatusCreated, request)
}

func GetPrayerRequest(c *gin.Context) {
	ctx, cancel := prayerWallContext(c)
	defer cancel()

	request, err := repositories.PrayerRequests.Get(ctx, c.Param("id"))
	if err != nil {
		respondPrayerWallError(c, err, "load prayer request")
		return
	}

	c.JSON(http.StatusOK, request)
}

// RespondToPrayerRequest appends a response such as "Praying" and lets the
// owner know.
func RespondToPrayerRequest(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	var body models.PrayerResponseCreate
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type is required (max 280 characters)", "details": err.Error()})
		return
	}

	response := models.PrayerResponse{
		Type:      strings.TrimSpace(body.Type),
		UserID:    currentUser.User_Profile_ID,
		UserName:  currentUser.DisplayName(),
		CreatedAt: time.Now().UTC(),
	}

	ctx, cancel := prayerWallContext(c)
	defer cancel()

	updated, err := repositories.PrayerRequests.AddResponse(ctx, c.Param("id"), response)
	if err != nil {
		respondPrayerWallError(c, err, "respond to prayer request")
		return
	}

	metrics.PrayerResponsesAdded.Inc()

	if updated.UserID != currentUser.User_Profile_ID {
		go services.NotifyOwnerOfPrayerResponse(updated.UserID, updated.ID.Hex(), currentUser.User_Profile_ID, response.UserName)
	}

	c.JSON(http.StatusOK, updated)
}

// DeletePrayerRequest lets the owner or an admin take a request down early.
func DeletePrayerRequest(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)
	isAdmin := c.GetBool("admin")

	ctx, cancel := prayerWallContext(c)
	defer cancel()

	id := c.Param("id")
	request, err := repositories.PrayerRequests.Get(ctx, id)
	if err != nil {
		respondPrayerWallError(c, err, "delete prayer request")
		return
	}

	if request.UserID != currentUser.User_Profile_ID && !isAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own prayer requests"})
		return
	}

	ownerID := currentUser.User_Profile_ID
	if isAdmin {
		ownerID = 0
	}

	if err := repositories.PrayerRequests.Delete(ctx, id, ownerID); err != nil {
		respondPrayerWallError(c, err, "delete prayer request")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Prayer request deleted successfully"})
}
