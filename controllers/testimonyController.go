package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Churchly/initializers"
	"github.com/Churchly/metrics"
	"github.com/Churchly/models"
	"github.com/Churchly/services"

	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
)

const (
	defaultTestimonyLimit = 50
	maxTestimonyLimit     = 100
)

var testimonyColumns = []interface{}{
	"testimony_id", "user_profile_id", "author_name", "title", "body", "datetime_create", "datetime_update",
}

// reactionSummary loads grouped counts and the caller's own reactions for
// the given testimonies.
func reactionSummary(testimonyIDs []int, userID int) (map[int]map[string]int, map[int][]string, error) {
	counts := make(map[int]map[string]int, len(testimonyIDs))
	mine := make(map[int][]string, len(testimonyIDs))
	for _, id := range testimonyIDs {
		counts[id] = models.NewReactionCounts()
		mine[id] = []string{}
	}
	if len(testimonyIDs) == 0 {
		return counts, mine, nil
	}

	var grouped []models.ReactionCount
	err := initializers.DB.From("testimony_reaction").
		Select("testimony_id", "reaction_type", goqu.COUNT("*").As("count")).
		Where(goqu.C("testimony_id").In(testimonyIDs)).
		GroupBy("testimony_id", "reaction_type").
		ScanStructs(&grouped)
	if err != nil {
		return nil, nil, err
	}
	for _, row := range grouped {
		counts[row.Testimony_ID][row.Reaction_Type] = row.Count
	}

	var own []models.TestimonyReaction
	err = initializers.DB.From("testimony_reaction").
		Select("testimony_id", "reaction_type").
		Where(
			goqu.C("testimony_id").In(testimonyIDs),
			goqu.C("user_profile_id").Eq(userID),
		).
		Order(goqu.C("reaction_type").Asc()).
		ScanStructs(&own)
	if err != nil {
		return nil, nil, err
	}
	for _, row := range own {
		mine[row.Testimony_ID] = append(mine[row.Testimony_ID], row.Reaction_Type)
	}

	return counts, mine, nil
}

func loadTestimony(testimonyID int) (models.Testimony, bool, error) {
	var testimony models.Testimony
	found, err := initializers.DB.From("testimony").
		Select(testimonyColumns...).
		Where(
			goqu.C("testimony_id").Eq(testimonyID),
			goqu.C("deleted").IsFalse(),
		).
		ScanStruct(&testimony)
	return testimony, found, err
}

func parseTestimonyID(c *gin.Context) (int, bool) {
	testimonyID, err := strconv.Atoi(c.Param("id"))
	if err != nil || testimonyID < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid testimony ID"})
		return 0, false
	}
	return testimonyID, true
}

// GetTestimonies lists testimonies newest first with reaction counts.
// Query: limit (1-100), offset.
func GetTestimonies(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultTestimonyLimit)))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	if limit > maxTestimonyLimit {
		limit = maxTestimonyLimit
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be zero or a positive integer"})
		return
	}

	var testimonies []models.Testimony
	err = initializers.DB.From("testimony").
		Select(testimonyColumns...).
		Where(goqu.C("deleted").IsFalse()).
		Order(goqu.C("datetime_create").Desc(), goqu.C("testimony_id").Desc()).
		Limit(uint(limit)).
		Offset(uint(offset)).
		ScanStructs(&testimonies)
	if err != nil {
		initializers.Log.WithError(err).Error("failed to load testimonies")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load testimonies"})
		return
	}

	ids := make([]int, 0, len(testimonies))
	for _, t := range testimonies {
		ids = append(ids, t.Testimony_ID)
	}

	counts, mine, err := reactionSummary(ids, currentUser.User_Profile_ID)
	if err != nil {
		initializers.Log.WithError(err).Error("failed to load testimony reactions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load testimonies"})
		return
	}

	result := make([]models.TestimonyWithReactions, 0, len(testimonies))
	for _, t := range testimonies {
		result = append(result, models.TestimonyWithReactions{
			Testimony:   t,
			Reactions:   counts[t.Testimony_ID],
			MyReactions: mine[t.Testimony_ID],
		})
	}

	c.JSON(http.StatusOK, result)
}

func GetTestimony(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	testimonyID, ok := parseTestimonyID(c)
	if !ok {
		return
	}

	testimony, found, err := loadTestimony(testimonyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load testimony"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Testimony not found"})
		return
	}

	counts, mine, err := reactionSummary([]int{testimonyID}, currentUser.User_Profile_ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load testimony"})
		return
	}

	c.JSON(http.StatusOK, models.TestimonyWithReactions{
		Testimony:   testimony,
		Reactions:   counts[testimonyID],
		MyReactions: mine[testimonyID],
	})
}

func CreateTestimony(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	var body models.TestimonyCreate
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body is required (max 5000 characters), title max 120", "details": err.Error()})
		return
	}

	now := time.Now()
	testimony := models.Testimony{
		User_Profile_ID: currentUser.User_Profile_ID,
		Author_Name:     currentUser.DisplayName(),
		Title:           strings.TrimSpace(body.Title),
		Body:            strings.TrimSpace(body.Body),
		Datetime_Create: now,
		Datetime_Update: now,
	}

	insert := initializers.DB.Insert("testimony").Rows(testimony).Returning("testimony_id")

	var insertedID int
	if _, err := insert.Executor().ScanVal(&insertedID); err != nil {
		initializers.Log.WithError(err).Error("failed to create testimony")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create testimony"})
		return
	}
	testimony.Testimony_ID = insertedID

	metrics.TestimoniesCreated.Inc()

	c.JSON(http.StatusCreated, models.TestimonyWithReactions{
		Testimony:   testimony,
		Reactions:   models.NewReactionCounts(),
		MyReactions: []string{},
	})
}

// DeleteTestimony soft deletes; reactions are kept with the row.
func DeleteTestimony(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)
	isAdmin := c.GetBool("admin")

	testimonyID, ok := parseTestimonyID(c)
	if !ok {
		return
	}

	testimony, found, err := loadTestimony(testimonyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete testimony"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Testimony not found"})
		return
	}

	if testimony.User_Profile_ID != currentUser.User_Profile_ID && !isAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own testimonies"})
		return
	}

	_, err = initializers.DB.Update("testimony").
		Set(goqu.Record{"deleted": true, "datetime_update": time.Now()}).
		Where(goqu.C("testimony_id").Eq(testimonyID)).
		Executor().Exec()
	if err != nil {
		initializers.Log.WithError(err).Error("failed to delete testimony")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete testimony"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Testimony deleted successfully"})
}

// ReactToTestimony toggles one reaction type for the caller and returns
// the new counts.
func ReactToTestimony(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	testimonyID, ok := parseTestimonyID(c)
	if !ok {
		return
	}

	var body models.TestimonyReactionCreate
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reactionType must be one of amen, praise, heart, pray", "details": err.Error()})
		return
	}

	testimony, found, err := loadTestimony(testimonyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to react to testimony"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Testimony not found"})
		return
	}

	reactionFilter := goqu.Ex{
		"testimony_id":    testimonyID,
		"user_profile_id": currentUser.User_Profile_ID,
		"reaction_type":   body.Reaction_Type,
	}

	existing, err := initializers.DB.From("testimony_reaction").Where(reactionFilter).Count()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to react to testimony"})
		return
	}

	added := existing == 0
	if added {
		_, err = initializers.DB.Insert("testimony_reaction").
			Rows(models.TestimonyReaction{
				Testimony_ID:    testimonyID,
				User_Profile_ID: currentUser.User_Profile_ID,
				Reaction_Type:   body.Reaction_Type,
				Datetime_Create: time.Now(),
			}).
			OnConflict(goqu.DoNothing()).
			Executor().Exec()
	} else {
		_, err = initializers.DB.Delete("testimony_reaction").Where(reactionFilter).Executor().Exec()
	}
	if err != nil {
		initializers.Log.WithError(err).Error("failed to toggle testimony reaction")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to react to testimony"})
		return
	}

	if added && testimony.User_Profile_ID != currentUser.User_Profile_ID {
		go services.NotifyAuthorOfTestimonyReaction(testimony.User_Profile_ID, testimonyID,
			currentUser.User_Profile_ID, currentUser.DisplayName(), body.Reaction_Type)
	}

	counts, mine, err := reactionSummary([]int{testimonyID}, currentUser.User_Profile_ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load reactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"testimonyId": testimonyID,
		"reacted":     added,
		"reactions":   counts[testimonyID],
		"myReactions": mine[testimonyID],
	})
}
