package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Churchly/initializers"
	"github.com/Churchly/models"
	"github.com/Churchly/repositories"

	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
)

const (
	defaultAdminPerPage = 25
	maxAdminPerPage     = 100
)

// GetAdminUsers pages through active accounts.
// Query: q (matches username, email or name), role, page, perPage.
func GetAdminUsers(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
		return
	}

	perPage, err := strconv.Atoi(c.DefaultQuery("perPage", strconv.Itoa(defaultAdminPerPage)))
	if err != nil || perPage < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "perPage must be a positive integer"})
		return
	}
	if perPage > maxAdminPerPage {
		perPage = maxAdminPerPage
	}

	query := initializers.DB.From("user_profile").Where(goqu.C("deleted").IsFalse())

	if role := c.Query("role"); role != "" {
		if !models.IsValidRole(role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
			return
		}
		query = query.Where(goqu.C("role").Eq(role))
	}

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		pattern := "%" + q + "%"
		query = query.Where(goqu.Or(
			goqu.C("username").ILike(pattern),
			goqu.C("email").ILike(pattern),
			goqu.C("first_name").ILike(pattern),
			goqu.C("last_name").ILike(pattern),
		))
	}

	total, err := query.Count()
	if err != nil {
		initializers.Log.WithError(err).Error("failed to count users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}

	users := []models.UserProfile{}
	err = query.Select("*").
		Order(goqu.C("user_profile_id").Asc()).
		Limit(uint(perPage)).
		Offset(uint((page - 1) * perPage)).
		ScanStructs(&users)
	if err != nil {
		initializers.Log.WithError(err).Error("failed to load users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}

	c.JSON(http.StatusOK, models.AdminUserList{
		Users:   users,
		Page:    page,
		PerPage: perPage,
		Total:   total,
	})
}

// loadTargetUser parses :user_profile_id and loads the active account. It
// writes the error response itself when ok is false.
func loadTargetUser(c *gin.Context) (models.UserProfile, bool) {
	var user models.UserProfile

	userID, err := strconv.Atoi(c.Param("user_profile_id"))
	if err != nil || userID < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user profile ID"})
		return user, false
	}

	found, err := initializers.DB.From("user_profile").
		Select("*").
		Where(
			goqu.C("user_profile_id").Eq(userID),
			goqu.C("deleted").IsFalse(),
		).
		ScanStruct(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return user, false
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return user, false
	}

	return user, true
}

func GetAdminUser(c *gin.Context) {
	user, ok := loadTargetUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

func UpdateUserRole(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	var body models.RoleUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role is required", "details": err.Error()})
		return
	}
	if !models.IsValidRole(body.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role", "roles": models.Roles})
		return
	}

	target, ok := loadTargetUser(c)
	if !ok {
		return
	}

	if target.Role == body.Role {
		c.JSON(http.StatusOK, gin.H{"message": "Role unchanged", "user": target})
		return
	}

	now := time.Now()
	err := updateRole(target.User_Profile_ID, body.Role, currentUser.User_Profile_ID, now)
	if errors.Is(err, errLastAdmin) {
		c.JSON(http.StatusConflict, gin.H{"error": "The last admin cannot be demoted"})
		return
	}
	if err != nil {
		initializers.Log.WithError(err).Error("failed to update role")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}

	initializers.Log.WithField("userId", target.User_Profile_ID).
		WithField("role", body.Role).
		WithField("by", currentUser.User_Profile_ID).
		Info("role changed")

	target.Role = body.Role
	target.Updated_By = currentUser.User_Profile_ID
	target.Datetime_Update = now

	c.JSON(http.StatusOK, gin.H{"message": "Role updated successfully", "user": target})
}

// updateRole writes the new role. Any role other than admin goes through
// guardLastAdmin in the same transaction.
func updateRole(userID int, role string, actorID int, now time.Time) error {
	tx, err := initializers.DB.Begin()
	if err != nil {
		return err
	}

	return tx.Wrap(func() error {
		if role != models.RoleAdmin {
			if err := guardLastAdmin(tx, userID); err != nil {
				return err
			}
		}

		_, err := tx.Update("user_profile").
			Set(goqu.Record{
				"role":            role,
				"updated_by":      actorID,
				"datetime_update": now,
			}).
			Where(
				goqu.C("user_profile_id").Eq(userID),
				goqu.C("deleted").IsFalse(),
			).
			Executor().Exec()
		return err
	})
}

func DeleteAdminUser(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	target, ok := loadTargetUser(c)
	if !ok {
		return
	}

	if target.User_Profile_ID == currentUser.User_Profile_ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Use the profile endpoint to delete your own account"})
		return
	}

	err := softDeleteUser(target.User_Profile_ID, currentUser.User_Profile_ID)
	if errors.Is(err, errLastAdmin) {
		c.JSON(http.StatusConflict, gin.H{"error": "The last admin account cannot be deleted"})
		return
	}
	if err != nil {
		initializers.Log.WithError(err).WithField("userId", target.User_Profile_ID).Error("failed to delete user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func GetRoles(c *gin.Context) {
	c.JSON(http.StatusOK, models.Roles)
}

type roleCount struct {
	Role  string `db:"role"`
	Count int    `db:"count"`
}

func GetAdminStats(c *gin.Context) {
	stats := models.AdminStats{UsersByRole: map[string]int{}}
	for _, r := range models.Roles {
		stats.UsersByRole[r.Name] = 0
	}

	var counts []roleCount
	err := initializers.DB.From("user_profile").
		Select("role", goqu.COUNT("*").As("count")).
		Where(goqu.C("deleted").IsFalse()).
		GroupBy("role").
		ScanStructs(&counts)
	if err != nil {
		initializers.Log.WithError(err).Error("failed to count users by role")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}
	for _, rc := range counts {
		stats.UsersByRole[rc.Role] = rc.Count
		stats.TotalUsers += rc.Count
	}

	stats.Testimonies, err = initializers.DB.From("testimony").Where(goqu.C("deleted").IsFalse()).Count()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}

	stats.UpcomingEvents, err = initializers.DB.From("event").Where(goqu.C("datetime_start").Gte(time.Now())).Count()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}

	ctx, cancel := prayerWallContext(c)
	defer cancel()

	stats.ActivePrayerRequests, err = repositories.PrayerRequests.CountActive(ctx)
	if err != nil {
		initializers.Log.WithError(err).Error("failed to count active prayer requests")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
