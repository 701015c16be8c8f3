package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/Churchly/initializers"
	"github.com/Churchly/models"
	"github.com/Churchly/services"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func GetUserProfile(c *gin.Context) {
	user := c.MustGet("currentUser").(models.UserProfile)

	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"admin": c.GetBool("admin"),
	})
}

// UpdateUserProfile applies the fields present in the body.
func UpdateUserProfile(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	var update models.UserProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile update", "details": err.Error()})
		return
	}

	record := goqu.Record{}

	if update.Username != nil {
		username := strings.TrimSpace(*update.Username)
		if username != currentUser.Username {
			taken, err := valueTaken("username", username, currentUser.User_Profile_ID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
				return
			}
			if taken {
				c.JSON(http.StatusConflict, gin.H{"error": "username already exists."})
				return
			}
		}
		record["username"] = username
		currentUser.Username = username
	}

	if update.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*update.Email))
		if email != currentUser.Email {
			taken, err := valueTaken("email", email, currentUser.User_Profile_ID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
				return
			}
			if taken {
				c.JSON(http.StatusConflict, gin.H{"error": "email already exists."})
				return
			}
		}
		record["email"] = email
		currentUser.Email = email
	}

	if update.First_Name != nil {
		record["first_name"] = strings.TrimSpace(*update.First_Name)
		currentUser.First_Name = strings.TrimSpace(*update.First_Name)
	}
	if update.Last_Name != nil {
		record["last_name"] = strings.TrimSpace(*update.Last_Name)
		currentUser.Last_Name = strings.TrimSpace(*update.Last_Name)
	}
	if update.Phone_Number != nil {
		record["phone_number"] = *update.Phone_Number
		currentUser.Phone_Number = update.Phone_Number
	}

	if len(record) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	now := time.Now()
	record["updated_by"] = currentUser.User_Profile_ID
	record["datetime_update"] = now

	_, err := initializers.DB.Update("user_profile").
		Set(record).
		Where(goqu.C("user_profile_id").Eq(currentUser.User_Profile_ID)).
		Executor().Exec()
	if err != nil {
		initializers.Log.WithError(err).Error("failed to update user profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	currentUser.Updated_By = currentUser.User_Profile_ID
	currentUser.Datetime_Update = now

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully.",
		"user":    currentUser,
	})
}

// valueTaken reports whether another account already uses value in column.
func valueTaken(column, value string, exceptUserID int) (bool, error) {
	count, err := initializers.DB.From("user_profile").
		Where(
			goqu.C(column).Eq(value),
			goqu.C("user_profile_id").Neq(exceptUserID),
		).
		Count()
	if err != nil {
		initializers.Log.WithError(err).WithField("column", column).Error("uniqueness check failed")
		return false, err
	}
	return count > 0, nil
}

func ChangeUserPassword(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	var req models.UserProfileChangePassword
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Old password and a new password of at least 8 characters are required", "details": err.Error()})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(currentUser.Password), []byte(req.Old_Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.New_Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	_, err = initializers.DB.Update("user_profile").
		Set(goqu.Record{
			"password":        string(passwordHash),
			"updated_by":      currentUser.User_Profile_ID,
			"datetime_update": time.Now(),
		}).
		Where(goqu.C("user_profile_id").Eq(currentUser.User_Profile_ID)).
		Executor().Exec()
	if err != nil {
		initializers.Log.WithError(err).Error("failed to change password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully."})
}

// DeleteUserAccount soft deletes the caller's account.
func DeleteUserAccount(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	err := softDeleteUser(currentUser.User_Profile_ID, currentUser.User_Profile_ID)
	if errors.Is(err, errLastAdmin) {
		c.JSON(http.StatusConflict, gin.H{"error": "The last admin account cannot be deleted"})
		return
	}
	if err != nil {
		initializers.Log.WithError(err).WithField("userId", currentUser.User_Profile_ID).Error("failed to delete account")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully."})
}

// softDeleteUser flags the account deleted, anonymises identifying columns
// so username and email can be reused, and drops its push tokens. It
// returns errLastAdmin instead of removing the only active admin.
func softDeleteUser(userID, actorID int) error {
	// the push tokens are gone once the transaction commits
	var tokens []string
	pushService := services.GetPushNotificationService()

	tx, err := initializers.DB.Begin()
	if err != nil {
		return err
	}

	err = tx.Wrap(func() error {
		if err := guardLastAdmin(tx, userID); err != nil {
			return err
		}

		_, err := tx.Update("user_profile").
			Set(goqu.Record{
				"deleted":         true,
				"username":        fmt.Sprintf("deleted_user_%d", userID),
				"email":           fmt.Sprintf("deleted_%d@deleted.invalid", userID),
				"first_name":      "Deleted",
				"last_name":       "User",
				"phone_number":    nil,
				"updated_by":      actorID,
				"datetime_update": time.Now(),
			}).
			Where(goqu.C("user_profile_id").Eq(userID)).
			Executor().Exec()
		if err != nil {
			return err
		}

		if pushService != nil {
			err = tx.From("user_push_tokens").
				Select("push_token").
				Where(goqu.C("user_profile_id").Eq(userID)).
				ScanVals(&tokens)
			if err != nil {
				return err
			}
		}

		_, err = tx.Delete("user_push_tokens").
			Where(goqu.C("user_profile_id").Eq(userID)).
			Executor().Exec()
		return err
	})
	if err != nil {
		return err
	}

	if pushService != nil {
		if err := pushService.UnsubscribeTokens(tokens); err != nil {
			initializers.Log.WithError(err).WithField("userId", userID).Warn("failed to unsubscribe push tokens")
		}
	}
	return nil
}

var errLastAdmin = errors.New("last active admin")

// guardLastAdmin locks every active admin row until tx ends, so concurrent
// demotions and deletions queue behind each other, and returns errLastAdmin
// when userID is the only admin left.
func guardLastAdmin(tx *goqu.TxDatabase, userID int) error {
	var admins []int
	err := tx.From("user_profile").
		Select("user_profile_id").
		Where(
			goqu.C("role").Eq(models.RoleAdmin),
			goqu.C("deleted").IsFalse(),
		).
		ForUpdate(exp.Wait).
		ScanVals(&admins)
	if err != nil {
		return fmt.Errorf("lock admins: %w", err)
	}
	if len(admins) <= 1 && slices.Contains(admins, userID) {
		return errLastAdmin
	}
	return nil
}

// StorePushToken upserts the device token and subscribes it to the
// broadcast topics.
func StorePushToken(c *gin.Context) {
	currentUser := c.MustGet("currentUser").(models.UserProfile)

	var req models.PushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Push token and platform (ios or android) are required", "details": err.Error()})
		return
	}

	now := time.Now()
	insert := initializers.DB.Insert("user_push_tokens").
		Rows(models.PushToken{
			UserProfileID: currentUser.User_Profile_ID,
			PushToken:     req.PushToken,
			Platform:      req.Platform,
			UpdatedAt:     now,
		}).
		OnConflict(goqu.DoUpdate("push_token", goqu.Record{
			"user_profile_id": currentUser.User_Profile_ID,
			"platform":        req.Platform,
			"updated_at":      now,
		}))

	if _, err := insert.Executor().Exec(); err != nil {
		initializers.Log.WithError(err).Error("failed to store push token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store push token"})
		return
	}

	if pushService := services.GetPushNotificationService(); pushService != nil && !services.IsExpoToken(req.PushToken) {
		go func(token string) {
			for _, topic := range []string{models.TopicAnnouncements, models.TopicEvents} {
				if err := pushService.SubscribeToTopic([]string{token}, topic); err != nil {
					initializers.Log.WithError(err).WithField("topic", topic).Warn("failed to subscribe push token")
				}
			}
		}(req.PushToken)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Push token stored successfully."})
}
