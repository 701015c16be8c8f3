package controllers

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/Churchly/initializers"
	"github.com/Churchly/models"
	"github.com/Churchly/services"

	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const (
	resetCodeTTL         = 15 * time.Minute
	maxResetCodeAttempts = 3
)

const forgotPasswordMessage = "If this email exists in our system, a verification code has been sent."

func findActiveUserByEmail(email string) (models.UserProfile, bool, error) {
	var user models.UserProfile
	found, err := initializers.DB.From("user_profile").
		Select("*").
		Where(
			goqu.C("email").Eq(strings.ToLower(strings.TrimSpace(email))),
			goqu.C("deleted").IsFalse(),
		).
		ScanStruct(&user)
	return user, found, err
}

// ForgotPassword initiates the password reset flow by sending a 6-digit code to the user's email.
// Every outcome after validation answers with the same message.
func ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid email address is required", "details": err.Error()})
		return
	}

	emailService := services.GetEmailService()
	if emailService == nil {
		initializers.Log.Error("email service not initialized")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Password reset is currently unavailable"})
		return
	}

	if err := sendResetCode(emailService, req.Email); err != nil {
		initializers.Log.WithError(err).Error("password reset request failed")
	}

	c.JSON(http.StatusOK, gin.H{"message": forgotPasswordMessage})
}

func sendResetCode(emailService *services.EmailService, email string) error {
	user, found, err := findActiveUserByEmail(email)
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}
	if !found {
		return nil
	}

	code, err := generate6DigitCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	resetToken := models.PasswordResetToken{
		User_Profile_ID: user.User_Profile_ID,
		Code:            code,
		Expires_At:      time.Now().Add(resetCodeTTL),
	}
	if _, err := initializers.DB.Insert("password_reset_tokens").Rows(resetToken).Executor().Exec(); err != nil {
		return fmt.Errorf("store reset code: %w", err)
	}

	if err := emailService.SendPasswordResetEmail(user.Email, code, user.First_Name); err != nil {
		return err
	}

	initializers.Log.WithField("userId", user.User_Profile_ID).Info("password reset code sent")
	return nil
}

// VerifyResetCode checks the 6-digit code and returns a short-lived reset
// token for the final step.
func VerifyResetCode(c *gin.Context) {
	var req models.VerifyResetCodeRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and 6-digit code are required", "details": err.Error()})
		return
	}

	user, found, err := findActiveUserByEmail(req.Email)
	if err != nil || !found {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or verification code"})
		return
	}

	var resetToken models.PasswordResetToken
	found, err = initializers.DB.From("password_reset_tokens").
		Select("*").
		Where(
			goqu.C("user_profile_id").Eq(user.User_Profile_ID),
			goqu.C("used").IsFalse(),
			goqu.C("verified").IsFalse(),
			goqu.C("expires_at").Gt(time.Now()),
		).
		Order(goqu.C("created_at").Desc()).
		ScanStruct(&resetToken)

	if err != nil || !found {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired verification code"})
		return
	}

	if resetToken.Attempts >= maxResetCodeAttempts {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Maximum verification attempts exceeded. Please request a new code.",
		})
		return
	}

	updateAttempts := initializers.DB.Update("password_reset_tokens").
		Set(goqu.Record{"attempts": resetToken.Attempts + 1}).
		Where(goqu.C("password_reset_tokens_id").Eq(resetToken.Token_ID)).
		Executor()
	if _, err := updateAttempts.Exec(); err != nil {
		initializers.Log.WithError(err).Warn("failed to update reset attempt count")
	}

	if subtle.ConstantTimeCompare([]byte(resetToken.Code), []byte(req.Code)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired verification code"})
		return
	}

	// a code verifies once
	consumed, err := initializers.DB.Update("password_reset_tokens").
		Set(goqu.Record{"verified": true}).
		Where(
			goqu.C("password_reset_tokens_id").Eq(resetToken.Token_ID),
			goqu.C("verified").IsFalse(),
			goqu.C("used").IsFalse(),
		).
		Executor().Exec()
	if err != nil {
		initializers.Log.WithError(err).Error("failed to consume reset code")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify code"})
		return
	}
	if n, err := consumed.RowsAffected(); err != nil || n == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired verification code"})
		return
	}

	token, err := services.GenerateResetToken(user.User_Profile_ID, resetToken.Token_ID)
	if err != nil {
		initializers.Log.WithError(err).Error("failed to generate reset token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Verification code is valid",
		"token":     token,
		"expiresIn": int(services.ResetTokenTTL.Seconds()),
		"userId":    user.User_Profile_ID,
	})
}

// ResetPassword sets a new password using the token from VerifyResetCode.
// The token's reset row is spent in the same transaction as the password
// change.
func ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token and a new password of at least 8 characters are required", "details": err.Error()})
		return
	}

	userID, resetID, err := services.ParseResetToken(req.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	var user models.UserProfile
	found, err := initializers.DB.From("user_profile").
		Select("*").
		Where(
			goqu.C("user_profile_id").Eq(userID),
			goqu.C("deleted").IsFalse(),
		).
		ScanStruct(&user)

	if err != nil || !found {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	err = resetPasswordWithToken(userID, resetID, string(passwordHash))
	if errors.Is(err, errResetTokenSpent) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Reset token has already been used"})
		return
	}
	if err != nil {
		initializers.Log.WithError(err).Error("failed to reset password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	initializers.Log.WithField("userId", userID).Info("password reset")

	c.JSON(http.StatusOK, gin.H{
		"message": "Password reset successfully. You can now login with your new password.",
	})
}

var errResetTokenSpent = errors.New("reset token already used")

func resetPasswordWithToken(userID, resetID int, passwordHash string) error {
	tx, err := initializers.DB.Begin()
	if err != nil {
		return err
	}

	return tx.Wrap(func() error {
		claimed, err := tx.Update("password_reset_tokens").
			Set(goqu.Record{"used": true}).
			Where(
				goqu.C("password_reset_tokens_id").Eq(resetID),
				goqu.C("user_profile_id").Eq(userID),
				goqu.C("verified").IsTrue(),
				goqu.C("used").IsFalse(),
			).
			Executor().Exec()
		if err != nil {
			return err
		}
		n, err := claimed.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return errResetTokenSpent
		}

		_, err = tx.Update("user_profile").
			Set(goqu.Record{
				"password":        passwordHash,
				"updated_by":      userID,
				"datetime_update": time.Now(),
			}).
			Where(goqu.C("user_profile_id").Eq(userID)).
			Executor().Exec()
		if err != nil {
			return err
		}

		// outstanding codes die with the old password
		_, err = tx.Update("password_reset_tokens").
			Set(goqu.Record{"used": true}).
			Where(
				goqu.C("user_profile_id").Eq(userID),
				goqu.C("used").IsFalse(),
			).
			Executor().Exec()
		return err
	})
}

// generate6DigitCode returns a uniformly random code with leading zeros.
func generate6DigitCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
