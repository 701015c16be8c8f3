package controllers

import (
	"net/http"
	"strings"

	"github.com/Churchly/initializers"
	"github.com/Churchly/models"
	"github.com/Churchly/services"

	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func UserSignup(c *gin.Context) {
	var signup models.UserProfileSignup

	if err := c.ShouldBindJSON(&signup); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signup details", "details": err.Error()})
		return
	}

	signup.Username = strings.TrimSpace(signup.Username)
	signup.Email = strings.ToLower(strings.TrimSpace(signup.Email))

	existing, err := initializers.DB.From("user_profile").
		Where(goqu.Or(
			goqu.C("username").Eq(signup.Username),
			goqu.C("email").Eq(signup.Email),
		)).
		Count()
	if err != nil {
		initializers.Log.WithError(err).Error("failed to check for existing user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "username or email already exists."})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(signup.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	newUser := models.UserProfile{
		Username:   signup.Username,
		Password:   string(passwordHash),
		Email:      signup.Email,
		First_Name: strings.TrimSpace(signup.First_Name),
		Last_Name:  strings.TrimSpace(signup.Last_Name),
		Role:       models.RoleMember,
	}
	if signup.Phone_Number != "" {
		newUser.Phone_Number = &signup.Phone_Number
	}

	insert := initializers.DB.Insert("user_profile").Rows(newUser).Returning("user_profile_id")

	var insertedID int
	if _, err := insert.Executor().ScanVal(&insertedID); err != nil {
		initializers.Log.WithError(err).Error("failed to insert user profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}
	newUser.User_Profile_ID = insertedID

	// audit columns point at the new row itself
	_, err = initializers.DB.Update("user_profile").
		Set(goqu.Record{"created_by": insertedID, "updated_by": insertedID}).
		Where(goqu.C("user_profile_id").Eq(insertedID)).
		Executor().Exec()
	if err != nil {
		initializers.Log.WithError(err).WithField("userId", insertedID).Warn("failed to set audit columns on new user")
	}
	newUser.Created_By = insertedID
	newUser.Updated_By = insertedID

	token, expiresAt, err := services.GenerateAuthToken(newUser)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	if emailService := services.GetEmailService(); emailService != nil {
		go func(email, firstName string) {
			if err := emailService.SendWelcomeEmail(email, firstName); err != nil {
				initializers.Log.WithError(err).Warn("failed to send welcome email")
			}
		}(newUser.Email, newUser.First_Name)
	}

	initializers.Log.WithField("userId", insertedID).Info("user signed up")

	c.JSON(http.StatusCreated, gin.H{
		"message":   "User created successfully.",
		"token":     token,
		"expiresAt": expiresAt,
		"user":      newUser,
	})
}

func UserLogin(c *gin.Context) {
	login(c, false)
}

// AdminLogin is the admin portal login. Only admins and youth leaders get a
// token here.
func AdminLogin(c *gin.Context) {
	login(c, true)
}

func login(c *gin.Context, portal bool) {
	var credentials models.Login

	if err := c.ShouldBindJSON(&credentials); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identifier := strings.TrimSpace(credentials.Identifier())
	if identifier == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username or email is required"})
		return
	}

	var dbUser models.UserProfile
	found, err := initializers.DB.From("user_profile").
		Select("*").
		Where(
			goqu.Or(
				goqu.C("username").Eq(identifier),
				goqu.C("email").Eq(strings.ToLower(identifier)),
			),
			goqu.C("deleted").IsFalse(),
		).
		ScanStruct(&dbUser)
	if err != nil {
		initializers.Log.WithError(err).Error("failed to load user for login")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}

	if !found || bcrypt.CompareHashAndPassword([]byte(dbUser.Password), []byte(credentials.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	if portal && !models.CanManageYouth(dbUser.Role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "This account does not have admin portal access"})
		return
	}

	token, expiresAt, err := services.GenerateAuthToken(dbUser)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "User logged in successfully.",
		"token":     token,
		"expiresAt": expiresAt,
		"user":      dbUser,
	})
}
