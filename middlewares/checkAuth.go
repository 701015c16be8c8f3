package middlewares

import (
	"net/http"
	"strings"

	"github.com/Churchly/initializers"
	"github.com/Churchly/models"
	"github.com/Churchly/services"

	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
)

func CheckAuth(c *gin.Context) {

	authHeader := c.GetHeader("Authorization")

	if authHeader == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
		return
	}

	authToken := strings.Split(authHeader, " ")
	if len(authToken) != 2 || authToken[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
		return
	}

	userID, _, err := services.ParseAuthToken(authToken[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
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
	if err != nil {
		initializers.Log.WithError(err).Error("failed to load user profile for token")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user profile"})
		return
	}

	if !found || user.User_Profile_ID == 0 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account not found"})
		return
	}

	// the stored role wins over the token claim so demotions apply immediately
	c.Set("currentUser", user)
	c.Set("role", user.Role)
	c.Set("admin", user.Role == models.RoleAdmin)

	c.Next()

}
