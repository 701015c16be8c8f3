package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Churchly/initializers"
	"github.com/Churchly/models"

	"github.com/golang-jwt/jwt/v4"
)

const (
	tokenPurposeAuth  = "auth"
	tokenPurposeReset = "reset"

	ResetTokenTTL = 10 * time.Minute
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrWrongPurpose = errors.New("token not valid for this operation")
)

// GenerateAuthToken signs the session JWT handed to clients after login.
func GenerateAuthToken(user models.UserProfile) (string, time.Time, error) {
	expiresAt := time.Now().Add(initializers.Cfg.TokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       user.User_Profile_ID,
		"role":     user.Role,
		"username": user.Username,
		"purpose":  tokenPurposeAuth,
		"iat":      time.Now().Unix(),
		"exp":      expiresAt.Unix(),
	})

	signed, err := token.SignedString([]byte(initializers.Cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign auth token: %w", err)
	}
	return signed, expiresAt, nil
}

// GenerateResetToken signs the short-lived token issued once a reset code
// has been verified. jti is the password_reset_tokens row the token spends.
func GenerateResetToken(userID, resetID int) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":      userID,
		"jti":     strconv.Itoa(resetID),
		"purpose": tokenPurposeReset,
		"exp":     time.Now().Add(ResetTokenTTL).Unix(),
	})
	return token.SignedString([]byte(initializers.Cfg.Secret))
}

func parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(initializers.Cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	// jwt/v4 treats a missing exp as valid
	exp, ok := claims["exp"].(float64)
	if !ok || float64(time.Now().Unix()) > exp {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func claimUserID(claims jwt.MapClaims) (int, error) {
	id, ok := claims["id"].(float64)
	if !ok || id <= 0 {
		return 0, ErrInvalidToken
	}
	return int(id), nil
}

// ParseAuthToken validates a session token and returns the user id and role
// claim. Tokens without a purpose claim predate reset tokens and are
// accepted as session tokens.
func ParseAuthToken(tokenString string) (int, string, error) {
	claims, err := parseToken(tokenString)
	if err != nil {
		return 0, "", err
	}
	if purpose, ok := claims["purpose"].(string); ok && purpose != tokenPurposeAuth {
		return 0, "", ErrWrongPurpose
	}

	userID, err := claimUserID(claims)
	if err != nil {
		return 0, "", err
	}
	role, _ := claims["role"].(string)
	return userID, role, nil
}

// ParseResetToken returns the user id and the reset row id of a reset token.
func ParseResetToken(tokenString string) (int, int, error) {
	claims, err := parseToken(tokenString)
	if err != nil {
		return 0, 0, err
	}
	if purpose, _ := claims["purpose"].(string); purpose != tokenPurposeReset {
		return 0, 0, ErrWrongPurpose
	}

	userID, err := claimUserID(claims)
	if err != nil {
		return 0, 0, err
	}

	jti, _ := claims["jti"].(string)
	resetID, err := strconv.Atoi(jti)
	if err != nil || resetID <= 0 {
		return 0, 0, ErrInvalidToken
	}
	return userID, resetID, nil
}
