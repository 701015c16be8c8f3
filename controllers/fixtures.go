package controllers

import (
	"time"

	"github.com/Churchly/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"
)

// Test fixture data for use in tests

// MockUser creates a sample member profile for testing
func MockUser() models.UserProfile {
	phone := "1234567890"
	return models.UserProfile{
		User_Profile_ID: 1,
		Username:        "testuser",
		First_Name:      "Test",
		Last_Name:       "User",
		Email:           "test@example.com",
		Phone_Number:    &phone,
		Role:            models.RoleMember,
		Created_By:      1,
		Updated_By:      1,
		Datetime_Create: time.Now(),
		Datetime_Update: time.Now(),
	}
}

// MockUserWithPassword creates a sample user with a bcrypt hashed password
// Password is "password123" - use this in tests
func MockUserWithPassword() models.UserProfile {
	user := MockUser()
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user.Password = string(hashedPassword)
	return user
}

// MockAdminUser creates a sample admin user for testing
func MockAdminUser() models.UserProfile {
	phone := "9876543210"
	return models.UserProfile{
		User_Profile_ID: 2,
		Username:        "adminuser",
		First_Name:      "Admin",
		Last_Name:       "User",
		Email:           "admin@example.com",
		Phone_Number:    &phone,
		Role:            models.RoleAdmin,
		Created_By:      1,
		Updated_By:      1,
		Datetime_Create: time.Now(),
		Datetime_Update: time.Now(),
	}
}

// MockAdminUserWithPassword creates a sample admin user with a bcrypt hashed password
// Password is "admin12345" - use this in tests
func MockAdminUserWithPassword() models.UserProfile {
	user := MockAdminUser()
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin12345"), bcrypt.MinCost)
	user.Password = string(hashedPassword)
	return user
}

func MockYouthLeader() models.UserProfile {
	return models.UserProfile{
		User_Profile_ID: 3,
		Username:        "youthleader",
		First_Name:      "Youth",
		Last_Name:       "Leader",
		Email:           "youth@example.com",
		Role:            models.RoleYouthLeader,
		Created_By:      2,
		Updated_By:      2,
		Datetime_Create: time.Now(),
		Datetime_Update: time.Now(),
	}
}

// MockPrayerRequest is owned by MockUser.
func MockPrayerRequest() models.PrayerRequest {
	now := time.Now().UTC()
	return models.PrayerRequest{
		ID:          bson.NewObjectID(),
		UserID:      1,
		UserName:    "Test U.",
		RequestText: "Please pray for my grandmother's surgery",
		Responses:   []models.PrayerResponse{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MockTestimony is authored by MockUser.
func MockTestimony() models.Testimony {
	return models.Testimony{
		Testimony_ID:    10,
		User_Profile_ID: 1,
		Author_Name:     "Test U.",
		Title:           "Answered prayer",
		Body:            "The surgery went well and she is home.",
		Datetime_Create: time.Now(),
		Datetime_Update: time.Now(),
	}
}

func MockAnnouncement() models.Announcement {
	return models.Announcement{
		Announcement_ID: 20,
		Title:           "Youth retreat sign-ups",
		Body:            "Sign-ups close Sunday.",
		Audience:        models.AudienceYouth,
		Is_Pinned:       true,
		Datetime_Create: time.Now(),
		Datetime_Update: time.Now(),
		Created_By:      3,
		Updated_By:      3,
	}
}

func MockEvent() models.Event {
	start := time.Now().Add(48 * time.Hour)
	end := start.Add(2 * time.Hour)
	return models.Event{
		Event_ID:        30,
		Title:           "Youth Night",
		Description:     "Games and worship",
		Location:        "Fellowship Hall",
		Datetime_Start:  start,
		Datetime_End:    &end,
		Datetime_Create: time.Now(),
		Datetime_Update: time.Now(),
		Created_By:      3,
		Updated_By:      3,
	}
}
