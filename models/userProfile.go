package models

import "time"

type UserProfile struct {
	User_Profile_ID int       `json:"userProfileId" goqu:"skipinsert"`
	Username        string    `json:"username"`
	Password        string    `json:"-"`
	Email           string    `json:"email"`
	First_Name      string    `json:"firstName"`
	Last_Name       string    `json:"lastName"`
	Phone_Number    *string   `json:"phoneNumber"`
	Role            string    `json:"role"`
	Created_By      int       `json:"createdBy"`
	Datetime_Create time.Time `json:"datetimeCreate" goqu:"skipinsert"`
	Updated_By      int       `json:"updatedBy"`
	Datetime_Update time.Time `json:"datetimeUpdate" goqu:"skipinsert"`
	Deleted         bool      `json:"deleted" goqu:"skipinsert"`
}

// DisplayName is what other members see on the prayer wall and testimonies.
func (u UserProfile) DisplayName() string {
	if u.First_Name == "" {
		return u.Username
	}
	if u.Last_Name == "" {
		return u.First_Name
	}
	return u.First_Name + " " + u.Last_Name[:1] + "."
}

func (u UserProfile) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type UserProfileSignup struct {
	Username     string `json:"username" binding:"required,notblank,max=50"`
	Password     string `json:"password" binding:"required,min=8,max=72"`
	Email        string `json:"email" binding:"required,email"`
	First_Name   string `json:"firstName" binding:"required,notblank,max=80"`
	Last_Name    string `json:"lastName" binding:"max=80"`
	Phone_Number string `json:"phoneNumber" binding:"max=30"`
}

type Login struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

// Identifier returns whichever of username or email the client sent.
func (l Login) Identifier() string {
	if l.Username != "" {
		return l.Username
	}
	return l.Email
}

type UserProfileUpdate struct {
	Username     *string `json:"username" binding:"omitempty,notblank,max=50"`
	First_Name   *string `json:"firstName" binding:"omitempty,notblank,max=80"`
	Last_Name    *string `json:"lastName" binding:"omitempty,max=80"`
	Email        *string `json:"email" binding:"omitempty,email"`
	Phone_Number *string `json:"phoneNumber" binding:"omitempty,max=30"`
}

type UserProfileChangePassword struct {
	Old_Password string `json:"oldPassword" binding:"required"`
	New_Password string `json:"newPassword" binding:"required,min=8,max=72"`
}
