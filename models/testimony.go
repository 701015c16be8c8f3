package models

import "time"

const (
	ReactionAmen   = "amen"
	ReactionPraise = "praise"
	ReactionHeart  = "heart"
	ReactionPray   = "pray"
)

var ReactionTypes = []string{ReactionAmen, ReactionPraise, ReactionHeart, ReactionPray}

type Testimony struct {
	Testimony_ID    int       `json:"testimonyId" goqu:"skipinsert"`
	User_Profile_ID int       `json:"userProfileId"`
	Author_Name     string    `json:"authorName"`
	Title           string    `json:"title"`
	Body            string    `json:"body"`
	Datetime_Create time.Time `json:"datetimeCreate"`
	Datetime_Update time.Time `json:"datetimeUpdate"`
	Deleted         bool      `json:"-" goqu:"skipinsert"`
}

type TestimonyCreate struct {
	Title string `json:"title" binding:"max=120"`
	Body  string `json:"body" binding:"required,notblank,max=5000"`
}

type TestimonyReaction struct {
	Testimony_Reaction_ID int       `json:"testimonyReactionId" goqu:"skipinsert"`
	Testimony_ID          int       `json:"testimonyId"`
	User_Profile_ID       int       `json:"userProfileId"`
	Reaction_Type         string    `json:"reactionType"`
	Datetime_Create       time.Time `json:"datetimeCreate"`
}

type TestimonyReactionCreate struct {
	Reaction_Type string `json:"reactionType" binding:"required,oneof=amen praise heart pray"`
}

// ReactionCount is one row of the grouped reaction query.
type ReactionCount struct {
	Testimony_ID  int    `db:"testimony_id"`
	Reaction_Type string `db:"reaction_type"`
	Count         int    `db:"count"`
}

type TestimonyWithReactions struct {
	Testimony
	Reactions   map[string]int `json:"reactions"`
	MyReactions []string       `json:"myReactions"`
}

// NewReactionCounts returns a map with every reaction type present at zero.
func NewReactionCounts() map[string]int {
	counts := make(map[string]int, len(ReactionTypes))
	for _, r := range ReactionTypes {
		counts[r] = 0
	}
	return counts
}
