package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// PrayerRequest lives in mongo and is removed by a TTL index once it is
// older than the configured lifetime (24h by default).
type PrayerRequest struct {
	ID          bson.ObjectID    `bson:"_id,omitempty" json:"id"`
	UserID      int              `bson:"userId" json:"userId"`
	UserName    string           `bson:"userName" json:"userName"`
	RequestText string           `bson:"requestText" json:"requestText"`
	Responses   []PrayerResponse `bson:"responses" json:"responses"`
	CreatedAt   time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time        `bson:"updatedAt" json:"updatedAt"`
	// Expiry is filled in from CreatedAt on read and never stored.
	Expiry      time.Time        `bson:"-" json:"expiresAt"`
}

type PrayerResponse struct {
	Type      string    `bson:"type" json:"type"`
	UserID    int       `bson:"userId" json:"userId"`
	UserName  string    `bson:"userName" json:"userName"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

func (p *PrayerRequest) ExpiresAt(ttl time.Duration) time.Time {
	return p.CreatedAt.Add(ttl)
}


type PrayerRequestCreate struct {
	RequestText string `json:"requestText" binding:"required,notblank,max=1000"`
}

type PrayerResponseCreate struct {
	Type string `json:"type" binding:"required,notblank,max=280"`
}
