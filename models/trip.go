package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trip is a saved trip. Only Destination is required.
type Trip struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	User        *primitive.ObjectID `bson:"user,omitempty" json:"user,omitempty"`
	Destination string              `bson:"destination" json:"destination"`
	StartDate   *time.Time          `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate     *time.Time          `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Budget      *float64            `bson:"budget,omitempty" json:"budget,omitempty"`
	Notes       string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
}

// TripView is a Trip with its owner resolved.
type TripView struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	User        *UserSummary       `bson:"user,omitempty" json:"user,omitempty"`
	Destination string             `bson:"destination" json:"destination"`
	StartDate   *time.Time         `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate     *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Budget      *float64           `bson:"budget,omitempty" json:"budget,omitempty"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// View resolves the owner with owner, which may be nil.
func (t *Trip) View(owner *UserSummary) TripView {
	return TripView{
		ID:          t.ID,
		User:        owner,
		Destination: t.Destination,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Budget:      t.Budget,
		Notes:       t.Notes,
		CreatedAt:   t.CreatedAt,
	}
}
