package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Comment struct {
	User      *primitive.ObjectID `bson:"user,omitempty" json:"user,omitempty"`
	Text      string              `bson:"text" json:"text"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
}

// CommunityPost is a shared travel story. CreatedBy is optional so guests
// can post. Likes only ever grows, through an atomic increment.
type CommunityPost struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description" json:"description"`
	Destination string              `bson:"destination" json:"destination"`
	ImageURL    string              `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	CreatedBy   *primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	Likes       int                 `bson:"likes" json:"likes"`
	Comments    []Comment           `bson:"comments" json:"comments"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
}

// PostView is a CommunityPost with its creator resolved.
type PostView struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Destination string             `bson:"destination" json:"destination"`
	ImageURL    string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	CreatedBy   *UserSummary       `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	Likes       int                `bson:"likes" json:"likes"`
	Comments    []Comment          `bson:"comments" json:"comments"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

func (p *CommunityPost) View(creator *UserSummary) PostView {
	comments := p.Comments
	if comments == nil {
		comments = []Comment{}
	}
	return PostView{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Destination: p.Destination,
		ImageURL:    p.ImageURL,
		CreatedBy:   creator,
		Likes:       p.Likes,
		Comments:    comments,
		CreatedAt:   p.CreatedAt,
	}
}
