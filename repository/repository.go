// Package repository persists users, trips and community posts.
package repository

import (
	"context"
	"errors"

	"tripmind/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("repository: not found")
	ErrDuplicate = errors.New("repository: duplicate key")
)

// Collection names match the ones the original Node service created.
const (
	usersCollection = "users"
	tripsCollection = "trips"
	postsCollection = "communityposts"
)

type UserRepository interface {
	// Create assigns an ID when missing. A clashing email yields ErrDuplicate.
	Create(ctx context.Context, u *models.User) error
	ByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.UserSummary, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
}

type TripRepository interface {
	Create(ctx context.Context, t *models.Trip) error
	// List returns every trip with its owner resolved, newest first.
	List(ctx context.Context) ([]models.TripView, error)
}

type PostRepository interface {
	Create(ctx context.Context, p *models.CommunityPost) error
	List(ctx context.Context) ([]models.PostView, error)
	// ListByDestination matches term as a case-insensitive substring.
	ListByDestination(ctx context.Context, term string) ([]models.PostView, error)
	// IncrementLikes atomically adds one like and returns the updated post.
	IncrementLikes(ctx context.Context, id primitive.ObjectID) (*models.CommunityPost, error)
}
