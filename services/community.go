package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tripmind/models"
	"tripmind/repository"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	msgMissingFields = "Missing required fields."
	msgPostNotFound  = "Post not found."
)

// Live feed event names.
const (
	EventPostCreated = "post_created"
	EventPostLiked   = "post_liked"
)

// EventPublisher fans community changes out to live subscribers.
type EventPublisher interface {
	Publish(event string, payload any)
}

type CreatePostInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Destination string `json:"destination" validate:"required"`
	ImageURL    string `json:"imageUrl"`
	CreatedBy   string `json:"createdBy"`
}

type CommunityService struct {
	posts    repository.PostRepository
	events   EventPublisher
	validate *validator.Validate
	now      func() time.Time
}

// NewCommunityService builds the service. events may be nil.
func NewCommunityService(posts repository.PostRepository, events EventPublisher) *CommunityService {
	return &CommunityService{posts: posts, events: events, validate: newValidator(), now: time.Now}
}

func (s *CommunityService) publish(event string, payload any) {
	if s.events != nil {
		s.events.Publish(event, payload)
	}
}

// CreatePost stores a post. An empty CreatedBy makes it anonymous.
func (s *CommunityService) CreatePost(ctx context.Context, in CreatePostInput) (*models.CommunityPost, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, validation(msgMissingFields, err)
	}
	creator, err := parseObjectID("createdBy", in.CreatedBy)
	if err != nil {
		return nil, err
	}

	post := &models.CommunityPost{
		Title:       in.Title,
		Description: in.Description,
		Destination: in.Destination,
		ImageURL:    in.ImageURL,
		CreatedBy:   creator,
		Comments:    []models.Comment{},
		CreatedAt:   s.now(),
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	s.publish(EventPostCreated, post)
	return post, nil
}

func (s *CommunityService) ListPosts(ctx context.Context) ([]models.PostView, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// ListPostsByCountry matches country literally against the destination,
// ignoring case.
func (s *CommunityService) ListPostsByCountry(ctx context.Context, country string) ([]models.PostView, error) {
	posts, err := s.posts.ListByDestination(ctx, country)
	if err != nil {
		return nil, fmt.Errorf("list posts by country: %w", err)
	}
	return posts, nil
}

// LikePost adds one like. A malformed id is reported like a missing post.
func (s *CommunityService) LikePost(ctx context.Context, id string) (*models.CommunityPost, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFound(msgPostNotFound, err)
	}
	post, err := s.posts.IncrementLikes(ctx, oid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound(msgPostNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("like post: %w", err)
	}
	s.publish(EventPostLiked, post)
	return post, nil
}
