package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"tripmind/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps every collection in process memory. It backs
// STORE_BACKEND=memory for local development and the test suites.
type MemoryStore struct {
	mu    sync.RWMutex
	users []models.User
	trips []models.Trip
	posts []models.CommunityPost
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }
func (s *MemoryStore) Trips() TripRepository { return memoryTrips{s} }
func (s *MemoryStore) Posts() PostRepository { return memoryPosts{s} }

// summary must be called with s.mu held.
func (s *MemoryStore) summary(id *primitive.ObjectID) *models.UserSummary {
	if id == nil {
		return nil
	}
	for i := range s.users {
		if s.users[i].ID == *id {
			sum := s.users[i].Summary()
			return &sum
		}
	}
	return nil
}

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) Create(ctx context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.s.users = append(r.s.users, *u)
	return nil
}

func (r memoryUsers) ByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r memoryUsers) List(ctx context.Context) ([]models.UserSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.UserSummary, 0, len(r.s.users))
	for i := range r.s.users {
		out = append(out, r.s.users[i].Summary())
	}
	return out, nil
}

func (r memoryUsers) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.users {
		if r.s.users[i].ID == id {
			r.s.users[i].Password = hash
			return nil
		}
	}
	return ErrNotFound
}

type memoryTrips struct{ s *MemoryStore }

func (r memoryTrips) Create(ctx context.Context, t *models.Trip) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	r.s.trips = append(r.s.trips, *t)
	return nil
}

func (r memoryTrips) List(ctx context.Context) ([]models.TripView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.TripView, 0, len(r.s.trips))
	// Walk backwards so equal timestamps keep newest-inserted first.
	for i := len(r.s.trips) - 1; i >= 0; i-- {
		t := r.s.trips[i]
		out = append(out, t.View(r.s.summary(t.User)))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

type memoryPosts struct{ s *MemoryStore }

func (r memoryPosts) Create(ctx context.Context, p *models.CommunityPost) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	r.s.posts = append(r.s.posts, *p)
	return nil
}

func (r memoryPosts) List(ctx context.Context) ([]models.PostView, error) {
	return r.filter(func(*models.CommunityPost) bool { return true }), nil
}

func (r memoryPosts) ListByDestination(ctx context.Context, term string) ([]models.PostView, error) {
	needle := strings.ToLower(term)
	return r.filter(func(p *models.CommunityPost) bool {
		return strings.Contains(strings.ToLower(p.Destination), needle)
	}), nil
}

func (r memoryPosts) filter(keep func(*models.CommunityPost) bool) []models.PostView {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []models.PostView{}
	for i := range r.s.posts {
		p := &r.s.posts[i]
		if keep(p) {
			out = append(out, p.View(r.s.summary(p.CreatedBy)))
		}
	}
	return out
}

func (r memoryPosts) IncrementLikes(ctx context.Context, id primitive.ObjectID) (*models.CommunityPost, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.posts {
		if r.s.posts[i].ID == id {
			r.s.posts[i].Likes++
			updated := r.s.posts[i]
			return &updated, nil
		}
	}
	return nil, ErrNotFound
}
