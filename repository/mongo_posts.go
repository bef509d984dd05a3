package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"tripmind/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoPosts struct {
	coll *mongo.Collection
}

func NewPostRepository(db *mongo.Database) PostRepository {
	return &mongoPosts{coll: db.Collection(postsCollection)}
}

func (r *mongoPosts) Create(ctx context.Context, p *models.CommunityPost) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *mongoPosts) List(ctx context.Context) ([]models.PostView, error) {
	return r.aggregate(ctx, resolveUser("createdBy"))
}

func (r *mongoPosts) ListByDestination(ctx context.Context, term string) ([]models.PostView, error) {
	match := bson.D{{"destination", primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}}}
	pipeline := mongo.Pipeline{{{"$match", match}}}
	return r.aggregate(ctx, append(pipeline, resolveUser("createdBy")...))
}

func (r *mongoPosts) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]models.PostView, error) {
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate posts: %w", err)
	}
	defer cursor.Close(ctx)

	posts := []models.PostView{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	if posts == nil {
		posts = []models.PostView{}
	}
	for i := range posts {
		if posts[i].Comments == nil {
			posts[i].Comments = []models.Comment{}
		}
	}
	return posts, nil
}

func (r *mongoPosts) IncrementLikes(ctx context.Context, id primitive.ObjectID) (*models.CommunityPost, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.CommunityPost
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"likes": 1}}, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("like post: %w", err)
	}
	return &p, nil
}
