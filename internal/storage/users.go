package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kbh-legepladser/playground-api/internal/model"
)

// Users is the single-collection repository for user documents, keyed by the
// unique username. Password hashing happens in the service layer before the
// entity reaches this repository.
type Users struct {
	s *Store
}

func (r *Users) collection() *mongo.Collection {
	return r.s.db.Collection(CollUsers)
}

// Create inserts a user and returns its key (the username).
func (r *Users) Create(ctx context.Context, u *model.User) (string, error) {
	if u == nil || u.Username == "" {
		return "", fmt.Errorf("%w: user with a username is required", ErrInvalidInput)
	}
	if u.PlaygroundIDs == nil {
		u.PlaygroundIDs = []string{}
	}
	if u.Events == nil {
		u.Events = []model.EventRef{}
	}
	if u.PhoneNumbers == nil {
		u.PhoneNumbers = []string{}
	}

	if _, err := r.collection().InsertOne(ctx, u); err != nil {
		return "", writeErr("create user", err)
	}
	return u.Username, nil
}

// Get fetches a user by username.
func (r *Users) Get(ctx context.Context, username string) (*model.User, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	var u model.User
	if err := r.collection().FindOne(ctx, bson.M{"username": username}).Decode(&u); err != nil {
		return nil, readErr(fmt.Sprintf("get user %q", username), err)
	}
	return &u, nil
}

// List returns all users; ErrNotFound when the collection is empty.
func (r *Users) List(ctx context.Context) ([]model.User, error) {
	cursor, err := r.collection().Find(ctx, bson.D{})
	if err != nil {
		return nil, readErr("list users", err)
	}

	var users []model.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, readErr("list users", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: no users", ErrNotFound)
	}
	return users, nil
}

// Update replaces the stored document keyed by username.
func (r *Users) Update(ctx context.Context, u *model.User) error {
	if u == nil || u.Username == "" {
		return fmt.Errorf("%w: user with a username is required", ErrInvalidInput)
	}

	res, err := r.collection().ReplaceOne(ctx, bson.M{"username": u.Username}, u)
	if err != nil {
		return writeErr(fmt.Sprintf("update user %q", u.Username), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: user %q not updated", ErrWriteFailed, u.Username)
	}
	return nil
}

// Delete removes the user document by username.
func (r *Users) Delete(ctx context.Context, username string) error {
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	res, err := r.collection().DeleteOne(ctx, bson.M{"username": username})
	if err != nil {
		return writeErr(fmt.Sprintf("delete user %q", username), err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: user %q not deleted", ErrWriteFailed, username)
	}
	return nil
}

// DeleteAll wipes the collection. Test/reset tooling only.
func (r *Users) DeleteAll(ctx context.Context) error {
	if _, err := r.collection().DeleteMany(ctx, bson.D{}); err != nil {
		return writeErr("delete all users", err)
	}
	return nil
}
