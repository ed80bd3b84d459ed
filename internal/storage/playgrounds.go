package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kbh-legepladser/playground-api/internal/model"
)

// Playgrounds is the single-collection repository for playground documents,
// keyed by the unique playground name.
type Playgrounds struct {
	s *Store
}

func (r *Playgrounds) collection() *mongo.Collection {
	return r.s.db.Collection(CollPlaygrounds)
}

// Create inserts a playground and returns its key (the name). Reference
// slices are normalized to empty so stored documents always carry the arrays.
func (r *Playgrounds) Create(ctx context.Context, p *model.Playground) (string, error) {
	if p == nil || p.Name == "" {
		return "", fmt.Errorf("%w: playground with a name is required", ErrInvalidInput)
	}
	if p.Pedagogues == nil {
		p.Pedagogues = []model.UserRef{}
	}
	if p.Events == nil {
		p.Events = []model.EventRef{}
	}
	if p.Messages == nil {
		p.Messages = []model.MessageRef{}
	}

	if _, err := r.collection().InsertOne(ctx, p); err != nil {
		return "", writeErr("create playground", err)
	}
	return p.Name, nil
}

// Get fetches a playground by name.
func (r *Playgrounds) Get(ctx context.Context, name string) (*model.Playground, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: playground name is required", ErrInvalidInput)
	}

	var p model.Playground
	if err := r.collection().FindOne(ctx, bson.M{"name": name}).Decode(&p); err != nil {
		return nil, readErr(fmt.Sprintf("get playground %q", name), err)
	}
	return &p, nil
}

// List returns all playgrounds. An empty collection is reported as
// ErrNotFound; this mirrors the per-document lookups and is relied upon by
// callers, so it is a contract rather than a convenience.
func (r *Playgrounds) List(ctx context.Context) ([]model.Playground, error) {
	cursor, err := r.collection().Find(ctx, bson.D{})
	if err != nil {
		return nil, readErr("list playgrounds", err)
	}

	var playgrounds []model.Playground
	if err := cursor.All(ctx, &playgrounds); err != nil {
		return nil, readErr("list playgrounds", err)
	}
	if len(playgrounds) == 0 {
		return nil, fmt.Errorf("%w: no playgrounds", ErrNotFound)
	}
	return playgrounds, nil
}

// Update replaces the stored document keyed by the playground's name.
func (r *Playgrounds) Update(ctx context.Context, p *model.Playground) error {
	if p == nil || p.Name == "" {
		return fmt.Errorf("%w: playground with a name is required", ErrInvalidInput)
	}

	res, err := r.collection().ReplaceOne(ctx, bson.M{"name": p.Name}, p)
	if err != nil {
		return writeErr(fmt.Sprintf("update playground %q", p.Name), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: playground %q not updated", ErrWriteFailed, p.Name)
	}
	return nil
}

// Delete removes the playground document by name.
func (r *Playgrounds) Delete(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: playground name is required", ErrInvalidInput)
	}

	res, err := r.collection().DeleteOne(ctx, bson.M{"name": name})
	if err != nil {
		return writeErr(fmt.Sprintf("delete playground %q", name), err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: playground %q not deleted", ErrWriteFailed, name)
	}
	return nil
}

// DeleteAll wipes the collection. Test/reset tooling only.
func (r *Playgrounds) DeleteAll(ctx context.Context) error {
	if _, err := r.collection().DeleteMany(ctx, bson.D{}); err != nil {
		return writeErr("delete all playgrounds", err)
	}
	return nil
}
