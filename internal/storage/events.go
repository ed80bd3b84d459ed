package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kbh-legepladser/playground-api/internal/model"
)

// Events is the single-collection repository for event documents, keyed by
// the store-assigned ObjectID. IDs cross the service boundary as hex strings.
type Events struct {
	s *Store
}

func (r *Events) collection() *mongo.Collection {
	return r.s.db.Collection(CollEvents)
}

func eventID(id string) (primitive.ObjectID, error) {
	if id == "" {
		return primitive.NilObjectID, fmt.Errorf("%w: event id is required", ErrInvalidInput)
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q is not a valid event id", ErrInvalidInput, id)
	}
	return oid, nil
}

// Create inserts an event and returns its key (the hex id). The id is
// assigned here when the entity carries none.
func (r *Events) Create(ctx context.Context, e *model.Event) (string, error) {
	if e == nil {
		return "", fmt.Errorf("%w: event is required", ErrInvalidInput)
	}
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Participants == nil {
		e.Participants = []model.UserRef{}
	}

	if _, err := r.collection().InsertOne(ctx, e); err != nil {
		return "", writeErr("create event", err)
	}
	return e.ID.Hex(), nil
}

// Get fetches an event by hex id.
func (r *Events) Get(ctx context.Context, id string) (*model.Event, error) {
	oid, err := eventID(id)
	if err != nil {
		return nil, err
	}

	var e model.Event
	if err := r.collection().FindOne(ctx, bson.M{"_id": oid}).Decode(&e); err != nil {
		return nil, readErr(fmt.Sprintf("get event %s", id), err)
	}
	return &e, nil
}

// List returns all events; ErrNotFound when the collection is empty.
func (r *Events) List(ctx context.Context) ([]model.Event, error) {
	cursor, err := r.collection().Find(ctx, bson.D{})
	if err != nil {
		return nil, readErr("list events", err)
	}

	var events []model.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, readErr("list events", err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: no events", ErrNotFound)
	}
	return events, nil
}

// ListByPlayground returns the events owned by a playground, matching on the
// denormalized owner name. Unlike List, an empty result is not an error: the
// owning playground legitimately has no events yet.
func (r *Events) ListByPlayground(ctx context.Context, playgroundName string) ([]model.Event, error) {
	if playgroundName == "" {
		return nil, fmt.Errorf("%w: playground name is required", ErrInvalidInput)
	}

	cursor, err := r.collection().Find(ctx, bson.M{"playgroundName": playgroundName})
	if err != nil {
		return nil, readErr(fmt.Sprintf("list events of %q", playgroundName), err)
	}

	events := []model.Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, readErr(fmt.Sprintf("list events of %q", playgroundName), err)
	}
	return events, nil
}

// Update replaces the stored document keyed by the event's id.
func (r *Events) Update(ctx context.Context, e *model.Event) error {
	if e == nil || e.ID.IsZero() {
		return fmt.Errorf("%w: event with an id is required", ErrInvalidInput)
	}

	res, err := r.collection().ReplaceOne(ctx, bson.M{"_id": e.ID}, e)
	if err != nil {
		return writeErr(fmt.Sprintf("update event %s", e.ID.Hex()), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: event %s not updated", ErrWriteFailed, e.ID.Hex())
	}
	return nil
}

// Delete removes the event document by hex id.
func (r *Events) Delete(ctx context.Context, id string) error {
	oid, err := eventID(id)
	if err != nil {
		return err
	}

	res, err := r.collection().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return writeErr(fmt.Sprintf("delete event %s", id), err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: event %s not deleted", ErrWriteFailed, id)
	}
	return nil
}

// DeleteAll wipes the collection. Test/reset tooling only.
func (r *Events) DeleteAll(ctx context.Context) error {
	if _, err := r.collection().DeleteMany(ctx, bson.D{}); err != nil {
		return writeErr("delete all events", err)
	}
	return nil
}
