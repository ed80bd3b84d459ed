package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kbh-legepladser/playground-api/internal/model"
)

// Messages is the single-collection repository for message documents, keyed
// by the store-assigned ObjectID.
type Messages struct {
	s *Store
}

func (r *Messages) collection() *mongo.Collection {
	return r.s.db.Collection(CollMessages)
}

func messageID(id string) (primitive.ObjectID, error) {
	if id == "" {
		return primitive.NilObjectID, fmt.Errorf("%w: message id is required", ErrInvalidInput)
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q is not a valid message id", ErrInvalidInput, id)
	}
	return oid, nil
}

// Create inserts a message and returns its key (the hex id).
func (r *Messages) Create(ctx context.Context, m *model.Message) (string, error) {
	if m == nil {
		return "", fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}

	if _, err := r.collection().InsertOne(ctx, m); err != nil {
		return "", writeErr("create message", err)
	}
	return m.ID.Hex(), nil
}

// Get fetches a message by hex id.
func (r *Messages) Get(ctx context.Context, id string) (*model.Message, error) {
	oid, err := messageID(id)
	if err != nil {
		return nil, err
	}

	var m model.Message
	if err := r.collection().FindOne(ctx, bson.M{"_id": oid}).Decode(&m); err != nil {
		return nil, readErr(fmt.Sprintf("get message %s", id), err)
	}
	return &m, nil
}

// List returns all messages; ErrNotFound when the collection is empty.
func (r *Messages) List(ctx context.Context) ([]model.Message, error) {
	cursor, err := r.collection().Find(ctx, bson.D{})
	if err != nil {
		return nil, readErr("list messages", err)
	}

	var messages []model.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, readErr("list messages", err)
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: no messages", ErrNotFound)
	}
	return messages, nil
}

// ListByPlayground returns the messages owned by a playground. An empty
// result is not an error.
func (r *Messages) ListByPlayground(ctx context.Context, playgroundName string) ([]model.Message, error) {
	if playgroundName == "" {
		return nil, fmt.Errorf("%w: playground name is required", ErrInvalidInput)
	}

	cursor, err := r.collection().Find(ctx, bson.M{"playgroundName": playgroundName})
	if err != nil {
		return nil, readErr(fmt.Sprintf("list messages of %q", playgroundName), err)
	}

	messages := []model.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, readErr(fmt.Sprintf("list messages of %q", playgroundName), err)
	}
	return messages, nil
}

// Update replaces the stored document keyed by the message's id.
func (r *Messages) Update(ctx context.Context, m *model.Message) error {
	if m == nil || m.ID.IsZero() {
		return fmt.Errorf("%w: message with an id is required", ErrInvalidInput)
	}

	res, err := r.collection().ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return writeErr(fmt.Sprintf("update message %s", m.ID.Hex()), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: message %s not updated", ErrWriteFailed, m.ID.Hex())
	}
	return nil
}

// Delete removes the message document by hex id.
func (r *Messages) Delete(ctx context.Context, id string) error {
	oid, err := messageID(id)
	if err != nil {
		return err
	}

	res, err := r.collection().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return writeErr(fmt.Sprintf("delete message %s", id), err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: message %s not deleted", ErrWriteFailed, id)
	}
	return nil
}

// DeleteAll wipes the collection. Test/reset tooling only.
func (r *Messages) DeleteAll(ctx context.Context) error {
	if _, err := r.collection().DeleteMany(ctx, bson.D{}); err != nil {
		return writeErr("delete all messages", err)
	}
	return nil
}
