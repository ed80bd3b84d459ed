// Package refsync maintains the denormalized back-references between
// collections. Every operation here touches exactly the collections named in
// its doc comment and nothing else; callers are responsible for wrapping the
// call in a storage session when atomicity across those collections matters.
//
// Adds use $addToSet so that re-linking an existing pair stays a no-op.
// Removes use $pull with a nested-field match (for example, pull the array
// element whose username equals X) rather than whole-document equality,
// because the in-memory copy of a stub may not be byte-identical to the
// stored form.
package refsync

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kbh-legepladser/playground-api/internal/model"
	"github.com/kbh-legepladser/playground-api/internal/storage"
)

// Syncer performs the dual writes. It holds the store rather than individual
// repositories because its pull/push updates are keyed array mutations, not
// whole-document CRUD.
type Syncer struct {
	store *storage.Store
}

// New returns a Syncer over the given store.
func New(store *storage.Store) *Syncer {
	return &Syncer{store: store}
}

func (s *Syncer) playgrounds() *mongo.Collection {
	return s.store.Database().Collection(storage.CollPlaygrounds)
}

func (s *Syncer) users() *mongo.Collection {
	return s.store.Database().Collection(storage.CollUsers)
}

func (s *Syncer) events() *mongo.Collection {
	return s.store.Database().Collection(storage.CollEvents)
}

// updateOne runs a keyed update and translates "no document matched" into
// ErrNotFound so a dangling key aborts the enclosing transaction.
func updateOne(ctx context.Context, coll *mongo.Collection, filter, update bson.M, subject string) error {
	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("%w: sync %s: %v", storage.ErrUnavailable, subject, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, subject)
	}
	return nil
}

// LinkPedagogue assigns a user to a playground: the user stub is added to the
// playground's pedagogue set and the playground name to the user's
// playground-id set. Touches users and playgrounds.
func (s *Syncer) LinkPedagogue(ctx context.Context, playgroundName, username string) error {
	if playgroundName == "" || username == "" {
		return fmt.Errorf("%w: playground name and username are required", storage.ErrInvalidInput)
	}

	if err := updateOne(ctx, s.users(),
		bson.M{"username": username},
		bson.M{"$addToSet": bson.M{"playgroundIDs": playgroundName}},
		fmt.Sprintf("user %q", username),
	); err != nil {
		return err
	}
	return updateOne(ctx, s.playgrounds(),
		bson.M{"name": playgroundName},
		bson.M{"$addToSet": bson.M{"pedagogues": model.UserRef{Username: username}}},
		fmt.Sprintf("playground %q", playgroundName),
	)
}

// UnlinkPedagogue removes the assignment from both sides. Unlinking a pair
// that is not linked is a no-op as long as both documents still exist.
func (s *Syncer) UnlinkPedagogue(ctx context.Context, playgroundName, username string) error {
	if playgroundName == "" || username == "" {
		return fmt.Errorf("%w: playground name and username are required", storage.ErrInvalidInput)
	}

	if err := updateOne(ctx, s.playgrounds(),
		bson.M{"name": playgroundName},
		bson.M{"$pull": bson.M{"pedagogues": bson.M{"username": username}}},
		fmt.Sprintf("playground %q", playgroundName),
	); err != nil {
		return err
	}
	return updateOne(ctx, s.users(),
		bson.M{"username": username},
		bson.M{"$pull": bson.M{"playgroundIDs": playgroundName}},
		fmt.Sprintf("user %q", username),
	)
}

// LinkParticipant signs a user up for an event: the user stub is added to the
// event's participant set and the event id to the user's event set. Touches
// users and events.
func (s *Syncer) LinkParticipant(ctx context.Context, eventID, username string) error {
	oid, err := parseEventID(eventID)
	if err != nil {
		return err
	}
	if username == "" {
		return fmt.Errorf("%w: username is required", storage.ErrInvalidInput)
	}

	if err := updateOne(ctx, s.users(),
		bson.M{"username": username},
		bson.M{"$addToSet": bson.M{"events": model.EventRef{ID: oid}}},
		fmt.Sprintf("user %q", username),
	); err != nil {
		return err
	}
	return updateOne(ctx, s.events(),
		bson.M{"_id": oid},
		bson.M{"$addToSet": bson.M{"participants": model.UserRef{Username: username}}},
		fmt.Sprintf("event %s", eventID),
	)
}

// UnlinkParticipant removes the participation from both sides.
func (s *Syncer) UnlinkParticipant(ctx context.Context, eventID, username string) error {
	oid, err := parseEventID(eventID)
	if err != nil {
		return err
	}
	if username == "" {
		return fmt.Errorf("%w: username is required", storage.ErrInvalidInput)
	}

	if err := updateOne(ctx, s.events(),
		bson.M{"_id": oid},
		bson.M{"$pull": bson.M{"participants": bson.M{"username": username}}},
		fmt.Sprintf("event %s", eventID),
	); err != nil {
		return err
	}
	return updateOne(ctx, s.users(),
		bson.M{"username": username},
		bson.M{"$pull": bson.M{"events": bson.M{"_id": oid}}},
		fmt.Sprintf("user %q", username),
	)
}

// AttachEvent creates the event under the playground's ownership and pushes
// its reference into the playground. Returns the new event's hex id. Touches
// events and playgrounds.
func (s *Syncer) AttachEvent(ctx context.Context, playgroundName string, event *model.Event) (string, error) {
	if playgroundName == "" {
		return "", fmt.Errorf("%w: playground name is required", storage.ErrInvalidInput)
	}
	if event == nil {
		return "", fmt.Errorf("%w: event is required", storage.ErrInvalidInput)
	}

	event.PlaygroundName = playgroundName
	id, err := s.store.Events().Create(ctx, event)
	if err != nil {
		return "", err
	}

	if err := updateOne(ctx, s.playgrounds(),
		bson.M{"name": playgroundName},
		bson.M{"$addToSet": bson.M{"events": model.EventRef{ID: event.ID}}},
		fmt.Sprintf("playground %q", playgroundName),
	); err != nil {
		return "", err
	}
	return id, nil
}

// DetachEvent removes the event reference from every assigned participant and
// from the owning playground, then deletes the event document. Touches users,
// playgrounds and events.
func (s *Syncer) DetachEvent(ctx context.Context, eventID string) error {
	event, err := s.store.Events().Get(ctx, eventID)
	if err != nil {
		return err
	}

	for _, participant := range event.Participants {
		if err := updateOne(ctx, s.users(),
			bson.M{"username": participant.Username},
			bson.M{"$pull": bson.M{"events": bson.M{"_id": event.ID}}},
			fmt.Sprintf("user %q", participant.Username),
		); err != nil {
			return err
		}
	}

	if err := updateOne(ctx, s.playgrounds(),
		bson.M{"name": event.PlaygroundName},
		bson.M{"$pull": bson.M{"events": bson.M{"_id": event.ID}}},
		fmt.Sprintf("playground %q", event.PlaygroundName),
	); err != nil {
		return err
	}
	return s.store.Events().Delete(ctx, eventID)
}

// AttachMessage creates the message under the playground's ownership and
// pushes its reference into the playground. Returns the new message's hex id.
// Touches messages and playgrounds.
func (s *Syncer) AttachMessage(ctx context.Context, playgroundName string, message *model.Message) (string, error) {
	if playgroundName == "" {
		return "", fmt.Errorf("%w: playground name is required", storage.ErrInvalidInput)
	}
	if message == nil {
		return "", fmt.Errorf("%w: message is required", storage.ErrInvalidInput)
	}

	message.PlaygroundName = playgroundName
	id, err := s.store.Messages().Create(ctx, message)
	if err != nil {
		return "", err
	}

	if err := updateOne(ctx, s.playgrounds(),
		bson.M{"name": playgroundName},
		bson.M{"$addToSet": bson.M{"messages": model.MessageRef{ID: message.ID}}},
		fmt.Sprintf("playground %q", playgroundName),
	); err != nil {
		return "", err
	}
	return id, nil
}

// DetachMessage removes the message reference from the owning playground and
// deletes the message document. No participant fan-out: messages reference
// their author but the author holds no message references. Touches
// playgrounds and messages.
func (s *Syncer) DetachMessage(ctx context.Context, messageID string) error {
	message, err := s.store.Messages().Get(ctx, messageID)
	if err != nil {
		return err
	}

	if err := updateOne(ctx, s.playgrounds(),
		bson.M{"name": message.PlaygroundName},
		bson.M{"$pull": bson.M{"messages": bson.M{"_id": message.ID}}},
		fmt.Sprintf("playground %q", message.PlaygroundName),
	); err != nil {
		return err
	}
	return s.store.Messages().Delete(ctx, messageID)
}

func parseEventID(id string) (primitive.ObjectID, error) {
	if id == "" {
		return primitive.NilObjectID, fmt.Errorf("%w: event id is required", storage.ErrInvalidInput)
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q is not a valid event id", storage.ErrInvalidInput, id)
	}
	return oid, nil
}
