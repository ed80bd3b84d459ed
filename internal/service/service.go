// Package service provides the business logic for the playground API: the
// facade that composes the entity repositories, the reference synchronizer
// and the session coordinator into atomic-looking operations.
package service

import (
	"context"

	"github.com/kbh-legepladser/playground-api/internal/model"
	"github.com/kbh-legepladser/playground-api/internal/storage"
)

// Error taxonomy, re-exported from storage so callers only depend on this
// package. Match with errors.Is.
var (
	// ErrInvalidInput marks a missing or malformed argument, detected
	// before any store access.
	ErrInvalidInput = storage.ErrInvalidInput
	// ErrNotFound marks a lookup that matched no document.
	ErrNotFound = storage.ErrNotFound
	// ErrWriteFailed marks a write the store did not apply.
	ErrWriteFailed = storage.ErrWriteFailed
	// ErrUnavailable marks a store or session infrastructure failure.
	ErrUnavailable = storage.ErrUnavailable
)

// Service is the single entry point exposed to the HTTP layer. Get methods
// hydrate stored reference stubs one level deep; delete and link/unlink
// methods run inside a store session and either fully apply or leave no
// trace. Update methods replace an entity's own fields only: the stored
// reference sets (and the user's password hash) are carried into the
// replacement, since those change solely through the link/attach operations.
type Service interface {
	CreatePlayground(ctx context.Context, p *model.Playground) (string, error)
	GetPlayground(ctx context.Context, name string) (*model.PlaygroundView, error)
	ListPlaygrounds(ctx context.Context) ([]model.Playground, error)
	UpdatePlayground(ctx context.Context, p *model.Playground) error
	DeletePlayground(ctx context.Context, name string) error

	CreateUser(ctx context.Context, u *model.User) (string, error)
	GetUser(ctx context.Context, username string) (*model.UserView, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error
	DeleteUser(ctx context.Context, username string) error

	GetEvent(ctx context.Context, id string) (*model.EventView, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	ListPlaygroundEvents(ctx context.Context, playgroundName string) ([]model.Event, error)
	UpdateEvent(ctx context.Context, e *model.Event) error
	AddPlaygroundEvent(ctx context.Context, playgroundName string, e *model.Event) (string, error)
	RemovePlaygroundEvent(ctx context.Context, id string) error

	AddEventParticipant(ctx context.Context, eventID, username string) error
	RemoveEventParticipant(ctx context.Context, eventID, username string) error

	GetMessage(ctx context.Context, id string) (*model.Message, error)
	ListMessages(ctx context.Context) ([]model.Message, error)
	ListPlaygroundMessages(ctx context.Context, playgroundName string) ([]model.Message, error)
	UpdateMessage(ctx context.Context, m *model.Message) error
	AddPlaygroundMessage(ctx context.Context, playgroundName string, m *model.Message) (string, error)
	RemovePlaygroundMessage(ctx context.Context, id string) error

	AddPedagogue(ctx context.Context, playgroundName, username string) error
	RemovePedagogue(ctx context.Context, playgroundName, username string) error

	// SetDataSource redirects all repositories to another database.
	// Production-inert; exists so tests can isolate state.
	SetDataSource(name string)
	// KillAll wipes all four collections without a session. Test/reset
	// tooling only.
	KillAll(ctx context.Context) error
}

// PlaygroundStore is the repository contract the facade needs for
// playgrounds. Implemented by storage.Playgrounds.
type PlaygroundStore interface {
	Create(ctx context.Context, p *model.Playground) (string, error)
	Get(ctx context.Context, name string) (*model.Playground, error)
	List(ctx context.Context) ([]model.Playground, error)
	Update(ctx context.Context, p *model.Playground) error
	Delete(ctx context.Context, name string) error
	DeleteAll(ctx context.Context) error
}

// UserStore is the repository contract for users. Implemented by
// storage.Users.
type UserStore interface {
	Create(ctx context.Context, u *model.User) (string, error)
	Get(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, username string) error
	DeleteAll(ctx context.Context) error
}

// EventStore is the repository contract for events. Implemented by
// storage.Events.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) (string, error)
	Get(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	ListByPlayground(ctx context.Context, playgroundName string) ([]model.Event, error)
	Update(ctx context.Context, e *model.Event) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

// MessageStore is the repository contract for messages. Implemented by
// storage.Messages.
type MessageStore interface {
	Create(ctx context.Context, m *model.Message) (string, error)
	Get(ctx context.Context, id string) (*model.Message, error)
	List(ctx context.Context) ([]model.Message, error)
	ListByPlayground(ctx context.Context, playgroundName string) ([]model.Message, error)
	Update(ctx context.Context, m *model.Message) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

// Syncer is the dual-write contract. Implemented by refsync.Syncer.
type Syncer interface {
	LinkPedagogue(ctx context.Context, playgroundName, username string) error
	UnlinkPedagogue(ctx context.Context, playgroundName, username string) error
	LinkParticipant(ctx context.Context, eventID, username string) error
	UnlinkParticipant(ctx context.Context, eventID, username string) error
	AttachEvent(ctx context.Context, playgroundName string, event *model.Event) (string, error)
	DetachEvent(ctx context.Context, eventID string) error
	AttachMessage(ctx context.Context, playgroundName string, message *model.Message) (string, error)
	DetachMessage(ctx context.Context, messageID string) error
}

// TxRunner scopes a sequence of store calls to one transaction. Implemented
// by storage.Sessions.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}
