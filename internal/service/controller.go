package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/kbh-legepladser/playground-api/internal/model"
	"github.com/kbh-legepladser/playground-api/internal/refsync"
	"github.com/kbh-legepladser/playground-api/internal/storage"
)

// controller implements Service. One instance is constructed at startup and
// shared by all requests; it holds no per-request state, so concurrent use is
// safe as long as each operation opens its own session.
type controller struct {
	playgrounds PlaygroundStore
	users       UserStore
	events      EventStore
	messages    MessageStore
	sync        Syncer
	tx          TxRunner
	store       *storage.Store // nil in tests that inject fakes
	log         *zap.Logger
}

var _ Service = (*controller)(nil)

// Option configures the service.
type Option func(*controller)

// WithLogger sets the service logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *controller) {
		if log != nil {
			c.log = log
		}
	}
}

// New builds the facade over a connected store.
func New(store *storage.Store, opts ...Option) Service {
	c := &controller{
		playgrounds: store.Playgrounds(),
		users:       store.Users(),
		events:      store.Events(),
		messages:    store.Messages(),
		sync:        refsync.New(store),
		tx:          store.Sessions(),
		store:       store,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newController wires explicit dependencies; used by tests to inject fakes.
func newController(p PlaygroundStore, u UserStore, e EventStore, m MessageStore, sync Syncer, tx TxRunner) *controller {
	return &controller{
		playgrounds: p,
		users:       u,
		events:      e,
		messages:    m,
		sync:        sync,
		tx:          tx,
		log:         zap.NewNop(),
	}
}

// --- Playgrounds ---

func (c *controller) CreatePlayground(ctx context.Context, p *model.Playground) (string, error) {
	return c.playgrounds.Create(ctx, p)
}

// GetPlayground fetches a playground and hydrates its pedagogue, event and
// message stubs into full entities. Hydration is one level deep: the events
// returned here still hold participant stubs.
func (c *controller) GetPlayground(ctx context.Context, name string) (*model.PlaygroundView, error) {
	p, err := c.playgrounds.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	view := &model.PlaygroundView{
		Playground: *p,
		Pedagogues: []model.User{},
		Events:     []model.Event{},
		Messages:   []model.Message{},
	}
	for _, ref := range p.Pedagogues {
		u, err := c.users.Get(ctx, ref.Username)
		if err != nil {
			return nil, fmt.Errorf("hydrating pedagogue of %q: %w", name, err)
		}
		view.Pedagogues = append(view.Pedagogues, *u)
	}
	for _, ref := range p.Events {
		e, err := c.events.Get(ctx, ref.ID.Hex())
		if err != nil {
			return nil, fmt.Errorf("hydrating event of %q: %w", name, err)
		}
		view.Events = append(view.Events, *e)
	}
	for _, ref := range p.Messages {
		m, err := c.messages.Get(ctx, ref.ID.Hex())
		if err != nil {
			return nil, fmt.Errorf("hydrating message of %q: %w", name, err)
		}
		view.Messages = append(view.Messages, *m)
	}
	return view, nil
}

func (c *controller) ListPlaygrounds(ctx context.Context) ([]model.Playground, error) {
	return c.playgrounds.List(ctx)
}

// UpdatePlayground replaces the playground's own fields. The reference sets
// are owned by the synchronizer, so the stored ones are carried into the
// replacement; a wholesale update must never touch them.
func (c *controller) UpdatePlayground(ctx context.Context, p *model.Playground) error {
	if p == nil || p.Name == "" {
		return fmt.Errorf("%w: playground with a name is required", ErrInvalidInput)
	}

	stored, err := c.playgrounds.Get(ctx, p.Name)
	if err != nil {
		return err
	}
	p.Pedagogues = stored.Pedagogues
	p.Events = stored.Events
	p.Messages = stored.Messages
	return c.playgrounds.Update(ctx, p)
}

// DeletePlayground cascades in one session: unlink every pedagogue, detach
// every owned event and message (children before parent), then delete the
// playground document itself.
func (c *controller) DeletePlayground(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: playground name is required", ErrInvalidInput)
	}

	err := c.tx.Run(ctx, func(ctx context.Context) error {
		p, err := c.playgrounds.Get(ctx, name)
		if err != nil {
			return err
		}
		for _, ped := range p.Pedagogues {
			if err := c.sync.UnlinkPedagogue(ctx, name, ped.Username); err != nil {
				return err
			}
		}
		for _, ev := range p.Events {
			if err := c.sync.DetachEvent(ctx, ev.ID.Hex()); err != nil {
				return err
			}
		}
		for _, msg := range p.Messages {
			if err := c.sync.DetachMessage(ctx, msg.ID.Hex()); err != nil {
				return err
			}
		}
		return c.playgrounds.Delete(ctx, name)
	})
	if err != nil {
		return err
	}
	c.log.Info("playground deleted", zap.String("name", name))
	return nil
}

// --- Users ---

// CreateUser hashes the password before the entity reaches the repository
// and defaults the status to client.
func (c *controller) CreateUser(ctx context.Context, u *model.User) (string, error) {
	if u == nil || u.Username == "" || u.Password == "" {
		return "", fmt.Errorf("%w: user with username and password is required", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	u.Password = string(hash)
	if u.Status == "" {
		u.Status = model.StatusClient
	}
	return c.users.Create(ctx, u)
}

// GetUser fetches a user and hydrates its event stubs.
func (c *controller) GetUser(ctx context.Context, username string) (*model.UserView, error) {
	u, err := c.users.Get(ctx, username)
	if err != nil {
		return nil, err
	}

	view := &model.UserView{User: *u, Events: []model.Event{}}
	for _, ref := range u.Events {
		e, err := c.events.Get(ctx, ref.ID.Hex())
		if err != nil {
			return nil, fmt.Errorf("hydrating event of %q: %w", username, err)
		}
		view.Events = append(view.Events, *e)
	}
	return view, nil
}

func (c *controller) ListUsers(ctx context.Context) ([]model.User, error) {
	return c.users.List(ctx)
}

// UpdateUser replaces the user's profile fields. The stored password hash is
// kept unless the caller supplies a new plaintext password, which is hashed
// here; the synchronizer-owned reference sets are always carried over.
func (c *controller) UpdateUser(ctx context.Context, u *model.User) error {
	if u == nil || u.Username == "" {
		return fmt.Errorf("%w: user with a username is required", ErrInvalidInput)
	}

	stored, err := c.users.Get(ctx, u.Username)
	if err != nil {
		return err
	}
	if u.Password == "" {
		u.Password = stored.Password
	} else {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}
		u.Password = string(hash)
	}
	u.PlaygroundIDs = stored.PlaygroundIDs
	u.Events = stored.Events
	return c.users.Update(ctx, u)
}

// DeleteUser cascades in one session: unlink the user from every playground
// it is assigned to and every event it participates in, then delete the user
// document.
func (c *controller) DeleteUser(ctx context.Context, username string) error {
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	err := c.tx.Run(ctx, func(ctx context.Context) error {
		u, err := c.users.Get(ctx, username)
		if err != nil {
			return err
		}
		for _, playgroundName := range u.PlaygroundIDs {
			if err := c.sync.UnlinkPedagogue(ctx, playgroundName, username); err != nil {
				return err
			}
		}
		for _, ev := range u.Events {
			if err := c.sync.UnlinkParticipant(ctx, ev.ID.Hex(), username); err != nil {
				return err
			}
		}
		return c.users.Delete(ctx, username)
	})
	if err != nil {
		return err
	}
	c.log.Info("user deleted", zap.String("username", username))
	return nil
}

// --- Events ---

// GetEvent fetches an event and hydrates its participant stubs.
func (c *controller) GetEvent(ctx context.Context, id string) (*model.EventView, error) {
	e, err := c.events.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &model.EventView{Event: *e, Participants: []model.User{}}
	for _, ref := range e.Participants {
		u, err := c.users.Get(ctx, ref.Username)
		if err != nil {
			return nil, fmt.Errorf("hydrating participant of %s: %w", id, err)
		}
		view.Participants = append(view.Participants, *u)
	}
	return view, nil
}

func (c *controller) ListEvents(ctx context.Context) ([]model.Event, error) {
	return c.events.List(ctx)
}

func (c *controller) ListPlaygroundEvents(ctx context.Context, playgroundName string) ([]model.Event, error) {
	return c.events.ListByPlayground(ctx, playgroundName)
}

// UpdateEvent replaces the event's own fields. The participant set and the
// owner reference are carried over from the stored document: participation is
// the synchronizer's to change, ownership only moves via detach and attach.
func (c *controller) UpdateEvent(ctx context.Context, e *model.Event) error {
	if e == nil || e.ID.IsZero() {
		return fmt.Errorf("%w: event with an id is required", ErrInvalidInput)
	}

	stored, err := c.events.Get(ctx, e.ID.Hex())
	if err != nil {
		return err
	}
	e.Participants = stored.Participants
	e.PlaygroundName = stored.PlaygroundName
	return c.events.Update(ctx, e)
}

func (c *controller) AddPlaygroundEvent(ctx context.Context, playgroundName string, e *model.Event) (string, error) {
	var id string
	err := c.tx.Run(ctx, func(ctx context.Context) error {
		var err error
		id, err = c.sync.AttachEvent(ctx, playgroundName, e)
		return err
	})
	return id, err
}

func (c *controller) RemovePlaygroundEvent(ctx context.Context, id string) error {
	return c.tx.Run(ctx, func(ctx context.Context) error {
		return c.sync.DetachEvent(ctx, id)
	})
}

func (c *controller) AddEventParticipant(ctx context.Context, eventID, username string) error {
	return c.tx.Run(ctx, func(ctx context.Context) error {
		return c.sync.LinkParticipant(ctx, eventID, username)
	})
}

func (c *controller) RemoveEventParticipant(ctx context.Context, eventID, username string) error {
	return c.tx.Run(ctx, func(ctx context.Context) error {
		return c.sync.UnlinkParticipant(ctx, eventID, username)
	})
}

// --- Messages ---

func (c *controller) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	return c.messages.Get(ctx, id)
}

func (c *controller) ListMessages(ctx context.Context) ([]model.Message, error) {
	return c.messages.List(ctx)
}

func (c *controller) ListPlaygroundMessages(ctx context.Context, playgroundName string) ([]model.Message, error) {
	return c.messages.ListByPlayground(ctx, playgroundName)
}

// UpdateMessage replaces the message's content fields, keeping the stored
// owner reference.
func (c *controller) UpdateMessage(ctx context.Context, m *model.Message) error {
	if m == nil || m.ID.IsZero() {
		return fmt.Errorf("%w: message with an id is required", ErrInvalidInput)
	}

	stored, err := c.messages.Get(ctx, m.ID.Hex())
	if err != nil {
		return err
	}
	m.PlaygroundName = stored.PlaygroundName
	return c.messages.Update(ctx, m)
}

func (c *controller) AddPlaygroundMessage(ctx context.Context, playgroundName string, m *model.Message) (string, error) {
	var id string
	err := c.tx.Run(ctx, func(ctx context.Context) error {
		var err error
		id, err = c.sync.AttachMessage(ctx, playgroundName, m)
		return err
	})
	return id, err
}

func (c *controller) RemovePlaygroundMessage(ctx context.Context, id string) error {
	return c.tx.Run(ctx, func(ctx context.Context) error {
		return c.sync.DetachMessage(ctx, id)
	})
}

// --- Pedagogue assignment ---

func (c *controller) AddPedagogue(ctx context.Context, playgroundName, username string) error {
	return c.tx.Run(ctx, func(ctx context.Context) error {
		return c.sync.LinkPedagogue(ctx, playgroundName, username)
	})
}

func (c *controller) RemovePedagogue(ctx context.Context, playgroundName, username string) error {
	return c.tx.Run(ctx, func(ctx context.Context) error {
		return c.sync.UnlinkPedagogue(ctx, playgroundName, username)
	})
}

// --- Test hooks ---

func (c *controller) SetDataSource(name string) {
	if c.store != nil {
		c.store.UseDatabase(name)
	}
}

// KillAll wipes every collection. No session: the wipe is unconditional and
// not part of the request-serving contract.
func (c *controller) KillAll(ctx context.Context) error {
	if err := c.events.DeleteAll(ctx); err != nil {
		return err
	}
	if err := c.messages.DeleteAll(ctx); err != nil {
		return err
	}
	if err := c.users.DeleteAll(ctx); err != nil {
		return err
	}
	return c.playgrounds.DeleteAll(ctx)
}
