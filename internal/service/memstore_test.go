package service

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kbh-legepladser/playground-api/internal/model"
	"github.com/kbh-legepladser/playground-api/internal/storage"
)

// memStore is an in-memory stand-in for the Mongo store. It mirrors the
// semantics the controller depends on: keyed CRUD, dual-write link/unlink,
// ErrNotFound for dangling keys, and snapshot-based transactions so that the
// atomicity properties can be tested without a running replica set.
type memStore struct {
	playgrounds map[string]model.Playground
	users       map[string]model.User
	events      map[string]model.Event
	messages    map[string]model.Message

	// failures maps an op name (e.g. "playgrounds.Delete") to an error
	// injected when that op runs. Used to provoke mid-transaction aborts.
	failures map[string]error

	snap *memSnapshot
}

type memSnapshot struct {
	playgrounds map[string]model.Playground
	users       map[string]model.User
	events      map[string]model.Event
	messages    map[string]model.Message
}

func newMemStore() *memStore {
	return &memStore{
		playgrounds: map[string]model.Playground{},
		users:       map[string]model.User{},
		events:      map[string]model.Event{},
		messages:    map[string]model.Message{},
		failures:    map[string]error{},
	}
}

func (s *memStore) fail(op string) error {
	if err, ok := s.failures[op]; ok {
		return err
	}
	return nil
}

func copyMap[V any](src map[string]V) map[string]V {
	dst := make(map[string]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// --- transactions ---

type memTx struct{ s *memStore }

func (tx *memTx) Run(_ context.Context, fn func(ctx context.Context) error) error {
	tx.s.snap = &memSnapshot{
		playgrounds: copyMap(tx.s.playgrounds),
		users:       copyMap(tx.s.users),
		events:      copyMap(tx.s.events),
		messages:    copyMap(tx.s.messages),
	}
	if err := fn(context.Background()); err != nil {
		tx.s.playgrounds = tx.s.snap.playgrounds
		tx.s.users = tx.s.snap.users
		tx.s.events = tx.s.snap.events
		tx.s.messages = tx.s.snap.messages
		tx.s.snap = nil
		return err
	}
	tx.s.snap = nil
	return nil
}

// --- playgrounds ---

type memPlaygrounds struct{ s *memStore }

func (r *memPlaygrounds) Create(_ context.Context, p *model.Playground) (string, error) {
	if p == nil || p.Name == "" {
		return "", fmt.Errorf("%w: playground with a name is required", storage.ErrInvalidInput)
	}
	if _, ok := r.s.playgrounds[p.Name]; ok {
		return "", fmt.Errorf("%w: duplicate key", storage.ErrWriteFailed)
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
	r.s.playgrounds[p.Name] = *p
	return p.Name, nil
}

func (r *memPlaygrounds) Get(_ context.Context, name string) (*model.Playground, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: playground name is required", storage.ErrInvalidInput)
	}
	p, ok := r.s.playgrounds[name]
	if !ok {
		return nil, fmt.Errorf("%w: playground %q", storage.ErrNotFound, name)
	}
	return &p, nil
}

func (r *memPlaygrounds) List(_ context.Context) ([]model.Playground, error) {
	if len(r.s.playgrounds) == 0 {
		return nil, fmt.Errorf("%w: no playgrounds", storage.ErrNotFound)
	}
	out := make([]model.Playground, 0, len(r.s.playgrounds))
	for _, p := range r.s.playgrounds {
		out = append(out, p)
	}
	return out, nil
}

func (r *memPlaygrounds) Update(_ context.Context, p *model.Playground) error {
	if p == nil || p.Name == "" {
		return fmt.Errorf("%w: playground with a name is required", storage.ErrInvalidInput)
	}
	if _, ok := r.s.playgrounds[p.Name]; !ok {
		return fmt.Errorf("%w: playground %q not updated", storage.ErrWriteFailed, p.Name)
	}
	r.s.playgrounds[p.Name] = *p
	return nil
}

func (r *memPlaygrounds) Delete(_ context.Context, name string) error {
	if err := r.s.fail("playgrounds.Delete"); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: playground name is required", storage.ErrInvalidInput)
	}
	if _, ok := r.s.playgrounds[name]; !ok {
		return fmt.Errorf("%w: playground %q not deleted", storage.ErrWriteFailed, name)
	}
	delete(r.s.playgrounds, name)
	return nil
}

func (r *memPlaygrounds) DeleteAll(_ context.Context) error {
	r.s.playgrounds = map[string]model.Playground{}
	return nil
}

// --- users ---

type memUsers struct{ s *memStore }

func (r *memUsers) Create(_ context.Context, u *model.User) (string, error) {
	if u == nil || u.Username == "" {
		return "", fmt.Errorf("%w: user with a username is required", storage.ErrInvalidInput)
	}
	if _, ok := r.s.users[u.Username]; ok {
		return "", fmt.Errorf("%w: duplicate key", storage.ErrWriteFailed)
	}
	if u.PlaygroundIDs == nil {
		u.PlaygroundIDs = []string{}
	}
	if u.Events == nil {
		u.Events = []model.EventRef{}
	}
	r.s.users[u.Username] = *u
	return u.Username, nil
}

func (r *memUsers) Get(_ context.Context, username string) (*model.User, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", storage.ErrInvalidInput)
	}
	u, ok := r.s.users[username]
	if !ok {
		return nil, fmt.Errorf("%w: user %q", storage.ErrNotFound, username)
	}
	return &u, nil
}

func (r *memUsers) List(_ context.Context) ([]model.User, error) {
	if len(r.s.users) == 0 {
		return nil, fmt.Errorf("%w: no users", storage.ErrNotFound)
	}
	out := make([]model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memUsers) Update(_ context.Context, u *model.User) error {
	if u == nil || u.Username == "" {
		return fmt.Errorf("%w: user with a username is required", storage.ErrInvalidInput)
	}
	if _, ok := r.s.users[u.Username]; !ok {
		return fmt.Errorf("%w: user %q not updated", storage.ErrWriteFailed, u.Username)
	}
	r.s.users[u.Username] = *u
	return nil
}

func (r *memUsers) Delete(_ context.Context, username string) error {
	if err := r.s.fail("users.Delete"); err != nil {
		return err
	}
	if username == "" {
		return fmt.Errorf("%w: username is required", storage.ErrInvalidInput)
	}
	if _, ok := r.s.users[username]; !ok {
		return fmt.Errorf("%w: user %q not deleted", storage.ErrWriteFailed, username)
	}
	delete(r.s.users, username)
	return nil
}

func (r *memUsers) DeleteAll(_ context.Context) error {
	r.s.users = map[string]model.User{}
	return nil
}

// --- events ---

type memEvents struct{ s *memStore }

func (r *memEvents) Create(_ context.Context, e *model.Event) (string, error) {
	if e == nil {
		return "", fmt.Errorf("%w: event is required", storage.ErrInvalidInput)
	}
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Participants == nil {
		e.Participants = []model.UserRef{}
	}
	r.s.events[e.ID.Hex()] = *e
	return e.ID.Hex(), nil
}

func (r *memEvents) Get(_ context.Context, id string) (*model.Event, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%w: %q is not a valid event id", storage.ErrInvalidInput, id)
	}
	e, ok := r.s.events[id]
	if !ok {
		return nil, fmt.Errorf("%w: event %s", storage.ErrNotFound, id)
	}
	return &e, nil
}

func (r *memEvents) List(_ context.Context) ([]model.Event, error) {
	if len(r.s.events) == 0 {
		return nil, fmt.Errorf("%w: no events", storage.ErrNotFound)
	}
	out := make([]model.Event, 0, len(r.s.events))
	for _, e := range r.s.events {
		out = append(out, e)
	}
	return out, nil
}

func (r *memEvents) ListByPlayground(_ context.Context, playgroundName string) ([]model.Event, error) {
	out := []model.Event{}
	for _, e := range r.s.events {
		if e.PlaygroundName == playgroundName {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEvents) Update(_ context.Context, e *model.Event) error {
	if e == nil || e.ID.IsZero() {
		return fmt.Errorf("%w: event with an id is required", storage.ErrInvalidInput)
	}
	if _, ok := r.s.events[e.ID.Hex()]; !ok {
		return fmt.Errorf("%w: event %s not updated", storage.ErrWriteFailed, e.ID.Hex())
	}
	r.s.events[e.ID.Hex()] = *e
	return nil
}

func (r *memEvents) Delete(_ context.Context, id string) error {
	if err := r.s.fail("events.Delete"); err != nil {
		return err
	}
	if _, ok := r.s.events[id]; !ok {
		return fmt.Errorf("%w: event %s not deleted", storage.ErrWriteFailed, id)
	}
	delete(r.s.events, id)
	return nil
}

func (r *memEvents) DeleteAll(_ context.Context) error {
	r.s.events = map[string]model.Event{}
	return nil
}

// --- messages ---

type memMessages struct{ s *memStore }

func (r *memMessages) Create(_ context.Context, m *model.Message) (string, error) {
	if m == nil {
		return "", fmt.Errorf("%w: message is required", storage.ErrInvalidInput)
	}
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	r.s.messages[m.ID.Hex()] = *m
	return m.ID.Hex(), nil
}

func (r *memMessages) Get(_ context.Context, id string) (*model.Message, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%w: %q is not a valid message id", storage.ErrInvalidInput, id)
	}
	m, ok := r.s.messages[id]
	if !ok {
		return nil, fmt.Errorf("%w: message %s", storage.ErrNotFound, id)
	}
	return &m, nil
}

func (r *memMessages) List(_ context.Context) ([]model.Message, error) {
	if len(r.s.messages) == 0 {
		return nil, fmt.Errorf("%w: no messages", storage.ErrNotFound)
	}
	out := make([]model.Message, 0, len(r.s.messages))
	for _, m := range r.s.messages {
		out = append(out, m)
	}
	return out, nil
}

func (r *memMessages) ListByPlayground(_ context.Context, playgroundName string) ([]model.Message, error) {
	out := []model.Message{}
	for _, m := range r.s.messages {
		if m.PlaygroundName == playgroundName {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMessages) Update(_ context.Context, m *model.Message) error {
	if m == nil || m.ID.IsZero() {
		return fmt.Errorf("%w: message with an id is required", storage.ErrInvalidInput)
	}
	if _, ok := r.s.messages[m.ID.Hex()]; !ok {
		return fmt.Errorf("%w: message %s not updated", storage.ErrWriteFailed, m.ID.Hex())
	}
	r.s.messages[m.ID.Hex()] = *m
	return nil
}

func (r *memMessages) Delete(_ context.Context, id string) error {
	if err := r.s.fail("messages.Delete"); err != nil {
		return err
	}
	if _, ok := r.s.messages[id]; !ok {
		return fmt.Errorf("%w: message %s not deleted", storage.ErrWriteFailed, id)
	}
	delete(r.s.messages, id)
	return nil
}

func (r *memMessages) DeleteAll(_ context.Context) error {
	r.s.messages = map[string]model.Message{}
	return nil
}

// --- syncer ---

type memSyncer struct{ s *memStore }

func (y *memSyncer) LinkPedagogue(_ context.Context, playgroundName, username string) error {
	u, ok := y.s.users[username]
	if !ok {
		return fmt.Errorf("%w: user %q", storage.ErrNotFound, username)
	}
	p, ok := y.s.playgrounds[playgroundName]
	if !ok {
		return fmt.Errorf("%w: playground %q", storage.ErrNotFound, playgroundName)
	}
	if !containsString(u.PlaygroundIDs, playgroundName) {
		u.PlaygroundIDs = append(u.PlaygroundIDs, playgroundName)
	}
	if !containsUserRef(p.Pedagogues, username) {
		p.Pedagogues = append(p.Pedagogues, model.UserRef{Username: username})
	}
	y.s.users[username] = u
	y.s.playgrounds[playgroundName] = p
	return nil
}

func (y *memSyncer) UnlinkPedagogue(_ context.Context, playgroundName, username string) error {
	p, ok := y.s.playgrounds[playgroundName]
	if !ok {
		return fmt.Errorf("%w: playground %q", storage.ErrNotFound, playgroundName)
	}
	u, ok := y.s.users[username]
	if !ok {
		return fmt.Errorf("%w: user %q", storage.ErrNotFound, username)
	}
	p.Pedagogues = removeUserRef(p.Pedagogues, username)
	u.PlaygroundIDs = removeString(u.PlaygroundIDs, playgroundName)
	y.s.playgrounds[playgroundName] = p
	y.s.users[username] = u
	return nil
}

func (y *memSyncer) LinkParticipant(_ context.Context, eventID, username string) error {
	u, ok := y.s.users[username]
	if !ok {
		return fmt.Errorf("%w: user %q", storage.ErrNotFound, username)
	}
	e, ok := y.s.events[eventID]
	if !ok {
		return fmt.Errorf("%w: event %s", storage.ErrNotFound, eventID)
	}
	if !containsEventRef(u.Events, e.ID) {
		u.Events = append(u.Events, model.EventRef{ID: e.ID})
	}
	if !containsUserRef(e.Participants, username) {
		e.Participants = append(e.Participants, model.UserRef{Username: username})
	}
	y.s.users[username] = u
	y.s.events[eventID] = e
	return nil
}

func (y *memSyncer) UnlinkParticipant(_ context.Context, eventID, username string) error {
	e, ok := y.s.events[eventID]
	if !ok {
		return fmt.Errorf("%w: event %s", storage.ErrNotFound, eventID)
	}
	u, ok := y.s.users[username]
	if !ok {
		return fmt.Errorf("%w: user %q", storage.ErrNotFound, username)
	}
	e.Participants = removeUserRef(e.Participants, username)
	u.Events = removeEventRef(u.Events, e.ID)
	y.s.events[eventID] = e
	y.s.users[username] = u
	return nil
}

func (y *memSyncer) AttachEvent(ctx context.Context, playgroundName string, event *model.Event) (string, error) {
	p, ok := y.s.playgrounds[playgroundName]
	if !ok {
		return "", fmt.Errorf("%w: playground %q", storage.ErrNotFound, playgroundName)
	}
	event.PlaygroundName = playgroundName
	id, err := (&memEvents{y.s}).Create(ctx, event)
	if err != nil {
		return "", err
	}
	p.Events = append(p.Events, model.EventRef{ID: event.ID})
	y.s.playgrounds[playgroundName] = p
	return id, nil
}

func (y *memSyncer) DetachEvent(ctx context.Context, eventID string) error {
	e, ok := y.s.events[eventID]
	if !ok {
		return fmt.Errorf("%w: event %s", storage.ErrNotFound, eventID)
	}
	for _, participant := range e.Participants {
		u, ok := y.s.users[participant.Username]
		if !ok {
			return fmt.Errorf("%w: user %q", storage.ErrNotFound, participant.Username)
		}
		u.Events = removeEventRef(u.Events, e.ID)
		y.s.users[participant.Username] = u
	}
	if p, ok := y.s.playgrounds[e.PlaygroundName]; ok {
		p.Events = removeEventRef(p.Events, e.ID)
		y.s.playgrounds[e.PlaygroundName] = p
	}
	return (&memEvents{y.s}).Delete(ctx, eventID)
}

func (y *memSyncer) AttachMessage(ctx context.Context, playgroundName string, message *model.Message) (string, error) {
	p, ok := y.s.playgrounds[playgroundName]
	if !ok {
		return "", fmt.Errorf("%w: playground %q", storage.ErrNotFound, playgroundName)
	}
	message.PlaygroundName = playgroundName
	id, err := (&memMessages{y.s}).Create(ctx, message)
	if err != nil {
		return "", err
	}
	p.Messages = append(p.Messages, model.MessageRef{ID: message.ID})
	y.s.playgrounds[playgroundName] = p
	return id, nil
}

func (y *memSyncer) DetachMessage(ctx context.Context, messageID string) error {
	m, ok := y.s.messages[messageID]
	if !ok {
		return fmt.Errorf("%w: message %s", storage.ErrNotFound, messageID)
	}
	if p, ok := y.s.playgrounds[m.PlaygroundName]; ok {
		p.Messages = removeMessageRef(p.Messages, m.ID)
		y.s.playgrounds[m.PlaygroundName] = p
	}
	return (&memMessages{y.s}).Delete(ctx, messageID)
}

// --- slice helpers ---

func containsString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func removeString(s []string, v string) []string {
	out := []string{}
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

func containsUserRef(s []model.UserRef, username string) bool {
	for _, x := range s {
		if x.Username == username {
			return true
		}
	}
	return false
}

func removeUserRef(s []model.UserRef, username string) []model.UserRef {
	out := []model.UserRef{}
	for _, x := range s {
		if x.Username != username {
			out = append(out, x)
		}
	}
	return out
}

func containsEventRef(s []model.EventRef, id primitive.ObjectID) bool {
	for _, x := range s {
		if x.ID == id {
			return true
		}
	}
	return false
}

func removeEventRef(s []model.EventRef, id primitive.ObjectID) []model.EventRef {
	out := []model.EventRef{}
	for _, x := range s {
		if x.ID != id {
			out = append(out, x)
		}
	}
	return out
}

func removeMessageRef(s []model.MessageRef, id primitive.ObjectID) []model.MessageRef {
	out := []model.MessageRef{}
	for _, x := range s {
		if x.ID != id {
			out = append(out, x)
		}
	}
	return out
}

// newTestController wires a controller over a fresh memStore.
func newTestController() (*controller, *memStore) {
	s := newMemStore()
	c := newController(
		&memPlaygrounds{s},
		&memUsers{s},
		&memEvents{s},
		&memMessages{s},
		&memSyncer{s},
		&memTx{s},
	)
	return c, s
}
