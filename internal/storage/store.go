// Package storage provides the MongoDB-backed repositories for playgrounds,
// users, events and messages, plus the session coordinator that groups
// multi-collection mutations into transactions.
//
// Repositories are strictly single-collection: no repository reads or writes
// another repository's collection. Cross-collection consistency is the job of
// the refsync package, running inside a Sessions.Run scope.
package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Collection names. Exported so tests can assert against raw collections.
const (
	CollPlaygrounds = "playgrounds"
	CollUsers       = "users"
	CollEvents      = "events"
	CollMessages    = "messages"
)

const defaultConnectTimeout = 10 * time.Second

// Config holds the connection settings for the store.
type Config struct {
	// URI is the MongoDB connection string.
	URI string
	// Database is the database name holding all four collections.
	Database string
	// ConnectTimeout bounds the initial connect and ping. Zero means the
	// default of 10s.
	ConnectTimeout time.Duration
}

// Store wraps the Mongo client and database handle shared by all
// repositories. The client is safe for concurrent use; each request-scoped
// operation obtains its own session via Sessions.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used by the store and its session coordinator.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// Connect establishes the Mongo connection and verifies it with a ping.
func Connect(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("%w: mongo URI is required", ErrInvalidInput)
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("%w: database name is required", ErrInvalidInput)
	}

	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = defaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrUnavailable, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}

	s := &Store{
		client: client,
		db:     client.Database(cfg.Database),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log.Info("connected to store", zap.String("database", cfg.Database))
	return s, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("%w: disconnect: %v", ErrUnavailable, err)
	}
	return nil
}

// UseDatabase redirects all repositories to another database on the same
// client. It exists so tests can point the whole stack at an isolated
// database without touching call sites; it is not meant to be called while
// requests are in flight.
func (s *Store) UseDatabase(name string) {
	s.db = s.client.Database(name)
	s.log.Info("data source switched", zap.String("database", name))
}

// Database exposes the current database handle for packages that need raw
// collection access (refsync).
func (s *Store) Database() *mongo.Database {
	return s.db
}

// Playgrounds returns the playground repository.
func (s *Store) Playgrounds() *Playgrounds { return &Playgrounds{s: s} }

// Users returns the user repository.
func (s *Store) Users() *Users { return &Users{s: s} }

// Events returns the event repository.
func (s *Store) Events() *Events { return &Events{s: s} }

// Messages returns the message repository.
func (s *Store) Messages() *Messages { return &Messages{s: s} }

// Sessions returns the session coordinator.
func (s *Store) Sessions() *Sessions { return &Sessions{s: s} }
