package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kbh-legepladser/playground-api/internal/model"
)

// Validation rejects bad input before any collection access, so these tests
// run against a zero Store: reaching the driver would panic and fail the test.

func TestPlaygroundValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := &Playgrounds{s: &Store{}}

	_, err := r.Create(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = r.Create(ctx, &model.Playground{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = r.Get(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.ErrorIs(t, r.Update(ctx, nil), ErrInvalidInput)
	assert.ErrorIs(t, r.Update(ctx, &model.Playground{}), ErrInvalidInput)
	assert.ErrorIs(t, r.Delete(ctx, ""), ErrInvalidInput)
}

func TestUserValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := &Users{s: &Store{}}

	_, err := r.Create(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = r.Create(ctx, &model.User{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = r.Get(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.ErrorIs(t, r.Delete(ctx, ""), ErrInvalidInput)
}

func TestEventIDParsing(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "empty", id: "", wantErr: true},
		{name: "not_hex", id: "slyngerparken", wantErr: true},
		{name: "too_short", id: "abc123", wantErr: true},
		{name: "valid", id: "665f1f77bcf86cd799439011", wantErr: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			oid, err := eventID(tt.id)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, oid.Hex())
		})
	}
}

func TestMessageIDParsing(t *testing.T) {
	t.Parallel()

	_, err := messageID("")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = messageID("not-an-id")
	assert.ErrorIs(t, err, ErrInvalidInput)

	oid, err := messageID("665f1f77bcf86cd799439011")
	require.NoError(t, err)
	assert.Equal(t, "665f1f77bcf86cd799439011", oid.Hex())
}

func TestEventValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := &Events{s: &Store{}}

	_, err := r.Create(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = r.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = r.ListByPlayground(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.ErrorIs(t, r.Update(ctx, &model.Event{}), ErrInvalidInput)
	assert.ErrorIs(t, r.Delete(ctx, "nope"), ErrInvalidInput)
}

func TestMessageValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := &Messages{s: &Store{}}

	_, err := r.Create(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = r.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = r.ListByPlayground(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.ErrorIs(t, r.Update(ctx, &model.Message{}), ErrInvalidInput)
	assert.ErrorIs(t, r.Delete(ctx, "nope"), ErrInvalidInput)
}

func TestConnectValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := Connect(ctx, Config{Database: "db"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Connect(ctx, Config{URI: "mongodb://localhost:27017"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	err := readErr("get", mongo.ErrNoDocuments)
	assert.ErrorIs(t, err, ErrNotFound)

	err = readErr("get", errors.New("socket closed"))
	assert.ErrorIs(t, err, ErrUnavailable)

	err = writeErr("insert", errors.New("socket closed"))
	assert.ErrorIs(t, err, ErrUnavailable)

	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
	err = writeErr("insert", dup)
	assert.ErrorIs(t, err, ErrWriteFailed)
}
