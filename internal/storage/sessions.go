package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Sessions groups multi-collection mutations into a single transaction.
//
// Run is deliberately explicit about begin/commit/abort instead of using the
// driver's WithTransaction helper: that helper retries transient failures,
// and retries are a caller decision here, not the coordinator's.
type Sessions struct {
	s *Store
}

// Run executes fn inside one session and one transaction. The context passed
// to fn carries the session; every repository and refsync call made with it
// joins the transaction. On any error from fn the transaction is aborted and
// the error is returned unchanged. Sessions must not nest: fn must not call
// Run again.
func (tx *Sessions) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := tx.s.client.StartSession()
	if err != nil {
		return fmt.Errorf("%w: start session: %v", ErrUnavailable, err)
	}
	defer sess.EndSession(ctx)

	txnID := uuid.NewString()
	log := tx.s.log.With(zap.String("txn_id", txnID))

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sess.StartTransaction(); err != nil {
			return fmt.Errorf("%w: start transaction: %v", ErrUnavailable, err)
		}

		if err := fn(sc); err != nil {
			if abortErr := sess.AbortTransaction(sc); abortErr != nil {
				log.Warn("abort failed", zap.Error(abortErr))
			}
			log.Debug("transaction aborted", zap.Error(err))
			return err
		}

		if err := sess.CommitTransaction(sc); err != nil {
			return fmt.Errorf("%w: commit: %v", ErrUnavailable, err)
		}
		log.Debug("transaction committed")
		return nil
	})
}
