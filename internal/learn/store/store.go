package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface implemented by the sqlite and
// postgres drivers. Sub-repositories are reached through methods so a Tx
// scoped store can hand out the same repos bound to its transaction.
type Store interface {
	Progress() Progress
	Verifiers() Verifiers

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller must Commit or
	// Rollback the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store. Nested transactions are not supported.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Progress interface {
	// GetProgress returns the record for (userID, itemType, itemSlug). With
	// an empty itemSlug the most recently updated record of that type is
	// returned. ErrNotFound when there is none.
	GetProgress(ctx context.Context, userID string, itemType domain.ItemType, itemSlug string) (domain.ProgressRecord, error)

	// UpsertProgress inserts rec or, when (user_id, item_slug) exists with
	// the same item type, updates its status, data and timestamps in the
	// same statement. started_at and id of an existing row are kept.
	// ErrAlreadyExists when the slug is tracked under another item type.
	// Returns the stored row.
	UpsertProgress(ctx context.Context, rec domain.ProgressRecord) (domain.ProgressRecord, error)

	// InsertProgressIfAbsent inserts rec unless (user_id, item_slug) exists.
	// It reports whether a row was written.
	InsertProgressIfAbsent(ctx context.Context, rec domain.ProgressRecord) (bool, error)

	// ListProgressByUser returns every record of userID, newest first.
	ListProgressByUser(ctx context.Context, userID string) ([]domain.ProgressRecord, error)

	// CountProgress counts rows for (userID, itemSlug). Always 0 or 1.
	CountProgress(ctx context.Context, userID, itemSlug string) (int, error)
}

type Verifiers interface {
	// CreateVerifier stores v keyed by its flow id. ErrAlreadyExists when
	// the flow id is taken.
	CreateVerifier(ctx context.Context, v domain.CodeVerifier) error

	// TakeVerifier deletes and returns the verifier for flowID in one step.
	// Expired or missing verifiers are ErrNotFound.
	TakeVerifier(ctx context.Context, flowID string) (domain.CodeVerifier, error)

	// DeleteExpiredVerifiers is housekeeping for abandoned flows.
	DeleteExpiredVerifiers(ctx context.Context) (int64, error)
}
