package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/aussiebroadwan/learn/internal/learn/store"
)

type verifiersRepo struct {
	q   dbtx
	now func() time.Time
}

func (r *verifiersRepo) CreateVerifier(ctx context.Context, v domain.CodeVerifier) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO oauth_verifiers (flow_id, verifier, callback_url, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		v.FlowID, v.Value, v.CallbackURL, toMillis(v.CreatedAt), toMillis(v.ExpiresAt))
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *verifiersRepo) TakeVerifier(ctx context.Context, flowID string) (domain.CodeVerifier, error) {
	var (
		v                domain.CodeVerifier
		created, expires int64
	)
	err := r.q.QueryRowContext(ctx,
		`DELETE FROM oauth_verifiers WHERE flow_id = ?
		 RETURNING flow_id, verifier, callback_url, created_at, expires_at`, flowID).
		Scan(&v.FlowID, &v.Value, &v.CallbackURL, &created, &expires)
	if err != nil {
		return domain.CodeVerifier{}, mapNotFound(err)
	}

	v.CreatedAt = fromMillis(created)
	v.ExpiresAt = fromMillis(expires)
	if v.Expired(r.now()) {
		return domain.CodeVerifier{}, store.ErrNotFound
	}
	return v, nil
}

func (r *verifiersRepo) DeleteExpiredVerifiers(ctx context.Context) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM oauth_verifiers WHERE expires_at <= ?`, toMillis(r.now()))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
