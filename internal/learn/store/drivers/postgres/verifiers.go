package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/aussiebroadwan/learn/internal/learn/store"
)

type verifiersRepo struct {
	q   querier
	now func() time.Time
}

func (r *verifiersRepo) CreateVerifier(ctx context.Context, v domain.CodeVerifier) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO oauth_verifiers (flow_id, verifier, callback_url, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		v.FlowID, v.Value, v.CallbackURL, v.CreatedAt.UTC(), v.ExpiresAt.UTC())
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *verifiersRepo) TakeVerifier(ctx context.Context, flowID string) (domain.CodeVerifier, error) {
	var v domain.CodeVerifier
	err := r.q.QueryRow(ctx,
		`DELETE FROM oauth_verifiers WHERE flow_id = $1
		 RETURNING flow_id, verifier, callback_url, created_at, expires_at`, flowID).
		Scan(&v.FlowID, &v.Value, &v.CallbackURL, &v.CreatedAt, &v.ExpiresAt)
	if err != nil {
		return domain.CodeVerifier{}, mapNotFound(err)
	}

	v.CreatedAt = v.CreatedAt.UTC()
	v.ExpiresAt = v.ExpiresAt.UTC()
	if v.Expired(r.now()) {
		return domain.CodeVerifier{}, store.ErrNotFound
	}
	return v, nil
}

func (r *verifiersRepo) DeleteExpiredVerifiers(ctx context.Context) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM oauth_verifiers WHERE expires_at <= $1`, r.now().UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
