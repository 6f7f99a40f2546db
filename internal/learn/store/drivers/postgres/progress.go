package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/aussiebroadwan/learn/internal/learn/store"
	"github.com/jackc/pgx/v5"
)

type progressRepo struct {
	q querier
}

const progressColumns = `id, user_id, item_slug, item_type, status, progress_data, started_at, updated_at, completed_at`

func scanProgress(row pgx.Row) (domain.ProgressRecord, error) {
	var (
		rec            domain.ProgressRecord
		itemType, stat string
		data           []byte
		completed      *time.Time
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.ItemSlug, &itemType, &stat,
		&data, &rec.StartedAt, &rec.UpdatedAt, &completed); err != nil {
		return domain.ProgressRecord{}, err
	}

	rec.ItemType = domain.ItemType(itemType)
	rec.Status = domain.ProgressStatus(stat)
	rec.ProgressData = json.RawMessage(data)
	rec.StartedAt = rec.StartedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	if completed != nil {
		c := completed.UTC()
		rec.CompletedAt = &c
	}
	return rec, nil
}

func progressData(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}

func (r *progressRepo) GetProgress(
	ctx context.Context,
	userID string,
	itemType domain.ItemType,
	itemSlug string,
) (domain.ProgressRecord, error) {
	var row pgx.Row
	if itemSlug != "" {
		row = r.q.QueryRow(ctx,
			`SELECT `+progressColumns+` FROM user_progress
			 WHERE user_id = $1 AND item_type = $2 AND item_slug = $3`,
			userID, string(itemType), itemSlug)
	} else {
		row = r.q.QueryRow(ctx,
			`SELECT `+progressColumns+` FROM user_progress
			 WHERE user_id = $1 AND item_type = $2
			 ORDER BY updated_at DESC, id DESC LIMIT 1`,
			userID, string(itemType))
	}

	rec, err := scanProgress(row)
	if err != nil {
		return domain.ProgressRecord{}, mapNotFound(err)
	}
	return rec, nil
}

func (r *progressRepo) UpsertProgress(ctx context.Context, rec domain.ProgressRecord) (domain.ProgressRecord, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO user_progress (`+progressColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9)
		ON CONFLICT (user_id, item_slug) DO UPDATE SET
			status        = EXCLUDED.status,
			progress_data = EXCLUDED.progress_data,
			updated_at    = EXCLUDED.updated_at,
			completed_at  = CASE
				WHEN EXCLUDED.status = 'completed'
				THEN COALESCE(user_progress.completed_at, EXCLUDED.completed_at)
				ELSE NULL
			END
		WHERE user_progress.item_type = EXCLUDED.item_type
		RETURNING `+progressColumns,
		rec.ID, rec.UserID, rec.ItemSlug, string(rec.ItemType), string(rec.Status), progressData(rec.ProgressData),
		rec.StartedAt.UTC(), rec.UpdatedAt.UTC(), rec.CompletedAt,
	)
	got, err := scanProgress(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// The slug is tracked under another item type.
		return domain.ProgressRecord{}, store.ErrAlreadyExists
	}
	return got, err
}

func (r *progressRepo) InsertProgressIfAbsent(ctx context.Context, rec domain.ProgressRecord) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO user_progress (`+progressColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9)
		ON CONFLICT (user_id, item_slug) DO NOTHING`,
		rec.ID, rec.UserID, rec.ItemSlug, string(rec.ItemType), string(rec.Status), progressData(rec.ProgressData),
		rec.StartedAt.UTC(), rec.UpdatedAt.UTC(), rec.CompletedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *progressRepo) ListProgressByUser(ctx context.Context, userID string) ([]domain.ProgressRecord, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+progressColumns+` FROM user_progress
		 WHERE user_id = $1 ORDER BY updated_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ProgressRecord
	for rows.Next() {
		rec, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *progressRepo) CountProgress(ctx context.Context, userID, itemSlug string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_progress WHERE user_id = $1 AND item_slug = $2`,
		userID, itemSlug).Scan(&n)
	return n, err
}
