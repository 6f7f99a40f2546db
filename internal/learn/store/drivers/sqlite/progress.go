package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/aussiebroadwan/learn/internal/learn/store"
)

type progressRepo struct {
	q dbtx
}

const progressColumns = `id, user_id, item_slug, item_type, status, progress_data, started_at, updated_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProgress(row rowScanner) (domain.ProgressRecord, error) {
	var (
		rec       domain.ProgressRecord
		data      string
		started   int64
		updated   int64
		completed sql.NullInt64
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.ItemSlug, &rec.ItemType, &rec.Status,
		&data, &started, &updated, &completed); err != nil {
		return domain.ProgressRecord{}, err
	}

	rec.ProgressData = json.RawMessage(data)
	rec.StartedAt = fromMillis(started)
	rec.UpdatedAt = fromMillis(updated)
	rec.CompletedAt = mapNullTimePtr(completed)
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
	var row *sql.Row
	if itemSlug != "" {
		row = r.q.QueryRowContext(ctx,
			`SELECT `+progressColumns+` FROM user_progress
			 WHERE user_id = ? AND item_type = ? AND item_slug = ?`,
			userID, itemType, itemSlug)
	} else {
		row = r.q.QueryRowContext(ctx,
			`SELECT `+progressColumns+` FROM user_progress
			 WHERE user_id = ? AND item_type = ?
			 ORDER BY updated_at DESC, id DESC LIMIT 1`,
			userID, itemType)
	}

	rec, err := scanProgress(row)
	if err != nil {
		return domain.ProgressRecord{}, mapNotFound(err)
	}
	return rec, nil
}

func (r *progressRepo) UpsertProgress(ctx context.Context, rec domain.ProgressRecord) (domain.ProgressRecord, error) {
	row := r.q.QueryRowContext(ctx, `
		INSERT INTO user_progress (`+progressColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, item_slug) DO UPDATE SET
			status        = excluded.status,
			progress_data = excluded.progress_data,
			updated_at    = excluded.updated_at,
			completed_at  = CASE
				WHEN excluded.status = 'completed'
				THEN COALESCE(user_progress.completed_at, excluded.completed_at)
				ELSE NULL
			END
		WHERE user_progress.item_type = excluded.item_type
		RETURNING `+progressColumns,
		rec.ID, rec.UserID, rec.ItemSlug, rec.ItemType, rec.Status, progressData(rec.ProgressData),
		toMillis(rec.StartedAt), toMillis(rec.UpdatedAt), mapOptionalTime(rec.CompletedAt),
	)
	got, err := scanProgress(row)
	if errors.Is(err, sql.ErrNoRows) {
		// The slug is tracked under another item type.
		return domain.ProgressRecord{}, store.ErrAlreadyExists
	}
	return got, err
}

func (r *progressRepo) InsertProgressIfAbsent(ctx context.Context, rec domain.ProgressRecord) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO user_progress (`+progressColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, item_slug) DO NOTHING`,
		rec.ID, rec.UserID, rec.ItemSlug, rec.ItemType, rec.Status, progressData(rec.ProgressData),
		toMillis(rec.StartedAt), toMillis(rec.UpdatedAt), mapOptionalTime(rec.CompletedAt),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *progressRepo) ListProgressByUser(ctx context.Context, userID string) ([]domain.ProgressRecord, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+progressColumns+` FROM user_progress
		 WHERE user_id = ? ORDER BY updated_at DESC, id DESC`, userID)
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
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_progress WHERE user_id = ? AND item_slug = ?`,
		userID, itemSlug).Scan(&n)
	return n, err
}
