package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/storefront-auth/internal/domain/session"
)

var _ session.Store = (*RefreshTokenRepo)(nil)

type RefreshTokenRepo struct{ db *DB }

func NewRefreshTokenRepo(db *DB) *RefreshTokenRepo { return &RefreshTokenRepo{db: db} }

const (
	qRTCreate = `
INSERT INTO refresh_tokens(subject_id, token, expires_at)
VALUES ($1, $2, $3)
RETURNING id;
`
	qRTListBySubject = `
SELECT id, subject_id, token, expires_at
FROM refresh_tokens
WHERE subject_id = $1
ORDER BY id;
`
	qRTDeleteByToken = `
DELETE FROM refresh_tokens WHERE token = $1;
`
	qRTDeleteBySubject = `
DELETE FROM refresh_tokens WHERE subject_id = $1;
`
	qRTDeleteExpired = `
DELETE FROM refresh_tokens WHERE expires_at <= $1;
`
)

func (r *RefreshTokenRepo) Create(ctx context.Context, t *session.RefreshToken) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if err := r.db.execQueryer(ctx).QueryRow(ctx, qRTCreate, t.SubjectID, t.Token, t.ExpiresAt).Scan(&t.ID); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create refresh: %w", ErrConflict)
		}
		return fmt.Errorf("create refresh: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepo) ListBySubject(ctx context.Context, subjectID int64) ([]session.RefreshToken, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qRTListBySubject, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list refresh: %w", err)
	}
	defer rows.Close()

	var out []session.RefreshToken
	for rows.Next() {
		var t session.RefreshToken
		if err := rows.Scan(&t.ID, &t.SubjectID, &t.Token, &t.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan refresh: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list refresh: %w", err)
	}
	return out, nil
}

// DeleteByToken is the conditional delete rotation relies on: of two
// concurrent callers only one sees a non-zero row count.
func (r *RefreshTokenRepo) DeleteByToken(ctx context.Context, token string) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qRTDeleteByToken, token)
	if err != nil {
		return false, fmt.Errorf("delete refresh: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RefreshTokenRepo) DeleteBySubject(ctx context.Context, subjectID int64) (int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qRTDeleteBySubject, subjectID)
	if err != nil {
		return 0, fmt.Errorf("delete subject refresh: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *RefreshTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qRTDeleteExpired, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh: %w", err)
	}
	return tag.RowsAffected(), nil
}
