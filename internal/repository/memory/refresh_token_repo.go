package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/NordCoder/storefront-auth/internal/domain/session"
)

var _ session.Store = (*RefreshTokenRepo)(nil)

// RefreshTokenRepo keeps refresh records in process memory. It backs local
// runs and tests; every method holds one lock so each call is atomic.
type RefreshTokenRepo struct {
	mu      sync.Mutex
	seq     int64
	byToken map[string]session.RefreshToken
}

func NewRefreshTokenRepo() *RefreshTokenRepo {
	return &RefreshTokenRepo{byToken: make(map[string]session.RefreshToken)}
}

func (r *RefreshTokenRepo) Create(_ context.Context, t *session.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byToken[t.Token]; ok {
		return ErrConflict
	}
	r.seq++
	t.ID = r.seq
	r.byToken[t.Token] = *t
	return nil
}

func (r *RefreshTokenRepo) ListBySubject(_ context.Context, subjectID int64) ([]session.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []session.RefreshToken
	for _, t := range r.byToken {
		if t.SubjectID == subjectID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *RefreshTokenRepo) DeleteByToken(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byToken[token]; !ok {
		return false, nil
	}
	delete(r.byToken, token)
	return true, nil
}

func (r *RefreshTokenRepo) DeleteBySubject(_ context.Context, subjectID int64) (int64, error) {
	return r.deleteWhere(func(t session.RefreshToken) bool { return t.SubjectID == subjectID }), nil
}

func (r *RefreshTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	return r.deleteWhere(func(t session.RefreshToken) bool { return !t.ExpiresAt.After(now) }), nil
}

func (r *RefreshTokenRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byToken)
}

func (r *RefreshTokenRepo) deleteWhere(match func(session.RefreshToken) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for token, t := range r.byToken {
		if match(t) {
			delete(r.byToken, token)
			n++
		}
	}
	return n
}
