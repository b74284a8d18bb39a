package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/NordCoder/storefront-auth/internal/domain/session"
)

var _ session.Store = (*RefreshTokenRepo)(nil)

var ErrConflict = errors.New("refresh token already stored")

const minTTL = time.Second

// RefreshTokenRepo stores refresh records in Redis:
//
//	<prefix>token:<token>  JSON record, expires with the token
//	<prefix>subject:<id>   set of the subject's tokens
//	<prefix>expiry         zset of tokens scored by expiry (unix ms)
//	<prefix>seq            record id counter
//
// GETDEL on the token key is the single point that decides which caller
// removed a record.
type RefreshTokenRepo struct {
	client goredis.UniversalClient
	prefix string
}

func NewRefreshTokenRepo(client goredis.UniversalClient, prefix string) *RefreshTokenRepo {
	if prefix == "" {
		prefix = "refresh:"
	}
	return &RefreshTokenRepo{client: client, prefix: prefix}
}

type record struct {
	ID        int64     `json:"id"`
	SubjectID int64     `json:"subjectId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (r *RefreshTokenRepo) tokenKey(token string) string { return r.prefix + "token:" + token }
func (r *RefreshTokenRepo) subjectKey(id int64) string {
	return r.prefix + "subject:" + strconv.FormatInt(id, 10)
}
func (r *RefreshTokenRepo) expiryKey() string { return r.prefix + "expiry" }
func (r *RefreshTokenRepo) seqKey() string    { return r.prefix + "seq" }

func (r *RefreshTokenRepo) Create(ctx context.Context, t *session.RefreshToken) error {
	id, err := r.client.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return fmt.Errorf("next refresh id: %w", err)
	}
	b, err := json.Marshal(record{ID: id, SubjectID: t.SubjectID, ExpiresAt: t.ExpiresAt})
	if err != nil {
		return fmt.Errorf("encode refresh: %w", err)
	}
	ttl := time.Until(t.ExpiresAt)
	if ttl < minTTL {
		ttl = minTTL
	}

	ok, err := r.client.SetNX(ctx, r.tokenKey(t.Token), b, ttl).Result()
	if err != nil {
		return fmt.Errorf("create refresh: %w", err)
	}
	if !ok {
		return fmt.Errorf("create refresh: %w", ErrConflict)
	}

	_, err = r.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.SAdd(ctx, r.subjectKey(t.SubjectID), t.Token)
		p.ZAdd(ctx, r.expiryKey(), goredis.Z{Score: float64(t.ExpiresAt.UnixMilli()), Member: t.Token})
		return nil
	})
	if err != nil {
		_ = r.client.Del(ctx, r.tokenKey(t.Token)).Err()
		return fmt.Errorf("index refresh: %w", err)
	}
	t.ID = id
	return nil
}

func (r *RefreshTokenRepo) ListBySubject(ctx context.Context, subjectID int64) ([]session.RefreshToken, error) {
	tokens, err := r.client.SMembers(ctx, r.subjectKey(subjectID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list refresh: %w", err)
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	keys := make([]string, len(tokens))
	for i, tok := range tokens {
		keys[i] = r.tokenKey(tok)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load refresh: %w", err)
	}

	out := make([]session.RefreshToken, 0, len(tokens))
	var stale []any
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			stale = append(stale, tokens[i])
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("decode refresh: %w", err)
		}
		out = append(out, session.RefreshToken{
			ID:        rec.ID,
			SubjectID: rec.SubjectID,
			Token:     tokens[i],
			ExpiresAt: rec.ExpiresAt,
		})
	}
	if len(stale) > 0 {
		// token keys that Redis already expired
		_ = r.client.SRem(ctx, r.subjectKey(subjectID), stale...).Err()
		_ = r.client.ZRem(ctx, r.expiryKey(), stale...).Err()
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *RefreshTokenRepo) DeleteByToken(ctx context.Context, token string) (bool, error) {
	b, err := r.client.GetDel(ctx, r.tokenKey(token)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete refresh: %w", err)
	}

	var rec record
	if err := json.Unmarshal(b, &rec); err != nil {
		return true, fmt.Errorf("decode refresh: %w", err)
	}
	if err := r.unindex(ctx, rec.SubjectID, token); err != nil {
		return true, err
	}
	return true, nil
}

func (r *RefreshTokenRepo) DeleteBySubject(ctx context.Context, subjectID int64) (int64, error) {
	tokens, err := r.client.SMembers(ctx, r.subjectKey(subjectID)).Result()
	if err != nil {
		return 0, fmt.Errorf("list refresh: %w", err)
	}
	if len(tokens) == 0 {
		return 0, nil
	}

	keys := make([]string, len(tokens))
	members := make([]any, len(tokens))
	for i, tok := range tokens {
		keys[i] = r.tokenKey(tok)
		members[i] = tok
	}

	var del *goredis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		del = p.Del(ctx, keys...)
		p.SRem(ctx, r.subjectKey(subjectID), members...)
		p.ZRem(ctx, r.expiryKey(), members...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete subject refresh: %w", err)
	}
	return del.Val(), nil
}

func (r *RefreshTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tokens, err := r.client.ZRangeByScore(ctx, r.expiryKey(), &goredis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("scan expired refresh: %w", err)
	}

	var n int64
	for _, tok := range tokens {
		removed, err := r.client.ZRem(ctx, r.expiryKey(), tok).Result()
		if err != nil {
			return n, fmt.Errorf("delete expired refresh: %w", err)
		}
		if removed == 0 {
			// a concurrent delete got there first
			continue
		}
		b, err := r.client.GetDel(ctx, r.tokenKey(tok)).Bytes()
		if errors.Is(err, goredis.Nil) {
			// already removed by DeleteByToken or by key expiry
			continue
		}
		if err != nil {
			return n, fmt.Errorf("delete expired refresh: %w", err)
		}
		n++
		var rec record
		if json.Unmarshal(b, &rec) == nil {
			_ = r.client.SRem(ctx, r.subjectKey(rec.SubjectID), tok).Err()
		}
	}
	return n, nil
}

func (r *RefreshTokenRepo) unindex(ctx context.Context, subjectID int64, token string) error {
	_, err := r.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.SRem(ctx, r.subjectKey(subjectID), token)
		p.ZRem(ctx, r.expiryKey(), token)
		return nil
	})
	if err != nil {
		return fmt.Errorf("unindex refresh: %w", err)
	}
	return nil
}
