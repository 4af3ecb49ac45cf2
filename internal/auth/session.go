package auth

import (
	"context"
	"strconv"
	"time"
)

const sessionKeyPrefix = "rt:"

// sessionKV is the slice of the key-value store the session registry needs.
// *cache.Cache satisfies it; tests substitute an in-memory map.
type sessionKV interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	GetDel(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
}

// SessionStore tracks outstanding refresh tokens. A record under rt:{jti}
// exists exactly as long as that refresh token is valid for use; deleting
// the record revokes the token regardless of its embedded expiry.
type SessionStore struct {
	kv sessionKV
}

func NewSessionStore(kv sessionKV) *SessionStore {
	return &SessionStore{kv: kv}
}

func (s *SessionStore) Save(ctx context.Context, jti string, userID int64, ttl time.Duration) error {
	return s.kv.Set(ctx, sessionKeyPrefix+jti, strconv.FormatInt(userID, 10), ttl)
}

func (s *SessionStore) Exists(ctx context.Context, jti string) (bool, error) {
	return s.kv.Exists(ctx, sessionKeyPrefix+jti)
}

// Redeem atomically removes the record and reports the owning user id. Of
// two concurrent redemptions of the same jti exactly one gets ok=true; the
// other sees the record already gone. This is what makes refresh tokens
// single-use under arbitrary interleaving.
func (s *SessionStore) Redeem(ctx context.Context, jti string) (int64, bool, error) {
	val, found, err := s.kv.GetDel(ctx, sessionKeyPrefix+jti)
	if err != nil || !found {
		return 0, false, err
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// Unparseable record: treat as revoked rather than crash the flow.
		return 0, false, nil
	}
	return userID, true, nil
}

// Delete is idempotent; revoking an already-dead token is a no-op.
func (s *SessionStore) Delete(ctx context.Context, jti string) error {
	return s.kv.Delete(ctx, sessionKeyPrefix+jti)
}
