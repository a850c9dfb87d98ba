package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// legacyCredentialKeys are the key names older dashboard builds stored the
// upstream bearer token under. Lookups probe them in order; first match wins.
var legacyCredentialKeys = []string{"access_token", "auth_token", "token"}

const (
	scopePersistent = "persistent"
	scopeSession    = "session"
)

func credentialKey(scope, userID, name string) string {
	return fmt.Sprintf("cred:%s:%s:%s", scope, userID, name)
}

// SaveCredential stores a user's upstream API token. Persistent credentials
// have no expiry; session-scoped ones live for ttl.
func (s *RedisStore) SaveCredential(ctx context.Context, userID, token string, persistent bool, ttl time.Duration) error {
	scope := scopeSession
	expiry := ttl
	if persistent {
		scope = scopePersistent
		expiry = 0
	}
	if err := s.client.Set(ctx, credentialKey(scope, userID, legacyCredentialKeys[0]), token, expiry).Err(); err != nil {
		return fmt.Errorf("save upstream credential: %w", err)
	}
	return nil
}

// ClearCredentials removes a user's stored upstream tokens in both scopes
// and under every legacy key name.
func (s *RedisStore) ClearCredentials(ctx context.Context, userID string) error {
	var keys []string
	for _, scope := range []string{scopePersistent, scopeSession} {
		for _, name := range legacyCredentialKeys {
			keys = append(keys, credentialKey(scope, userID, name))
		}
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("clear upstream credentials: %w", err)
	}
	return nil
}

// LookupCredential probes the persistent scope then the session scope, each
// under every legacy key name, and returns the first token found.
func (s *RedisStore) LookupCredential(ctx context.Context, userID string) (string, bool, error) {
	for _, scope := range []string{scopePersistent, scopeSession} {
		for _, name := range legacyCredentialKeys {
			value, err := s.client.Get(ctx, credentialKey(scope, userID, name)).Result()
			if err == redis.Nil {
				continue
			}
			if err != nil {
				return "", false, fmt.Errorf("lookup upstream credential: %w", err)
			}
			if value != "" {
				return value, true, nil
			}
		}
	}
	return "", false, nil
}

// CredentialResolver resolves the upstream bearer token for a user:
// explicit value, then the stored scopes, then the service-wide fallback.
type CredentialResolver struct {
	Store    *RedisStore
	Fallback string
}

func (r *CredentialResolver) Credential(ctx context.Context, userID, explicit string) (string, bool) {
	if explicit != "" {
		return explicit, true
	}
	if r.Store != nil {
		if token, ok, err := r.Store.LookupCredential(ctx, userID); err == nil && ok {
			return token, true
		}
	}
	if r.Fallback != "" {
		return r.Fallback, true
	}
	return "", false
}
