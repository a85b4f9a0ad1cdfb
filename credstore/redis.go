package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a Redis keyspace. Each client namespace owns two
// keys: one for the credential pair, one for the identity snapshot. An
// optional TTL bounds how long a persisted credential outlives the last save.
type Redis struct {
	rdb       *redis.Client
	namespace string
	ttl       time.Duration
}

// NewRedis creates a Redis-backed store. namespace scopes the keys (typically
// one namespace per device or profile); ttl of zero means no expiry.
func NewRedis(rdb *redis.Client, namespace string, ttl time.Duration) *Redis {
	if namespace == "" {
		namespace = "authkit"
	}
	return &Redis{rdb: rdb, namespace: namespace, ttl: ttl}
}

func (r *Redis) credentialKey() string {
	return r.namespace + ":credential"
}

func (r *Redis) identityKey() string {
	return r.namespace + ":identity"
}

// LoadCredential returns the persisted token pair. A missing key, undecodable
// value, or half-present pair loads as absent.
func (r *Redis) LoadCredential(ctx context.Context) (Credential, error) {
	data, err := r.rdb.Get(ctx, r.credentialKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Credential{}, nil
		}
		return Credential{}, err
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return Credential{}, nil
	}
	if !cred.Present() {
		return Credential{}, nil
	}
	return cred, nil
}

// SaveCredential persists the token pair. A non-present pair clears instead.
func (r *Redis) SaveCredential(ctx context.Context, cred Credential) error {
	if !cred.Present() {
		return r.ClearCredential(ctx)
	}
	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.credentialKey(), data, r.ttl).Err()
}

// ClearCredential removes the persisted token pair.
func (r *Redis) ClearCredential(ctx context.Context) error {
	return r.rdb.Del(ctx, r.credentialKey()).Err()
}

// LoadIdentity returns the persisted identity snapshot, or absent.
func (r *Redis) LoadIdentity(ctx context.Context) (Identity, error) {
	data, err := r.rdb.Get(ctx, r.identityKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Identity{}, nil
		}
		return Identity{}, err
	}

	var identity Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return Identity{}, nil
	}
	return identity, nil
}

// SaveIdentity persists the identity snapshot.
func (r *Redis) SaveIdentity(ctx context.Context, identity Identity) error {
	if !identity.Present() {
		return r.ClearIdentity(ctx)
	}
	data, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.identityKey(), data, r.ttl).Err()
}

// ClearIdentity removes the persisted identity snapshot.
func (r *Redis) ClearIdentity(ctx context.Context) error {
	return r.rdb.Del(ctx, r.identityKey()).Err()
}
