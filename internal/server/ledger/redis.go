package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	writeRecord = "record"
	writeRevoke = "revoke"
	writeRotate = "rotate"
)

// writeScript applies one ledger write for a single owner.
//
// KEYS[1] active set of the owner
// ARGV    mode, token key prefix, owner, token, id, created_at, retention ms
const writeScript = `
local active = KEYS[1]
local mode = ARGV[1]
local prefix = ARGV[2]
local owner = ARGV[3]

local record = mode == "record" or mode == "rotate"
if record and redis.call("EXISTS", prefix .. ARGV[4]) == 1 then
  return redis.error_reply("token already recorded")
end

local revoked = 0
if mode == "revoke" or mode == "rotate" then
  local members = redis.call("SMEMBERS", active)
  for _, t in ipairs(members) do
    local key = prefix .. t
    if redis.call("EXISTS", key) == 1 then
      redis.call("HSET", key, "expired", "1", "revoked", "1")
      revoked = revoked + 1
    end
  end
  redis.call("DEL", active)
end

if record then
  local key = prefix .. ARGV[4]
  redis.call("HSET", key, "id", ARGV[5], "owner", owner, "expired", "0", "revoked", "0", "created_at", ARGV[6])
  local retention = tonumber(ARGV[7])
  if retention > 0 then
    redis.call("PEXPIRE", key, retention)
  end
  redis.call("SADD", active, ARGV[4])
end

return revoked
`

var writeLua = redis.NewScript(writeScript)

// RedisOptions configures RedisLedger.
type RedisOptions struct {
	// Prefix namespaces every key. Defaults to "gophauth".
	Prefix string
	// Retention bounds how long an entry is kept. Zero keeps entries forever;
	// a missing entry is reported as not valid.
	Retention time.Duration
}

// RedisLedger keeps entries as hashes tok:<token> plus a set active:<owner>.
// Each write is a single Lua script and therefore atomic.
type RedisLedger struct {
	rdb       redis.UniversalClient
	prefix    string
	retention time.Duration
}

func NewRedisLedger(rdb redis.UniversalClient, opts RedisOptions) *RedisLedger {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "gophauth"
	}
	return &RedisLedger{rdb: rdb, prefix: prefix, retention: opts.Retention}
}

func (l *RedisLedger) tokenPrefix() string {
	return l.prefix + ":tok:"
}

func (l *RedisLedger) tokenKey(token string) string {
	return l.tokenPrefix() + token
}

func (l *RedisLedger) activeKey(owner string) string {
	return l.prefix + ":active:" + owner
}

func (l *RedisLedger) write(ctx context.Context, mode, owner, token string) error {
	err := writeLua.Run(ctx, l.rdb, []string{l.activeKey(owner)},
		mode,
		l.tokenPrefix(),
		owner,
		token,
		uuid.NewString(),
		time.Now().UTC().Format(time.RFC3339Nano),
		l.retention.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (l *RedisLedger) Record(ctx context.Context, token, owner string) error {
	return l.write(ctx, writeRecord, owner, token)
}

func (l *RedisLedger) RevokeAll(ctx context.Context, owner string) error {
	return l.write(ctx, writeRevoke, owner, "")
}

func (l *RedisLedger) Rotate(ctx context.Context, owner, token string) error {
	return l.write(ctx, writeRotate, owner, token)
}

func (l *RedisLedger) ActiveTokensFor(ctx context.Context, owner string) ([]*models.IssuedToken, error) {
	members, err := l.rdb.SMembers(ctx, l.activeKey(owner)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}

	cmds := make([]*redis.MapStringStringCmd, len(members))
	_, err = l.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, m := range members {
			cmds[i] = pipe.HGetAll(ctx, l.tokenKey(m))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}

	result := make([]*models.IssuedToken, 0, len(members))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		entry := entryFromHash(members[i], fields)
		if entry.Active() {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (l *RedisLedger) IsValid(ctx context.Context, token string) (bool, error) {
	vals, err := l.rdb.HMGet(ctx, l.tokenKey(token), "expired", "revoked").Result()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return vals[0] == "0" && vals[1] == "0", nil
}

func (l *RedisLedger) OwnerOf(ctx context.Context, token string) (string, error) {
	owner, err := l.rdb.HGet(ctx, l.tokenKey(token), "owner").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("redis error: %w", err)
	}
	return owner, nil
}

func entryFromHash(token string, h map[string]string) *models.IssuedToken {
	entry := &models.IssuedToken{
		ID:       h["id"],
		Token:    token,
		Username: h["owner"],
		Expired:  h["expired"] == "1",
		Revoked:  h["revoked"] == "1",
	}
	if ts, err := time.Parse(time.RFC3339Nano, h["created_at"]); err == nil {
		entry.CreatedAt = ts
	}
	return entry
}
