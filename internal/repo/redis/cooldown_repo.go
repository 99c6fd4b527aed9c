package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Times are passed in by the caller in unix milliseconds so the script never reads the server clock.
// A caller whose clock is behind the stored mark waits a full cooldown.
const acquireCooldownScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local cooldown = tonumber(ARGV[2])

local last = tonumber(redis.call("GET", key))
if last ~= nil then
	local elapsed = now - last
	if elapsed < 0 then
		return cooldown
	end
	if elapsed < cooldown then
		return cooldown - elapsed
	end
end

redis.call("SET", key, ARGV[1], "PX", cooldown)
return 0
`

const releaseCooldownScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

var (
	acquireCooldown = goredis.NewScript(acquireCooldownScript)
	releaseCooldown = goredis.NewScript(releaseCooldownScript)
)

type CooldownRepo struct {
	client *goredis.Client
}

func NewCooldownRepo(client *goredis.Client) *CooldownRepo {
	return &CooldownRepo{client: client}
}

func (r *CooldownRepo) Acquire(ctx context.Context, key string, now time.Time, cooldown time.Duration) (time.Duration, bool, error) {
	if r.client == nil {
		return 0, false, fmt.Errorf("redis client is nil")
	}
	if key == "" || cooldown <= 0 {
		return 0, false, fmt.Errorf("invalid cooldown payload")
	}

	cooldownMS := cooldown.Milliseconds()
	if cooldownMS <= 0 {
		cooldownMS = 1
	}

	remaining, err := acquireCooldown.Run(ctx, r.client, []string{key}, now.UnixMilli(), cooldownMS).Int64()
	if err != nil {
		return 0, false, fmt.Errorf("acquire cooldown key: %w", err)
	}
	if remaining > 0 {
		return time.Duration(remaining) * time.Millisecond, false, nil
	}

	return 0, true, nil
}

func (r *CooldownRepo) Release(ctx context.Context, key string, acquiredAt time.Time) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	value := strconv.FormatInt(acquiredAt.UnixMilli(), 10)
	if err := releaseCooldown.Run(ctx, r.client, []string{key}, value).Err(); err != nil {
		return fmt.Errorf("release cooldown key: %w", err)
	}
	return nil
}
