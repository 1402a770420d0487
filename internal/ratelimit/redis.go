package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// Redis — тот же фиксированный интервал, но счётчики общие для всех инстансов.
// При недоступности Redis решение принимает встроенный Memory.
type Redis struct {
	Client   redis.Scripter
	Prefix   string
	Timeout  time.Duration
	Fallback *Memory
	Log      logrus.FieldLogger
}

func NewRedis(client redis.Scripter, fallback *Memory) *Redis {
	if fallback == nil {
		fallback = NewMemory()
	}
	return &Redis{
		Client:   client,
		Prefix:   "rl:",
		Timeout:  2 * time.Second,
		Fallback: fallback,
	}
}

func (l *Redis) Check(ctx context.Context, key string, max int, window time.Duration) Result {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if l.Client == nil {
		return l.Fallback.Check(ctx, key, max, window)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, l.Timeout)
	defer cancel()

	res, err := fixedWindowScript.Run(ctx, l.Client, []string{l.Prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil || len(res) < 2 {
		if l.Log != nil {
			l.Log.WithError(err).Warn("ratelimit: redis unavailable, using in-memory fallback")
		}
		return l.Fallback.Check(ctx, key, max, window)
	}

	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	if ttl < 0 {
		ttl = window
	}
	if count > max {
		return Result{Allowed: false, Remaining: 0, ResetIn: ttl}
	}
	return Result{Allowed: true, Remaining: max - count, ResetIn: ttl}
}
