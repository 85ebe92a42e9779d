package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Every key shares the {otp} hash tag so scripts touching a challenge, the
// sweep index and the stats stay in one cluster slot.
const (
	keyIndex       = "{otp}:challenge:index"
	keyStatsPrefix = "{otp}:stats:"

	// expiryGrace keeps an expired record around long enough for a late
	// verification to be told it expired. The janitor removes it earlier.
	expiryGrace = time.Hour

	sweepBatch = 500
)

var errUnexpectedReply = errors.New("otp cache: unexpected script reply")

// Cache is the challenge store on redis. Each mutating operation is a
// single Lua script and therefore atomic per challenge.
type Cache struct {
	client redis.UniversalClient
	hmac   hash.Hash
	ins    instrument.Instrumentation
}

func NewCache(client redis.UniversalClient, hmac hash.Hash, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, hmac: hmac, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("otp.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *Cache) challengeKey(key entity.Key) (string, error) {
	digest, err := c.hmac.Hash(key.Destination)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("{otp}:challenge:%s:%s:%d", key.Purpose, digest, key.SubjectID), nil
}

func statsKey(p entity.Purpose) string {
	return keyStatsPrefix + p.String()
}

var replaceScript = redis.NewScript(`
local old = redis.call('HMGET', KEYS[1], 'digest', 'superseded')
local superseded = {}
if old[1] then
  table.insert(superseded, old[1])
  for d in string.gmatch(old[2] or '', '%S+') do
    if #superseded >= tonumber(ARGV[10]) then break end
    table.insert(superseded, d)
  end
end

redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1],
  'id', ARGV[1], 'destination', ARGV[2], 'digest', ARGV[3], 'purpose', ARGV[4],
  'owner', ARGV[5], 'subject', ARGV[6], 'issued_at', ARGV[7], 'expires_at', ARGV[8],
  'attempts', 0, 'consumed', 0, 'consumed_at', 0, 'superseded', table.concat(superseded, ' '))
redis.call('PEXPIREAT', KEYS[1], tonumber(ARGV[8]) + tonumber(ARGV[9]))
redis.call('ZADD', KEYS[2], ARGV[8], KEYS[1])
return 1
`)

// Replace drops any challenge stored for the key and stores ch in its place.
// The digest of the dropped challenge is remembered on ch so that its code
// keeps answering not found.
func (c *Cache) Replace(ctx context.Context, ch entity.Challenge) (err error) {
	ctx, span := c.startSpan(ctx, "Replace")
	defer func() { c.endSpan(span, err) }()

	k, err := c.challengeKey(ch.Key())
	if err != nil {
		return err
	}

	return replaceScript.Run(ctx, c.client, []string{k, keyIndex},
		ch.ID,
		ch.Destination,
		ch.CodeDigest,
		ch.Purpose.String(),
		strconv.FormatInt(ch.OwnerID, 10),
		strconv.FormatInt(ch.SubjectID, 10),
		ch.IssuedAt.UnixMilli(),
		ch.ExpiresAt.UnixMilli(),
		expiryGrace.Milliseconds(),
		entity.MaxSuperseded,
	).Err()
}

// Get returns the stored challenge for key or goerror.ErrNotFound.
func (c *Cache) Get(ctx context.Context, key entity.Key) (_ *entity.Challenge, err error) {
	ctx, span := c.startSpan(ctx, "Get")
	defer func() { c.endSpan(span, err) }()

	k, err := c.challengeKey(key)
	if err != nil {
		return nil, err
	}

	fields, err := c.client.HGetAll(ctx, k).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, goerror.ErrNotFound
	}

	return decodeChallenge(fields)
}

var attemptScript = redis.NewScript(`
local raw = redis.call('HGETALL', KEYS[1])
if #raw == 0 then return {0} end
local c = {}
for i = 1, #raw, 2 do c[raw[i]] = raw[i + 1] end

if c['consumed'] == '1' or c['owner'] ~= ARGV[2] or (ARGV[1] ~= '' and ARGV[1] ~= c['id']) then
  return {0}
end
if ARGV[1] == '' and ARGV[5] ~= '' and ARGV[5] ~= c['digest'] then
  for d in string.gmatch(c['superseded'] or '', '%S+') do
    if d == ARGV[5] then return {0} end
  end
end
if tonumber(ARGV[3]) > tonumber(c['expires_at']) then
  redis.call('DEL', KEYS[1])
  redis.call('ZREM', KEYS[2], KEYS[1])
  redis.call('HINCRBY', KEYS[3], 'expired', 1)
  return {2}
end
if tonumber(c['attempts']) >= tonumber(ARGV[4]) then
  redis.call('DEL', KEYS[1])
  redis.call('ZREM', KEYS[2], KEYS[1])
  redis.call('HINCRBY', KEYS[3], 'exhausted', 1)
  return {3}
end

local attempts = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
return {1, c['id'], c['destination'], c['digest'], c['purpose'], c['owner'], c['subject'],
  c['issued_at'], c['expires_at'], tostring(attempts)}
`)

// GetAndIncrementAttempts checks the challenge against q and, when it is
// still usable, counts one attempt. Expired and exhausted challenges are
// deleted in the same step. A code of a superseded challenge presented
// without a ref is not found and costs nothing.
func (c *Cache) GetAndIncrementAttempts(ctx context.Context, key entity.Key, q entity.AttemptQuery) (_ *entity.Challenge, _ entity.AttemptResult, err error) {
	ctx, span := c.startSpan(ctx, "GetAndIncrementAttempts")
	defer func() { c.endSpan(span, err) }()

	k, err := c.challengeKey(key)
	if err != nil {
		return nil, entity.AttemptNotFound, err
	}

	reply, err := attemptScript.Run(ctx, c.client, []string{k, keyIndex, statsKey(key.Purpose)},
		q.ChallengeRef,
		strconv.FormatInt(q.OwnerID, 10),
		q.Now.UnixMilli(),
		q.MaxAttempts,
		q.CodeDigest,
	).Slice()
	if err != nil {
		return nil, entity.AttemptNotFound, err
	}
	if len(reply) == 0 {
		return nil, entity.AttemptNotFound, errUnexpectedReply
	}

	status, ok := reply[0].(int64)
	if !ok {
		return nil, entity.AttemptNotFound, errUnexpectedReply
	}

	switch status {
	case 0:
		return nil, entity.AttemptNotFound, nil
	case 2:
		return nil, entity.AttemptExpired, nil
	case 3:
		return nil, entity.AttemptExhausted, nil
	}

	if len(reply) != 10 {
		return nil, entity.AttemptNotFound, errUnexpectedReply
	}

	vals := make([]string, 0, 9)
	for _, v := range reply[1:] {
		s, ok := v.(string)
		if !ok {
			return nil, entity.AttemptNotFound, errUnexpectedReply
		}
		vals = append(vals, s)
	}

	ch, err := decodeChallenge(map[string]string{
		"id":          vals[0],
		"destination": vals[1],
		"digest":      vals[2],
		"purpose":     vals[3],
		"owner":       vals[4],
		"subject":     vals[5],
		"issued_at":   vals[6],
		"expires_at":  vals[7],
		"attempts":    vals[8],
	})
	if err != nil {
		return nil, entity.AttemptNotFound, err
	}

	return ch, entity.AttemptAccepted, nil
}

var consumeScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'id') ~= ARGV[1] then return 0 end
if redis.call('HGET', KEYS[1], 'consumed') == '1' then return 0 end
local keep = tonumber(ARGV[2]) + tonumber(ARGV[3])
redis.call('HSET', KEYS[1], 'consumed', 1, 'consumed_at', ARGV[2])
redis.call('PEXPIREAT', KEYS[1], keep)
redis.call('ZADD', KEYS[2], keep, KEYS[1])
redis.call('HINCRBY', KEYS[3], 'verified', 1)
return 1
`)

// MarkConsumed flips the challenge with id to consumed and counts it as
// verified. It reports false when the challenge was replaced or already
// consumed.
func (c *Cache) MarkConsumed(ctx context.Context, key entity.Key, id string, consumedAt time.Time, retention time.Duration) (_ bool, err error) {
	ctx, span := c.startSpan(ctx, "MarkConsumed")
	defer func() { c.endSpan(span, err) }()

	k, err := c.challengeKey(key)
	if err != nil {
		return false, err
	}

	n, err := consumeScript.Run(ctx, c.client, []string{k, keyIndex, statsKey(key.Purpose)}, id, consumedAt.UnixMilli(), retention.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

var deleteIfIDScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'id') ~= ARGV[1] then return 0 end
redis.call('DEL', KEYS[1])
redis.call('ZREM', KEYS[2], KEYS[1])
return 1
`)

// DeleteIfID removes the challenge only while it is still the one with id.
func (c *Cache) DeleteIfID(ctx context.Context, key entity.Key, id string) (_ bool, err error) {
	ctx, span := c.startSpan(ctx, "DeleteIfID")
	defer func() { c.endSpan(span, err) }()

	k, err := c.challengeKey(key)
	if err != nil {
		return false, err
	}

	n, err := deleteIfIDScript.Run(ctx, c.client, []string{k, keyIndex}, id).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Stats keys are derived inside the script from the swept record. They share
// the {otp} hash tag with the index.
var sweepScript = redis.NewScript(`
local keys = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[2]))
for _, k in ipairs(keys) do
  local st = redis.call('HMGET', k, 'consumed', 'purpose')
  if st[1] == '0' and st[2] then
    redis.call('HINCRBY', ARGV[3] .. st[2], 'expired', 1)
  end
  redis.call('DEL', k)
end
if #keys > 0 then
  redis.call('ZREM', KEYS[1], unpack(keys))
end
return #keys
`)

// DeleteExpiredBefore removes every challenge whose expiry, or consumption
// retention, ended at or before now. Challenges that expire unverified count
// as expired.
func (c *Cache) DeleteExpiredBefore(ctx context.Context, now time.Time) (_ int64, err error) {
	ctx, span := c.startSpan(ctx, "DeleteExpiredBefore")
	defer func() { c.endSpan(span, err) }()

	var total int64
	for {
		n, err := sweepScript.Run(ctx, c.client, []string{keyIndex}, now.UnixMilli(), sweepBatch, keyStatsPrefix).Int64()
		if err != nil {
			return total, err
		}
		total += n
		if n < sweepBatch {
			return total, nil
		}
	}
}

// IncrStat counts outcomes decided outside the store: issued, invalid and
// delivery_failed.
func (c *Cache) IncrStat(ctx context.Context, p entity.Purpose, counter entity.Counter) error {
	return c.client.HIncrBy(ctx, statsKey(p), string(counter), 1).Err()
}

func (c *Cache) Stats(ctx context.Context) (_ []entity.PurposeStats, err error) {
	ctx, span := c.startSpan(ctx, "Stats")
	defer func() { c.endSpan(span, err) }()

	cmds := make([]*redis.MapStringStringCmd, len(entity.Purposes))
	if _, err := c.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, purpose := range entity.Purposes {
			cmds[i] = p.HGetAll(ctx, statsKey(purpose))
		}
		return nil
	}); err != nil {
		return nil, err
	}

	out := make([]entity.PurposeStats, 0, len(cmds))
	for i, cmd := range cmds {
		m := cmd.Val()
		out = append(out, entity.PurposeStats{
			Purpose:        entity.Purposes[i],
			Issued:         atoi(m[string(entity.CounterIssued)]),
			Verified:       atoi(m[string(entity.CounterVerified)]),
			Expired:        atoi(m[string(entity.CounterExpired)]),
			Exhausted:      atoi(m[string(entity.CounterExhausted)]),
			Invalid:        atoi(m[string(entity.CounterInvalid)]),
			DeliveryFailed: atoi(m[string(entity.CounterDeliveryFailed)]),
		})
	}

	return out, nil
}

func decodeChallenge(f map[string]string) (*entity.Challenge, error) {
	attempts, err := strconv.Atoi(f["attempts"])
	if err != nil {
		return nil, fmt.Errorf("otp cache: attempts: %w", err)
	}

	ch := &entity.Challenge{
		ID:          f["id"],
		Destination: f["destination"],
		CodeDigest:  f["digest"],
		Purpose:     entity.Purpose(f["purpose"]),
		OwnerID:     atoi(f["owner"]),
		SubjectID:   atoi(f["subject"]),
		IssuedAt:    fromMillis(f["issued_at"]),
		ExpiresAt:   fromMillis(f["expires_at"]),
		Attempts:    attempts,
		Consumed:    f["consumed"] == "1",
	}
	if ch.Consumed {
		ch.ConsumedAt = fromMillis(f["consumed_at"])
	}

	return ch, nil
}

func atoi(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func fromMillis(s string) time.Time {
	return time.UnixMilli(atoi(s)).UTC()
}
