package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"casino-engine/internal/config"
	"casino-engine/internal/logger"
	"casino-engine/internal/models"
)

// RedisService is the production Store, Custody and RateLimiter.
type RedisService struct {
	client *redis.Client
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RedisService{client: client}, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

// Update runs fn under WATCH on keys and commits the staged writes in one
// MULTI/EXEC. A key changed by someone else in between aborts the commit
// with models.ErrConcurrentModification.
func (s *RedisService) Update(ctx context.Context, keys []string, fn func(tx Tx) error) error {
	declared := slices.Clone(keys)
	slices.Sort(declared)
	declared = slices.Compact(declared)

	err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
		tx := &redisTx{
			ctx:      ctx,
			rtx:      rtx,
			declared: declared,
			staged:   make(map[string][]byte),
		}
		if err := fn(tx); err != nil {
			return err
		}
		if len(tx.staged) == 0 {
			return nil
		}
		_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for key, data := range tx.staged {
				pipe.Set(ctx, key, data, 0)
			}
			return nil
		})
		return err
	}, declared...)

	if errors.Is(err, redis.TxFailedErr) {
		return models.ErrConcurrentModification
	}
	return err
}

func (s *RedisService) View(ctx context.Context, key string, v any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get %s: %v", key, err)
	}
	return json.Unmarshal(data, v)
}

func (s *RedisService) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %v", prefix, err)
	}
	slices.Sort(keys)
	return keys, nil
}

type redisTx struct {
	ctx      context.Context
	rtx      *redis.Tx
	declared []string
	staged   map[string][]byte
}

func (tx *redisTx) check(key string) error {
	if _, ok := slices.BinarySearch(tx.declared, key); !ok {
		return fmt.Errorf("%w: %s", errUndeclaredKey, key)
	}
	return nil
}

func (tx *redisTx) Get(key string, v any) error {
	if err := tx.check(key); err != nil {
		return err
	}
	data, ok := tx.staged[key]
	if !ok {
		var err error
		data, err = tx.rtx.Get(tx.ctx, key).Bytes()
		if err == redis.Nil {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get %s: %v", key, err)
		}
	}
	return json.Unmarshal(data, v)
}

func (tx *redisTx) Put(key string, v any) error {
	if err := tx.check(key); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %v", key, err)
	}
	tx.staged[key] = data
	return nil
}

// transferScript moves ARGV[1] from KEYS[2] to KEYS[3] unless the ref marker
// KEYS[1] already exists. Returns 1 when applied and 0 for a replay.
var transferScript = redis.NewScript(`
	if redis.call("EXISTS", KEYS[1]) == 1 then
		return 0
	end

	local amount = ARGV[1]
	local remaining = redis.call("DECRBY", KEYS[2], amount)
	if remaining < 0 then
		redis.call("INCRBY", KEYS[2], amount)
		return redis.error_reply("insufficient funds")
	end

	local credited = redis.pcall("INCRBY", KEYS[3], amount)
	if type(credited) == "table" and credited.err then
		redis.call("INCRBY", KEYS[2], amount)
		return redis.error_reply("overflow")
	end
	redis.call("SET", KEYS[1], ARGV[2])

	return 1
`)

// reverseScript moves ARGV[1] back from KEYS[3] to KEYS[2] and deletes the
// ref marker KEYS[1]. Returns 0 when the ref was never applied.
var reverseScript = redis.NewScript(`
	if redis.call("EXISTS", KEYS[1]) == 0 then
		return 0
	end

	local amount = ARGV[1]
	local remaining = redis.call("DECRBY", KEYS[3], amount)
	if remaining < 0 then
		redis.call("INCRBY", KEYS[3], amount)
		return redis.error_reply("insufficient funds")
	end

	local credited = redis.pcall("INCRBY", KEYS[2], amount)
	if type(credited) == "table" and credited.err then
		redis.call("INCRBY", KEYS[3], amount)
		return redis.error_reply("overflow")
	end
	redis.call("DEL", KEYS[1])

	return 1
`)

func scriptError(ref string, err error) error {
	switch {
	case strings.Contains(err.Error(), "insufficient funds"):
		return models.ErrInsufficientBalance
	case strings.Contains(err.Error(), "overflow"):
		return models.ErrArithmeticOverflow
	default:
		return fmt.Errorf("failed to transfer %s: %v", ref, err)
	}
}

func (s *RedisService) Transfer(ctx context.Context, ref, from, to string, amount uint64) (bool, error) {
	if amount > math.MaxInt64 {
		return false, models.ErrArithmeticOverflow
	}

	transfer := &models.Transfer{
		ID:        models.GenerateTransferID(),
		Ref:       ref,
		From:      from,
		To:        to,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}

	keys := []string{
		fmt.Sprintf(KeyTransferRef, ref),
		fmt.Sprintf(KeyBalance, from),
		fmt.Sprintf(KeyBalance, to),
	}
	applied, err := transferScript.Run(ctx, s.client, keys, strconv.FormatUint(amount, 10), transfer.ID).Int()
	if err != nil {
		return false, scriptError(ref, err)
	}
	if applied == 0 {
		return false, nil
	}

	if err := s.saveTransfer(ctx, transfer); err != nil {
		logger.Log.Warn("transfer history not saved", zap.String("ref", ref), zap.Error(err))
	}
	return true, nil
}

func (s *RedisService) Reverse(ctx context.Context, ref, from, to string, amount uint64) error {
	if amount > math.MaxInt64 {
		return models.ErrArithmeticOverflow
	}

	reversal := &models.Transfer{
		ID:        models.GenerateTransferID(),
		Ref:       reversalRef(ref),
		From:      to,
		To:        from,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}

	keys := []string{
		fmt.Sprintf(KeyTransferRef, ref),
		fmt.Sprintf(KeyBalance, from),
		fmt.Sprintf(KeyBalance, to),
	}
	applied, err := reverseScript.Run(ctx, s.client, keys, strconv.FormatUint(amount, 10)).Int()
	if err != nil {
		return scriptError(ref, err)
	}

	if applied == 1 {
		if err := s.saveTransfer(ctx, reversal); err != nil {
			logger.Log.Warn("reversal history not saved", zap.String("ref", ref), zap.Error(err))
		}
	}
	return nil
}

func (s *RedisService) Deposit(ctx context.Context, account string, amount uint64) error {
	if amount > math.MaxInt64 {
		return models.ErrArithmeticOverflow
	}
	key := fmt.Sprintf(KeyBalance, account)
	if err := s.client.IncrBy(ctx, key, int64(amount)).Err(); err != nil {
		return fmt.Errorf("failed to deposit to %s: %v", account, err)
	}
	return nil
}

func (s *RedisService) Balance(ctx context.Context, account string) (uint64, error) {
	key := fmt.Sprintf(KeyBalance, account)
	balance, err := s.client.Get(ctx, key).Uint64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance of %s: %v", account, err)
	}
	return balance, nil
}

func (s *RedisService) saveTransfer(ctx context.Context, t *models.Transfer) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal transfer: %v", err)
	}

	score := float64(t.CreatedAt.UnixNano())
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, fmt.Sprintf(KeyTransfer, t.ID), data, TTLTransfer)
		for _, account := range []string{t.From, t.To} {
			key := fmt.Sprintf(KeyTransfers, account)
			pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: t.ID})
			// Keep only the latest transfers per account.
			pipe.ZRemRangeByRank(ctx, key, 0, -(maxHistory + 1))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save transfer: %v", err)
	}
	return nil
}

func (s *RedisService) History(ctx context.Context, account string, limit int64) ([]*models.Transfer, error) {
	limit = historyLimit(limit)

	ids, err := s.client.ZRevRange(ctx, fmt.Sprintf(KeyTransfers, account), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get transfer ids: %v", err)
	}

	var transfers []*models.Transfer
	for _, id := range ids {
		data, err := s.client.Get(ctx, fmt.Sprintf(KeyTransfer, id)).Bytes()
		if err != nil {
			continue
		}

		var t models.Transfer
		if err := json.Unmarshal(data, &t); err != nil {
			continue
		}
		transfers = append(transfers, &t)
	}
	return transfers, nil
}

func (s *RedisService) CheckRateLimit(ctx context.Context, subject, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, subject, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %v", err)
	}

	if count == 1 {
		s.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

// Delete removes records. Only tests use it.
func (s *RedisService) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}
