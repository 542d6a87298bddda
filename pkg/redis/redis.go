package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"busbuddy/config"
)

// ErrLockHeld 锁已被其他请求持有
var ErrLockHeld = errors.New("lock is held by another owner")

// Client Redis 客户端封装
// 用于排班写入的分布式锁与 API 限流；nil *Client 的所有方法均为空操作
type Client struct {
	rdb    goredis.UniversalClient
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// NewFromClient 包装已有连接（集群、哨兵等由调用方创建）
func NewFromClient(rdb goredis.UniversalClient, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{rdb: rdb, logger: logger}
}

// Ping 健康检查
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// ── 排班锁 ──

const lockPrefix = "schedule:lock:"

// 仅当值仍为本次持有者时删除，避免误删过期后被他人重新获取的锁
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AcquireScheduleLocks 按给定顺序逐个 SET NX 获取锁；任一失败则释放已获取的锁并返回 ErrLockHeld。
// 返回的 release 可重复调用。
func (c *Client) AcquireScheduleLocks(ctx context.Context, keys []string, ttl time.Duration) (func(), error) {
	if c == nil || len(keys) == 0 {
		return func() {}, nil
	}

	token := uuid.New().String()
	held := make([]string, 0, len(keys))
	release := func() {
		// 请求 ctx 可能已取消，释放使用独立超时
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for _, k := range held {
			if err := releaseScript.Run(rctx, c.rdb, []string{k}, token).Err(); err != nil {
				c.logger.Warn("释放排班锁失败", zap.String("key", k), zap.Error(err))
			}
		}
		held = held[:0]
	}

	for _, k := range keys {
		key := lockPrefix + k
		ok, err := c.rdb.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			release()
			return nil, fmt.Errorf("获取排班锁 %s 失败: %w", key, err)
		}
		if !ok {
			release()
			return nil, fmt.Errorf("%w: %s", ErrLockHeld, key)
		}
		held = append(held, key)
	}
	return release, nil
}

// ── 限流 ──

const rateLimitPrefix = "rate_limit:"

// CheckRateLimit 基于有序集合的滑动窗口限流；返回本次请求是否放行
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if c == nil {
		return true, nil
	}

	now := time.Now()
	member := strconv.FormatInt(now.UnixNano(), 10) + ":" + uuid.New().String()[:8]
	full := rateLimitPrefix + key

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, full, "0", strconv.FormatInt(now.Add(-window).UnixNano(), 10))
	card := pipe.ZCard(ctx, full)
	pipe.ZAdd(ctx, full, goredis.Z{Score: float64(now.UnixNano()), Member: member})
	pipe.PExpire(ctx, full, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	if card.Val() >= int64(limit) {
		// 超限请求不计入窗口
		c.rdb.ZRem(ctx, full, member)
		return false, nil
	}
	return true, nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
