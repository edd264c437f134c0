/*
 * @module service/lock/redis_lock
 * @description Redis运行锁，防止定时触发与手动触发的ETL运行相互重叠
 * @architecture 工具层 - 提供跨实例的运行互斥能力
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 获取锁 -> 执行ETL运行 -> 释放锁/自动过期
 * @rules 使用Redis SET NX实现，仅持有者可释放，未配置Redis时整体降级为无锁
 * @dependencies github.com/go-redis/redis/v8
 * @refs service/etl_run_service.go
 */

package lock

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

// RunLock ETL运行锁接口
type RunLock interface {
	// TryLock 尝试获取运行锁
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Unlock 释放运行锁
	Unlock(ctx context.Context, key string) error
}

// NoopLock 空实现，未配置Redis时使用，单实例部署下无需互斥
type NoopLock struct{}

func (NoopLock) TryLock(context.Context, string, time.Duration) (bool, error) { return true, nil }
func (NoopLock) Unlock(context.Context, string) error                         { return nil }

// RedisLock Redis运行锁实现
type RedisLock struct {
	client     *redis.Client
	instanceID string // 实例ID，用于标识锁的持有者
}

// NewRedisLock 按地址创建Redis运行锁，连接失败时返回错误由调用方降级
func NewRedisLock(addr, password string, db int) (*RedisLock, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis连接失败: %w", err)
	}

	hostname, _ := os.Hostname()
	instanceID := fmt.Sprintf("%s:%d", hostname, os.Getpid())

	slog.Info("Redis运行锁初始化成功", "instance_id", instanceID, "addr", addr)

	return &RedisLock{client: client, instanceID: instanceID}, nil
}

// TryLock 尝试获取运行锁，key不存在时才会设置成功
func (r *RedisLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	lockKey := fmt.Sprintf("etl_run:lock:%s", key)

	acquired, err := r.client.SetNX(ctx, lockKey, r.instanceID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("获取运行锁失败: %w", err)
	}

	if acquired {
		slog.Debug("运行锁: 成功获取锁", "key", key, "ttl", ttl, "instance", r.instanceID)
	}
	return acquired, nil
}

// Unlock 释放运行锁，Lua脚本保证只有持有者才能释放
func (r *RedisLock) Unlock(ctx context.Context, key string) error {
	lockKey := fmt.Sprintf("etl_run:lock:%s", key)

	script := `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`

	result, err := r.client.Eval(ctx, script, []string{lockKey}, r.instanceID).Result()
	if err != nil {
		return fmt.Errorf("释放运行锁失败: %w", err)
	}

	if result.(int64) != 1 {
		slog.Warn("运行锁: 锁不存在或已被其他实例持有", "key", key, "instance", r.instanceID)
	}
	return nil
}
