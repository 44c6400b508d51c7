package repository

import (
	"context"
	"encoding/json"
	"student_risk_backend/internal/model"
	"student_risk_backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const insightKeyPrefix = "insight:"

// RedisInsightCache 洞察结果缓存，按上传批次隔离
type RedisInsightCache struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewRedisInsightCache(rdb *redis.Client, ttl time.Duration) *RedisInsightCache {
	return &RedisInsightCache{Redis: rdb, TTL: ttl}
}

func (c *RedisInsightCache) key(uploadID, studentID string) string {
	return insightKeyPrefix + uploadID + ":" + studentID
}

func (c *RedisInsightCache) Get(ctx context.Context, uploadID, studentID string) (*model.Insight, bool) {
	val, err := c.Redis.Get(ctx, c.key(uploadID, studentID)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Log.Warn("Insight cache read failed", zap.String("student_id", studentID), zap.Error(err))
		return nil, false
	}

	var insight model.Insight
	if err := json.Unmarshal([]byte(val), &insight); err != nil {
		return nil, false
	}
	return &insight, true
}

func (c *RedisInsightCache) Set(ctx context.Context, uploadID, studentID string, insight model.Insight) error {
	data, err := json.Marshal(insight)
	if err != nil {
		return err
	}
	return c.Redis.Set(ctx, c.key(uploadID, studentID), data, c.TTL).Err()
}

func (c *RedisInsightCache) Ping(ctx context.Context) error {
	return c.Redis.Ping(ctx).Err()
}
