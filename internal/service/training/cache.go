package training

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ashwinyue/tunelab/internal/service/provider"
	"github.com/redis/go-redis/v9"
)

const (
	// 状态轮询缓存的过期时间，避免界面轮询打满服务商接口
	statusTTL = 10 * time.Second
	// Redis key 前缀
	statusKeyPrefix = "ftjob:status:"
)

// StatusCache 服务商任务状态的短 TTL 缓存
type StatusCache struct {
	redis *redis.Client
}

// NewStatusCache 创建状态缓存，redis 为 nil 时缓存禁用
func NewStatusCache(client *redis.Client) *StatusCache {
	return &StatusCache{redis: client}
}

// Get 读取缓存的任务状态，未命中返回 nil
func (c *StatusCache) Get(ctx context.Context, jobID string) *provider.JobStatus {
	if c.redis == nil {
		return nil
	}

	data, err := c.redis.Get(ctx, statusKeyPrefix+jobID).Bytes()
	if err != nil {
		return nil // 未命中或 Redis 不可用都按未命中处理
	}

	var status provider.JobStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil
	}
	return &status
}

// Set 写入任务状态缓存
func (c *StatusCache) Set(ctx context.Context, jobID string, status *provider.JobStatus) {
	if c.redis == nil {
		return
	}

	data, err := json.Marshal(status)
	if err != nil {
		return
	}
	// 缓存失败不影响主流程
	c.redis.Set(ctx, statusKeyPrefix+jobID, data, statusTTL)
}

// Invalidate 删除任务状态缓存（取消后立即生效）
func (c *StatusCache) Invalidate(ctx context.Context, jobID string) {
	if c.redis == nil {
		return
	}
	c.redis.Del(ctx, statusKeyPrefix+jobID)
}
