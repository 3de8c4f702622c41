package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/NEhIL06/Ecosap/config"
	"github.com/NEhIL06/Ecosap/model"
	"github.com/NEhIL06/Ecosap/utils"
)

const detectionKeyPrefix = "crown:"

type RedisService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisService(cfg *config.RedisConfig) *RedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisService{
		client: client,
		ttl:    cfg.TTL,
	}
}

func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// GetDetection 从缓存获取检测摘要，未命中返回 nil, nil
func (s *RedisService) GetDetection(ctx context.Context, key string) (*model.DetectionSummary, error) {
	data, err := s.client.Get(ctx, detectionKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var summary model.DetectionSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		utils.Logger.Error("failed to unmarshal detection summary",
			zap.String("key", key), zap.Error(err))
		return nil, err
	}

	return &summary, nil
}

// SetDetection 写入检测摘要
func (s *RedisService) SetDetection(ctx context.Context, key string, summary *model.DetectionSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, detectionKeyPrefix+key, data, s.ttl).Err()
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

var _ DetectionCache = (*RedisService)(nil)
