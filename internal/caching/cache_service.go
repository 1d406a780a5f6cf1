package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"visitdesk/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Visitor caching
	GetVisitor(ctx context.Context, tenantID, visitorID uuid.UUID) (*models.Visitor, error)
	SetVisitor(ctx context.Context, tenantID uuid.UUID, visitor *models.Visitor, ttl time.Duration) error
	DeleteVisitor(ctx context.Context, tenantID, visitorID uuid.UUID) error

	// Analytics caching
	GetTenantAnalytics(ctx context.Context, tenantID uuid.UUID, key string) (map[string]interface{}, error)
	SetTenantAnalytics(ctx context.Context, tenantID uuid.UUID, key string, data map[string]interface{}, ttl time.Duration) error

	// Cache invalidation
	InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error

	// Rate limiting (kiosk endpoints)
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	IncrementRateLimit(ctx context.Context, key string, window time.Duration) error

	// Generic string operations for refresh-token management
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func visitorKey(tenantID, visitorID uuid.UUID) string {
	return fmt.Sprintf("visitdesk:visitor:%s:%s", tenantID.String(), visitorID.String())
}

func analyticsKey(tenantID uuid.UUID, key string) string {
	return fmt.Sprintf("visitdesk:analytics:%s:%s", tenantID.String(), key)
}

func (r *redisCacheService) GetVisitor(ctx context.Context, tenantID, visitorID uuid.UUID) (*models.Visitor, error) {
	data, err := r.client.Get(ctx, visitorKey(tenantID, visitorID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var visitor models.Visitor
	if err := json.Unmarshal(data, &visitor); err != nil {
		return nil, err
	}
	return &visitor, nil
}

func (r *redisCacheService) SetVisitor(ctx context.Context, tenantID uuid.UUID, visitor *models.Visitor, ttl time.Duration) error {
	data, err := json.Marshal(visitor)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, visitorKey(tenantID, visitor.ID), data, ttl).Err()
}

func (r *redisCacheService) DeleteVisitor(ctx context.Context, tenantID, visitorID uuid.UUID) error {
	return r.client.Del(ctx, visitorKey(tenantID, visitorID)).Err()
}

func (r *redisCacheService) GetTenantAnalytics(ctx context.Context, tenantID uuid.UUID, key string) (map[string]interface{}, error) {
	data, err := r.client.Get(ctx, analyticsKey(tenantID, key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var analytics map[string]interface{}
	if err := json.Unmarshal(data, &analytics); err != nil {
		return nil, err
	}
	return analytics, nil
}

func (r *redisCacheService) SetTenantAnalytics(ctx context.Context, tenantID uuid.UUID, key string, data map[string]interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, analyticsKey(tenantID, key), payload, ttl).Err()
}

func (r *redisCacheService) InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error {
	pattern := fmt.Sprintf("visitdesk:*:%s:*", tenantID.String())
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("Failed to delete cache key %s: %v", iter.Val(), err)
		}
	}
	return iter.Err()
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Get(ctx, "visitdesk:ratelimit:"+key).Int()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	return count >= limit, nil
}

func (r *redisCacheService) IncrementRateLimit(ctx context.Context, key string, window time.Duration) error {
	fullKey := "visitdesk:ratelimit:" + key
	pipe := r.client.TxPipeline()
	pipe.Incr(ctx, fullKey)
	pipe.Expire(ctx, fullKey, window)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
