package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/visabuddy/ai-service/internal/checklist"
	"github.com/visabuddy/ai-service/pkg/logger"
)

// ErrGenerationInFlight signals that another request is already generating a
// checklist for the same application.
var ErrGenerationInFlight = errors.New("generation already in flight for application")

type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// AcquireGenerationLock takes the per-application single-flight lock. The TTL
// bounds how long a crashed generation can block its application.
func (c *Client) AcquireGenerationLock(ctx context.Context, applicationID string, ttl time.Duration) error {
	ok, err := c.client.SetNX(ctx, lockKey(applicationID), time.Now().Unix(), ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire generation lock: %w", err)
	}
	if !ok {
		return ErrGenerationInFlight
	}

	logger.Debug("Generation lock acquired", zap.String("application_id", applicationID))
	return nil
}

func (c *Client) ReleaseGenerationLock(ctx context.Context, applicationID string) {
	if err := c.client.Del(ctx, lockKey(applicationID)).Err(); err != nil {
		logger.Warn("Failed to release generation lock",
			zap.String("application_id", applicationID),
			zap.Error(err),
		)
	}
}

func (c *Client) SetChecklist(ctx context.Context, result *checklist.GenerationResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal checklist: %w", err)
	}

	err = c.client.Set(ctx, checklistKey(result.ApplicationID), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set checklist cache: %w", err)
	}

	logger.Debug("Checklist cached",
		zap.String("application_id", result.ApplicationID),
		zap.Duration("ttl", ttl),
	)
	return nil
}

func (c *Client) GetChecklist(ctx context.Context, applicationID string) (*checklist.GenerationResult, bool, error) {
	data, err := c.client.Get(ctx, checklistKey(applicationID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get checklist cache: %w", err)
	}

	var result checklist.GenerationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal checklist: %w", err)
	}

	logger.Debug("Checklist cache hit", zap.String("application_id", applicationID))
	return &result, true, nil
}

func (c *Client) InvalidateChecklist(ctx context.Context, applicationID string) {
	if err := c.client.Del(ctx, checklistKey(applicationID)).Err(); err != nil {
		logger.Warn("Failed to invalidate checklist cache",
			zap.String("application_id", applicationID),
			zap.Error(err),
		)
	}
}

func lockKey(applicationID string) string {
	return fmt.Sprintf("genlock:%s", applicationID)
}

func checklistKey(applicationID string) string {
	return fmt.Sprintf("checklist:%s", applicationID)
}
