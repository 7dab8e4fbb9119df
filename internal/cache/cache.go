// internal/cache/cache.go
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	apperrors "car-price-predictor/internal/common/errors"
	"car-price-predictor/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when no cached prediction exists for the inputs.
var ErrMiss = errors.New("cache miss")

// PredictionCache stores serialized prediction responses keyed by a digest
// of the raw inputs, so identical requests skip the model evaluation path.
type PredictionCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func New(client *redis.Client, ttl time.Duration, log logger.Logger) *PredictionCache {
	return &PredictionCache{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "cache"}),
	}
}

// Key derives a deterministic cache key from the raw inputs. encoding/json
// sorts map keys, so equal input maps always produce the same digest.
func Key(raw map[string]interface{}) (string, error) {
	payload, err := json.Marshal(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return "prediction:" + hex.EncodeToString(sum[:]), nil
}

// Get returns the cached payload for the inputs, ErrMiss when absent.
func (c *PredictionCache) Get(ctx context.Context, raw map[string]interface{}) ([]byte, error) {
	key, err := Key(raw)
	if err != nil {
		return nil, apperrors.NewCacheUnavailableError(err)
	}

	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, apperrors.NewCacheUnavailableError(err)
	}

	return val, nil
}

// Set stores the payload for the inputs with the configured TTL.
func (c *PredictionCache) Set(ctx context.Context, raw map[string]interface{}, payload []byte) error {
	key, err := Key(raw)
	if err != nil {
		return apperrors.NewCacheUnavailableError(err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return apperrors.NewCacheUnavailableError(err)
	}

	return nil
}
