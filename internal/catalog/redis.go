package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// DiseaseSnapshotKey is the redis key holding the serialized disease catalog.
const DiseaseSnapshotKey = "symptom-dx:catalog:diseases:v1"

// DefaultSnapshotTTL is used when no TTL is configured.
const DefaultSnapshotTTL = 5 * time.Minute

// diseaseSnapshot is the cached form of the full disease catalog.
type diseaseSnapshot struct {
	Diseases []domain.Disease `json:"diseases"`
	CachedAt time.Time        `json:"cached_at"`
}

// SnapshotDiseases caches the result of FindAll in redis so that several
// server instances share one catalog read. Redis faults degrade to the
// wrapped catalog and never fail a lookup.
type SnapshotDiseases struct {
	next   domain.DiseaseCatalog
	redis  *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewRedisClient creates a go-redis client from cache configuration.
func NewRedisClient(ctx context.Context, config domain.CacheConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	if config.PoolTimeout > 0 {
		opts.PoolTimeout = config.PoolTimeout
	}
	if config.MaxRetries > 0 {
		opts.MaxRetries = config.MaxRetries
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewSnapshotDiseases wraps next with a redis snapshot cache.
func NewSnapshotDiseases(next domain.DiseaseCatalog, client *redis.Client, ttl time.Duration, logger *logrus.Logger) *SnapshotDiseases {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &SnapshotDiseases{
		next:   next,
		redis:  client,
		ttl:    ttl,
		logger: logger,
	}
}

// FindAll returns the cached catalog, refreshing it from the wrapped
// catalog on a miss.
func (s *SnapshotDiseases) FindAll(ctx context.Context) ([]domain.Disease, error) {
	if diseases, ok := s.get(ctx); ok {
		return diseases, nil
	}

	diseases, err := s.next.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	s.set(ctx, diseases)
	return diseases, nil
}

// FindByIDs is not cached.
func (s *SnapshotDiseases) FindByIDs(ctx context.Context, ids []domain.DiseaseID) ([]domain.Disease, error) {
	return s.next.FindByIDs(ctx, ids)
}

// Invalidate drops the snapshot, e.g. after a catalog import.
func (s *SnapshotDiseases) Invalidate(ctx context.Context) error {
	return s.redis.Del(ctx, DiseaseSnapshotKey).Err()
}

func (s *SnapshotDiseases) get(ctx context.Context) ([]domain.Disease, bool) {
	val, err := s.redis.Get(ctx, DiseaseSnapshotKey).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		s.logger.WithError(err).Warn("Disease snapshot read failed, falling back to catalog")
		return nil, false
	}

	var snapshot diseaseSnapshot
	if err := json.Unmarshal(val, &snapshot); err != nil {
		// Remove corrupted cache entry
		s.redis.Del(ctx, DiseaseSnapshotKey)
		return nil, false
	}
	return snapshot.Diseases, true
}

func (s *SnapshotDiseases) set(ctx context.Context, diseases []domain.Disease) {
	data, err := json.Marshal(diseaseSnapshot{Diseases: diseases, CachedAt: time.Now().UTC()})
	if err != nil {
		s.logger.WithError(err).Warn("Failed to encode disease snapshot")
		return
	}
	if err := s.redis.Set(ctx, DiseaseSnapshotKey, data, s.ttl).Err(); err != nil {
		s.logger.WithError(err).Warn("Failed to store disease snapshot")
	}
}
