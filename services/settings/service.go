package settings

import (
	"context"
	"strings"
	"time"

	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services"
	"github.com/ZubbsZubbs/LAUTECH-sub002/utils"
	"go.uber.org/zap"
)

// UpdateInput is the body of a setting update
type UpdateInput struct {
	Key   string `json:"key" validate:"required,max=64,excludesall=/?#%"`
	Value string `json:"value" validate:"max=10000"`
}

// SettingsService manages site settings edited from the dashboard.
// Reads go through a short-lived cache that every Put invalidates.
type SettingsService struct {
	settings repositories.SettingRepository
	cache    *Cache
	logger   *zap.Logger
}

// NewSettingsService creates a new SettingsService instance with the default cache
func NewSettingsService(settings repositories.SettingRepository, logger *zap.Logger) *SettingsService {
	return NewSettingsServiceWithCache(settings, NewCache(DefaultCacheSize, DefaultCacheTTL), logger)
}

// NewSettingsServiceWithCache creates a SettingsService reading through cache
func NewSettingsServiceWithCache(settings repositories.SettingRepository, cache *Cache, logger *zap.Logger) *SettingsService {
	return &SettingsService{settings: settings, cache: cache, logger: logger}
}

// CacheStats reports the read cache counters
func (s *SettingsService) CacheStats() CacheStats {
	return s.cache.Stats()
}

// All returns every setting as a key/value map
func (s *SettingsService) All(ctx context.Context) (map[string]string, error) {
	if cached, ok := s.cache.Snapshot(); ok {
		return cached, nil
	}

	list, err := s.settings.List(ctx)
	if err != nil {
		return nil, services.FromRepository(err, nil)
	}

	out := make(map[string]string, len(list))
	for _, setting := range list {
		out[setting.Key] = setting.Value
	}
	s.cache.SetSnapshot(out)
	return out, nil
}

// Get returns one setting
func (s *SettingsService) Get(ctx context.Context, key string) (*models.Setting, error) {
	if cached := s.cache.Get(key); cached != nil {
		return cached, nil
	}

	setting, err := s.settings.Get(ctx, key)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrSettingNotFound)
	}
	s.cache.Set(setting)
	return setting, nil
}

// Put creates or replaces a setting
func (s *SettingsService) Put(ctx context.Context, in UpdateInput) (*models.Setting, error) {
	in.Key = strings.TrimSpace(in.Key)
	if err := utils.ValidateStruct(in); err != nil {
		return nil, services.ValidationFailed(err)
	}

	setting := &models.Setting{Key: in.Key, Value: in.Value, UpdatedAt: time.Now().UTC()}
	if err := s.settings.Upsert(ctx, setting); err != nil {
		return nil, services.FromRepository(err, nil)
	}
	s.cache.Invalidate(in.Key)

	s.logger.Info("setting updated", zap.String("key", in.Key))
	return setting, nil
}
