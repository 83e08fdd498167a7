package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/velmart/storefront/internal/repository"
)

const settingsKeyPrefix = "storefront:settings:"

type settingsStore struct {
	client *redis.Client
}

func NewSettingsStore(client *redis.Client) repository.SettingsStore {
	return &settingsStore{
		client: client,
	}
}

func (s *settingsStore) settingKey(key string) string {
	return settingsKeyPrefix + key
}

func (s *settingsStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.settingKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("failed to get setting %s from redis: %w", key, err)
	}
	return val, nil
}

func (s *settingsStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("cannot save setting with empty key")
	}
	if err := s.client.Set(ctx, s.settingKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to save setting %s to redis: %w", key, err)
	}
	return nil
}

func (s *settingsStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.settingKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete setting %s from redis: %w", key, err)
	}
	return nil
}
