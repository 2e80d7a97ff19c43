package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Location entries expire on their own; a driver that stops reporting
// disappears from redis without a cleanup job.
const locationTTL = 15 * time.Minute

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func locationKey(driverID string) string {
	return fmt.Sprintf("lastmile:driver:%s:location", driverID)
}

func (r *RedisStore) SetLocation(ctx context.Context, loc *DriverLocation) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, locationKey(loc.DriverID), data, locationTTL).Err()
}

func (r *RedisStore) GetLocation(ctx context.Context, driverID string) (*DriverLocation, error) {
	data, err := r.client.Get(ctx, locationKey(driverID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var loc DriverLocation
	return &loc, json.Unmarshal(data, &loc)
}
