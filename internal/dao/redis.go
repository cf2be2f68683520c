package dao

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"moba/server/sync-service/pkg/config"
)

const (
	KeyRoomPrefix      = "room:"
	KeyViolationPrefix = "violations:"
)

// Store wraps the redis client used for room tickets and the violation
// counter mirror read by moderation tooling.
type Store struct {
	rdb *redis.Client
}

func InitRedis(cfg config.RedisConfig) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Redis connect failed: %v", err)
	}
	return &Store{rdb: rdb}
}

// ValidateRoomTicket checks whether the given ticket matches the one the
// match service stored for the room.
func (s *Store) ValidateRoomTicket(ctx context.Context, roomID, ticket string) (bool, error) {
	val, err := s.rdb.HGet(ctx, KeyRoomPrefix+roomID, "token").Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val == ticket, nil
}

// SaveViolationCount mirrors an entity's final violation tally so the
// moderation dashboard can query it without touching the game process.
func (s *Store) SaveViolationCount(ctx context.Context, roomID string, entityID uint64, count uint32) error {
	key := KeyViolationPrefix + roomID
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, key, strconv.FormatUint(entityID, 10), count)
	pipe.Expire(ctx, key, 24*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}
