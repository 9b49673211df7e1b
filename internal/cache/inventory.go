package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"storyloom/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	ProjectKeyPrefix = "project:%d"
	MemberKeyPrefix  = "project:%d:member:%d"
)

const (
	ProjectTTL = 10 * time.Minute
	MemberTTL  = 2 * time.Minute
)

func ProjectKey(projectID uint) string {
	return fmt.Sprintf(ProjectKeyPrefix, projectID)
}

func MemberKey(projectID, userID uint) string {
	return fmt.Sprintf(MemberKeyPrefix, projectID, userID)
}

// Aside implements cache-aside: on a hit dest is filled from Redis, on a miss
// load fills dest and the JSON result is stored under key. Without a client
// it just calls load.
func Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, load func() error) error {
	if client == nil {
		return load()
	}

	raw, err := client.Get(ctx, key).Bytes()
	if err == nil {
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			return nil
		}
	} else if !errors.Is(err, redis.Nil) {
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	if err := load(); err != nil {
		return err
	}

	payload, err := json.Marshal(dest)
	if err != nil {
		return nil
	}
	if err := client.Set(ctx, key, payload, ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateProject(ctx context.Context, projectID uint) {
	Invalidate(ctx, ProjectKey(projectID))
}

func InvalidateMember(ctx context.Context, projectID, userID uint) {
	Invalidate(ctx, MemberKey(projectID, userID))
}
