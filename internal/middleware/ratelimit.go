package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"storyloom/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

var errNoStore = errors.New("rate limit store not configured")

// WriteBudget caps mutating API calls per caller within fixed windows kept
// in Redis.
type WriteBudget struct {
	Store  *redis.Client
	Limit  int
	Window time.Duration
	// Scope namespaces the counters so several budgets can share one store.
	Scope string
	// FailClosed answers 503 while the store is unreachable. Otherwise writes
	// pass and a warning is logged.
	FailClosed bool

	now func() time.Time
}

func (b *WriteBudget) clock() time.Time {
	if b.now != nil {
		return b.now()
	}
	return time.Now()
}

func (b *WriteBudget) windowSeconds() int64 {
	secs := int64(b.Window / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// bucketKey names the counter for subject in the window containing at.
func (b *WriteBudget) bucketKey(subject string, at time.Time) string {
	return fmt.Sprintf("storyloom:rl:%s:%s:%d", b.Scope, subject, at.Unix()/b.windowSeconds())
}

// Take counts one call for subject and returns how many calls are left in the
// current window. A negative result means the budget is spent.
func (b *WriteBudget) Take(ctx context.Context, subject string) (int, error) {
	if b.Store == nil {
		return 0, errNoStore
	}
	key := b.bucketKey(subject, b.clock())

	pipe := b.Store.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, b.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return b.Limit - int(incr.Val()), nil
}

// Handler enforces the budget on POST, PUT, PATCH and DELETE. Callers are
// keyed by the authenticated user id, or by client IP before auth has run.
func (b *WriteBudget) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		subject := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
			subject = "user:" + strconv.FormatUint(uint64(uid), 10)
		}

		ctx := c.UserContext()
		remaining, err := b.Take(ctx, subject)
		if err != nil {
			if b.FailClosed {
				Logger.WarnContext(ctx, "write budget store unavailable, rejecting",
					slog.String("scope", b.Scope),
					slog.String("error", err.Error()),
				)
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Error: "Rate limit unavailable",
				})
			}
			Logger.WarnContext(ctx, "write budget store unavailable, allowing",
				slog.String("scope", b.Scope),
				slog.String("error", err.Error()),
			)
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(b.Limit))
		if remaining < 0 {
			c.Set("X-RateLimit-Remaining", "0")
			elapsed := b.clock().Unix() % b.windowSeconds()
			c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(b.windowSeconds()-elapsed, 10))
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Write rate limit exceeded",
				Code:  "RATE_LIMITED",
			})
		}
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		return c.Next()
	}
}
