package middleware

import (
	"sync"
	"time"

	"hydrofund/internal/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// CommandLimiter throttles mutating commands per user, so a client retrying
// in a loop cannot flood the ledger with lock contention.
type CommandLimiter struct {
	mu       sync.Mutex
	limiters map[uint]*userLimiter
	limit    rate.Limit
	burst    int
}

func NewCommandLimiter(perSecond float64, burst int) *CommandLimiter {
	return &CommandLimiter{
		limiters: make(map[uint]*userLimiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *CommandLimiter) get(userID uint) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	ul, ok := l.limiters[userID]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[userID] = ul
	}
	ul.lastSeen = time.Now()
	return ul.limiter
}

// Sweep forgets users idle for longer than idle.
func (l *CommandLimiter) Sweep(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-idle)
	removed := 0
	for id, ul := range l.limiters {
		if ul.lastSeen.Before(cutoff) {
			delete(l.limiters, id)
			removed++
		}
	}
	return removed
}

// Handler must run after AuthMiddleware.
func (l *CommandLimiter) Handler(c *fiber.Ctx) error {
	actor, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "unauthorized")
	}
	if !l.get(actor.UserID).Allow() {
		return utils.Fail(c, fiber.StatusTooManyRequests, "RATE_LIMITED", "too many requests, please slow down")
	}
	return c.Next()
}
