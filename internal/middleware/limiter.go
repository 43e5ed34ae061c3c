package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"storefront-core/internal/auth"
	"storefront-core/internal/logger"
	"storefront-core/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Rate Limit Tiers
const (
	// Session start, which runs the cart merge (Strict)
	limitStrict = rate.Limit(2)
	burstStrict = 5

	// General (Default)
	limitGeneral = rate.Limit(10)
	burstGeneral = 20

	// Polled reads (notifications, order tracking)
	limitPolling = rate.Limit(20)
	burstPolling = 40

	// Internal / trusted services
	limitInternal = rate.Limit(100)
	burstInternal = 200

	visitorTTL = 3 * time.Minute
)

type tier struct {
	name  string
	limit rate.Limit
	burst int
}

var (
	tierStrict   = tier{"strict", limitStrict, burstStrict}
	tierGeneral  = tier{"general", limitGeneral, burstGeneral}
	tierPolling  = tier{"polling", limitPolling, burstPolling}
	tierInternal = tier{"internal", limitInternal, burstInternal}
)

// visitor holds the rate limiter and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per caller and tier. Callers are keyed
// by user id when signed in, by guest id for guests, and by IP otherwise.
type RateLimiter struct {
	internalKey string
	now         func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewRateLimiter returns a limiter; requests carrying internalKey in
// X-Service-Auth get the internal tier. An empty key disables that tier.
func NewRateLimiter(internalKey string) *RateLimiter {
	return &RateLimiter{
		internalKey: internalKey,
		now:         time.Now,
		visitors:    make(map[string]*visitor),
	}
}

func (rl *RateLimiter) limiterFor(key string, t tier) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(t.limit, t.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = rl.now()
	return v.limiter
}

// Sweep drops buckets idle for longer than visitorTTL.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	cutoff := rl.now().Add(-visitorTTL)
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
			removed++
		}
	}
	return removed
}

// RunCleanup sweeps every minute until ctx is done.
func (rl *RateLimiter) RunCleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.Sweep(); n > 0 {
				logger.L().Debug("rate limiter swept idle visitors", zap.Int("removed", n))
			}
		}
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t := rl.resolveTier(r)
		// Same caller gets separate quotas per tier, e.g. "user:u-1:strict".
		key := identity(r) + ":" + t.name

		if !rl.limiterFor(key, t).Allow() {
			logger.FromCtx(r.Context()).Info("rate limited",
				zap.String("layer", "middleware"),
				zap.String("method", "RateLimit"),
				zap.String("tier", t.name),
			)
			utils.WriteJSONError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func identity(r *http.Request) string {
	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		return "user:" + userID
	}
	if guestID, ok := auth.ExtractGuestID(r); ok {
		return "guest:" + guestID
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}

// resolveTier determines which rate limit policy applies to the request.
func (rl *RateLimiter) resolveTier(r *http.Request) tier {
	if rl.internalKey != "" && r.Header.Get("X-Service-Auth") == rl.internalKey {
		return tierInternal
	}
	if r.Method == http.MethodPost && r.URL.Path == "/session" {
		return tierStrict
	}
	if r.Method == http.MethodGet && (strings.HasPrefix(r.URL.Path, "/notifications") || strings.HasPrefix(r.URL.Path, "/orders/")) {
		return tierPolling
	}
	return tierGeneral
}
