package api

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-todos/auth"
	"golang.org/x/time/rate"
)

// LocalsClientIP is the locals key holding the remote address of the request
const LocalsClientIP = "client_ip"

// ClientIP stores the remote address where router handlers can read it
func ClientIP() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(LocalsClientIP, c.IP())
		return c.Next()
	}
}

func clientIP(c router.Context) string {
	ip, _ := c.Locals(LocalsClientIP).(string)
	return ip
}

// RequestLogger logs one line per request once the handler chain returns
func RequestLogger(logger auth.Logger) fiber.Handler {
	if logger == nil {
		logger = auth.NopLogger{}
	}

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := handleChainError(c, c.Next())
		status := c.Response().StatusCode()

		logger.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", time.Since(start).String(),
			"ip", c.IP(),
		)
		return err
	}
}

// handleChainError renders err through the app error handler so that the
// response status is final by the time the caller reads it.
func handleChainError(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}
	if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return nil
}

// IPRateLimiter manages rate limiters for each IP
type IPRateLimiter struct {
	ips map[string]*rate.Limiter
	mu  sync.Mutex
	r   rate.Limit
	b   int
	max int
}

// NewIPRateLimiter creates a new limiter with rate r and burst b
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	if b < 1 {
		b = 1
	}
	return &IPRateLimiter{
		ips: make(map[string]*rate.Limiter),
		r:   r,
		b:   b,
		max: 10000,
	}
}

// GetLimiter returns the limiter for ip, creating it on first use
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.ips[ip]
	if !exists {
		// reset instead of growing without bound
		if len(i.ips) >= i.max {
			i.ips = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(i.r, i.b)
		i.ips[ip] = limiter
	}

	return limiter
}

// Allow reports whether a request from ip may proceed now
func (i *IPRateLimiter) Allow(ip string) bool {
	return i.GetLimiter(ip).Allow()
}

// RateLimit rejects requests once the client's bucket is empty
func RateLimit(limiter *IPRateLimiter) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			if limiter == nil {
				return next(c)
			}

			if !limiter.Allow(clientIP(c)) {
				c.SetHeader(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter(limiter.r)))
				return ErrTooManyLoginAttempts
			}
			return next(c)
		}
	}
}

func retryAfter(r rate.Limit) int {
	if r <= 0 {
		return 60
	}
	secs := int(1 / float64(r))
	if secs < 1 {
		secs = 1
	}
	return secs
}
