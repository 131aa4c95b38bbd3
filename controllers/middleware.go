package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"itemsclassification/internal/metrics"
)

// CORS allows requests from origins. Listed origins are echoed back with
// credentials allowed. A "*" entry allows every other origin without
// credentials.
func CORS(origins []string) gin.HandlerFunc {
	allowAll := false
	allowed := map[string]bool{}
	for _, o := range origins {
		if o == "*" {
			allowAll = true
			continue
		}
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		header := c.Writer.Header()

		switch {
		case origin == "":
		case allowed[origin]:
			header.Set("Access-Control-Allow-Origin", origin)
			header.Set("Access-Control-Allow-Credentials", "true")
			header.Add("Vary", "Origin")
		case allowAll:
			header.Set("Access-Control-Allow-Origin", "*")
		default:
			origin = ""
		}

		if origin != "" {
			header.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
			header.Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit allows each client IP limit requests per second with bursts of
// burst requests. A non-positive limit disables it.
func RateLimit(limit float64, burst int) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}

	var mu sync.Mutex
	clients := map[string]*ipLimiter{}
	lastSweep := time.Now()

	return func(c *gin.Context) {
		now := time.Now()
		ip := c.ClientIP()

		mu.Lock()
		if now.Sub(lastSweep) > time.Minute {
			for k, v := range clients {
				if now.Sub(v.lastSeen) > 3*time.Minute {
					delete(clients, k)
				}
			}
			lastSweep = now
		}

		client, ok := clients[ip]
		if !ok {
			client = &ipLimiter{limiter: rate.NewLimiter(rate.Limit(limit), burst)}
			clients[ip] = client
		}
		client.lastSeen = now
		allowed := client.limiter.Allow()
		mu.Unlock()

		if !allowed {
			RespondCustomStatusErr(c, http.StatusTooManyRequests, []error{ErrTooManyReqs})
			return
		}

		c.Next()
	}
}

// RequestLogger logs every request once it has been served.
func RequestLogger(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"ip", c.ClientIP(),
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Errorw("Request failed", fields...)
		case strings.HasPrefix(c.Request.URL.Path, "/metrics"):
			logger.Debugw("Request", fields...)
		default:
			logger.Infow("Request", fields...)
		}
	}
}

// Metrics counts requests and their durations by route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
