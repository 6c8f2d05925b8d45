package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyPrefix    = "idempotency:v1:"
	inProgressMarker     = "__in_progress__"
)

type storedResponse struct {
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

// bodyCaptureWriter tees the response body so it can be replayed for
// duplicate requests.
type bodyCaptureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency enforces idempotent semantics across unsafe HTTP methods by
// persisting responses in Redis keyed by the Idempotency-Key header.
// Financial postings re-submitted with the same key get the original
// response instead of a second balance movement.
func Idempotency(cache *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		logger := GetLoggerFromCtx(c.Request.Context())

		key := c.GetHeader(idempotencyKeyHeader)
		if key == "" {
			// Idempotency is opt-in: callers that do not send a key accept
			// at-most-once delivery responsibility themselves.
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		cacheKey := idempotencyPrefix + key

		cached, err := cache.Get(ctx, cacheKey).Result()
		if err == nil {
			if cached == inProgressMarker {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "duplicate request currently processing"})
				return
			}

			var stored storedResponse
			if err := json.Unmarshal([]byte(cached), &stored); err != nil {
				logger.Warn("failed to decode stored idempotent response", slog.String("key", key), slog.Any("error", err))
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "duplicate request"})
				return
			}

			for header, value := range stored.Headers {
				if strings.EqualFold(header, "Content-Length") {
					continue
				}
				c.Header(header, value)
			}
			c.String(stored.Status, stored.Body)
			c.Abort()
			return
		}

		if err != redis.Nil {
			logger.Error("idempotency lookup failed", slog.String("key", key), slog.Any("error", err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "idempotency store failure"})
			return
		}

		acquired, err := cache.SetNX(ctx, cacheKey, inProgressMarker, ttl).Result()
		if err != nil {
			logger.Error("idempotency reservation failed", slog.String("key", key), slog.Any("error", err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "idempotency reservation failure"})
			return
		}
		if !acquired {
			// A concurrent request with the same key reserved between our
			// cache miss and here; only the winner may post.
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "duplicate request currently processing"})
			return
		}

		writer := &bodyCaptureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer

		c.Next()

		persistCtx, persistCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer persistCancel()

		// Do not cache server-side failures; the caller should retry those.
		if writer.Status() >= http.StatusInternalServerError {
			cache.Del(persistCtx, cacheKey)
			return
		}

		stored := storedResponse{
			Status:  writer.Status(),
			Body:    writer.body.String(),
			Headers: map[string]string{},
		}
		for header := range writer.Header() {
			stored.Headers[header] = writer.Header().Get(header)
		}

		payload, err := json.Marshal(stored)
		if err != nil {
			logger.Error("failed to encode idempotent response", slog.String("key", key), slog.Any("error", err))
			cache.Del(persistCtx, cacheKey)
			return
		}

		if err := cache.Set(persistCtx, cacheKey, payload, ttl).Err(); err != nil {
			logger.Error("failed to persist idempotent response", slog.String("key", key), slog.Any("error", err))
			cache.Del(persistCtx, cacheKey)
		}
	}
}
