package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotency-Replayed"

	// Long enough to cover client retry storms around a booking or
	// publish request, short enough that keys can be reused next day.
	idempotencyTTL = 24 * time.Hour
)

// storedReply is the replayable portion of a completed response. Body
// is raw bytes rather than json.RawMessage so empty and non-JSON
// bodies survive the round trip.
type storedReply struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// bodyCapture tees the response body so it can be stored for replay.
type bodyCapture struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response for a repeated
// Idempotency-Key, so a retried booking or publish request cannot run
// its side effects twice. Requests without the header pass through, and
// a redis outage degrades to normal processing rather than failing the
// request.
func IdempotencyMiddleware(redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !mutating(c.Request.Method) {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		storeKey := "idempotency:" + c.Request.Method + ":" + key

		prior, err := loadReply(ctx, redisClient, storeKey)
		if err != nil && !errors.Is(err, redis.Nil) {
			c.Next()
			return
		}
		if prior != nil {
			c.Header(replayedHeader, "true")
			c.Data(prior.StatusCode, prior.ContentType, prior.Body)
			c.Abort()
			return
		}

		capture := &bodyCapture{ResponseWriter: c.Writer}
		c.Writer = capture

		c.Next()

		// 5xx responses are not stored: the client should genuinely
		// retry those.
		status := c.Writer.Status()
		if status >= 200 && status < 500 {
			reply := storedReply{
				StatusCode:  status,
				ContentType: c.Writer.Header().Get("Content-Type"),
				Body:        capture.buf.Bytes(),
			}
			if err := storeReply(ctx, redisClient, storeKey, &reply); err != nil {
				log.Printf("idempotency: could not store reply for %s: %v", storeKey, err)
			}
		}
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func loadReply(ctx context.Context, client *redis.Client, key string) (*storedReply, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var reply storedReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func storeReply(ctx context.Context, client *redis.Client, key string, reply *storedReply) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, data, idempotencyTTL).Err()
}
