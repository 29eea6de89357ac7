package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// initRedis initializes the Redis connection
func initRedis(redisURL string) error {
	opt, err := redis.ParseURL(fmt.Sprintf("redis://%s", redisURL))
	if err != nil {
		// Fallback to simple connection
		opt = &redis.Options{
			Addr: redisURL,
		}
	}

	redisClient = redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	return nil
}

// redisStore adapts the persistence port onto Redis string keys
type redisStore struct {
	client *redis.Client
	prefix string
}

func newRedisStore(client *redis.Client) *redisStore {
	return &redisStore{client: client, prefix: "bazuu:"}
}

func (s *redisStore) Get(ctx context.Context, key string, v interface{}) error {
	raw, err := s.client.Get(ctx, s.prefix+key).Result()
	if err == redis.Nil {
		return errKeyNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), v)
}

func (s *redisStore) Set(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+key, raw, 0).Err()
}

// cachingWriter tees the response body so it can be cached after the
// handler runs
type cachingWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *cachingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// cacheResponse serves GET responses from Redis with a TTL, keyed by
// request URI. A nil redis client disables caching entirely.
func cacheResponse(ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil {
			c.Next()
			return
		}

		key := "bazuu:cache:" + c.Request.URL.RequestURI()
		if cached, err := redisClient.Get(c.Request.Context(), key).Result(); err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
			c.Abort()
			return
		}

		writer := &cachingWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer
		c.Next()

		if writer.Status() == http.StatusOK {
			if err := redisClient.Set(context.Background(), key, writer.body.Bytes(), ttl).Err(); err != nil {
				// Cache failures never fail the request
				return
			}
		}
	}
}
