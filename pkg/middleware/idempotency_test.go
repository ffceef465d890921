package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// fakeRedis is an in-memory RedisClient
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func setupIdempotencyRouter(rc RedisClient, status int, calls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/register", Idempotency(IdempotencyConfig{Redis: rc}), func(c *gin.Context) {
		*calls++
		c.JSON(status, gin.H{"call": *calls})
	})
	return r
}

func doPost(r *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysCompletedResponse(t *testing.T) {
	calls := 0
	r := setupIdempotencyRouter(newFakeRedis(), http.StatusCreated, &calls)

	first := doPost(r, "key-1", `{"quantity":1}`)
	second := doPost(r, "key-1", `{"quantity":1}`)

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)
}

func TestIdempotency_KeyReusedWithDifferentBody(t *testing.T) {
	calls := 0
	r := setupIdempotencyRouter(newFakeRedis(), http.StatusCreated, &calls)

	doPost(r, "key-1", `{"quantity":1}`)
	w := doPost(r, "key-1", `{"quantity":2}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotency_NoKeyPassesThrough(t *testing.T) {
	calls := 0
	r := setupIdempotencyRouter(newFakeRedis(), http.StatusCreated, &calls)

	doPost(r, "", `{}`)
	doPost(r, "", `{}`)

	assert.Equal(t, 2, calls)
}

func TestIdempotency_FailedResponseReleasesKey(t *testing.T) {
	rc := newFakeRedis()
	calls := 0
	r := setupIdempotencyRouter(rc, http.StatusBadRequest, &calls)

	doPost(r, "key-1", `{}`)
	doPost(r, "key-1", `{}`)

	assert.Equal(t, 2, calls)
	assert.Empty(t, rc.data)
}

func TestIdempotency_InProgress(t *testing.T) {
	rc := newFakeRedis()
	rc.data[IdempotencyKeyPrefix+"key-1"] = `{"status":"processing","request_hash":"` + requestHash(http.MethodPost, "/register", []byte(`{}`)) + `"}`

	calls := 0
	r := setupIdempotencyRouter(rc, http.StatusCreated, &calls)

	w := doPost(r, "key-1", `{}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 0, calls)
}

func TestIdempotency_RequireKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/register", Idempotency(IdempotencyConfig{Redis: newFakeRedis(), RequireKey: true}), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	w := doPost(r, "", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
