package middleware_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Satyam0004/leave/internal/middleware"
	"github.com/Satyam0004/leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

const testUserID = "4f9c2f1a-73cf-4a09-9e55-2f7a6f1f9a01"

func newIdempotencyRouter(rdb *redis.Client, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/leaves/apply",
		func(c *gin.Context) { c.Set("user_id", testUserID) },
		middleware.Idempotency(rdb),
		handler,
	)
	return r
}

func postApply(r *gin.Engine, idempKey string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/leaves/apply", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	if idempKey != "" {
		req.Header.Set("Idempotency-Key", idempKey)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency(t *testing.T) {
	idempKey := "req-1200"
	cacheKey := fmt.Sprintf("idemp:/leaves/apply:%s:%s", testUserID, idempKey)
	lockKey := cacheKey + ":lock"

	t.Run("no key passes the request through", func(t *testing.T) {
		rdb, redisMock := redismock.NewClientMock()
		handlerCalled := false
		r := newIdempotencyRouter(rdb, func(c *gin.Context) {
			handlerCalled = true
			response.Success(c, http.StatusCreated, gin.H{"id": "abc"}, nil)
		})

		w := postApply(r, "")

		assert.True(t, handlerCalled)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("first request locks and exposes the cache keys", func(t *testing.T) {
		rdb, redisMock := redismock.NewClientMock()
		redisMock.ExpectGet(cacheKey).RedisNil()
		redisMock.ExpectSetNX(lockKey, "locked", 30*time.Second).SetVal(true)

		var gotCacheKey, gotLockKey string
		r := newIdempotencyRouter(rdb, func(c *gin.Context) {
			gotCacheKey = c.GetString("idempotency_cache_key")
			gotLockKey = c.GetString("idempotency_lock_key")
			response.Success(c, http.StatusCreated, gin.H{"id": "abc"}, nil)
		})

		w := postApply(r, idempKey)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, cacheKey, gotCacheKey)
		assert.Equal(t, lockKey, gotLockKey)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("replay serves the cached payload in the standard envelope", func(t *testing.T) {
		rdb, redisMock := redismock.NewClientMock()
		redisMock.ExpectGet(cacheKey).SetVal(`{"id":"abc","status":"PENDING"}`)

		r := newIdempotencyRouter(rdb, func(c *gin.Context) {
			t.Fatal("handler must not run on a replay")
		})

		w := postApply(r, idempKey)

		assert.Equal(t, http.StatusOK, w.Code)
		var env struct {
			Ok   bool            `json:"ok"`
			Data json.RawMessage `json:"data"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.True(t, env.Ok)
		assert.JSONEq(t, `{"id":"abc","status":"PENDING"}`, string(env.Data))
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("in flight duplicate is rejected", func(t *testing.T) {
		rdb, redisMock := redismock.NewClientMock()
		redisMock.ExpectGet(cacheKey).RedisNil()
		redisMock.ExpectSetNX(lockKey, "locked", 30*time.Second).SetVal(false)

		r := newIdempotencyRouter(rdb, func(c *gin.Context) {
			t.Fatal("handler must not run while the lock is held")
		})

		w := postApply(r, idempKey)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "PROCESSING")
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})
}
