package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// observe installs an observer logger for the duration of the test.
func observe(t *testing.T, lvl zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(lvl)
	t.Cleanup(Replace(zap.New(core)))
	return logs
}

func TestNew(t *testing.T) {
	t.Run("Test env is silent", func(t *testing.T) {
		l, err := New("test", "debug")
		require.NoError(t, err)
		assert.False(t, l.Core().Enabled(zapcore.ErrorLevel))
	})

	t.Run("Production defaults to info", func(t *testing.T) {
		l, err := New("production", "")
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("Development defaults to debug", func(t *testing.T) {
		l, err := New("development", "")
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("Level override", func(t *testing.T) {
		l, err := New("development", "warn")
		require.NoError(t, err)
		assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("Bad level", func(t *testing.T) {
		_, err := New("production", "loud")
		assert.Error(t, err)
	})
}

func TestInit_PanicsOnBadLevel(t *testing.T) {
	t.Cleanup(Replace(L()))
	assert.Panics(t, func() { Init("production", "loud") })
}

func TestReplace_Restores(t *testing.T) {
	before := L()
	restore := Replace(zap.NewNop())
	assert.NotSame(t, before, L())
	restore()
	assert.Same(t, before, L())
}

func TestL_LazyInitFromEnv(t *testing.T) {
	t.Cleanup(Replace(nil))
	lazyInit = sync.Once{}
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "error")

	l := L()
	require.NotNil(t, l)
	assert.False(t, l.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, l.Core().Enabled(zapcore.ErrorLevel))
	assert.Same(t, l, L(), "built once")
}

func TestContextIDs(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFrom(ctx))
	assert.Empty(t, UserIDFrom(ctx))

	ctx = WithUserID(WithRequestID(ctx, "req-1"), "u-42")
	assert.Equal(t, "req-1", RequestIDFrom(ctx))
	assert.Equal(t, "u-42", UserIDFrom(ctx))
}

func TestFromCtx(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	FromCtx(context.Background()).Info("bare")
	FromCtx(WithRequestID(context.Background(), "req-1")).Info("request only")
	FromCtx(WithUserID(WithRequestID(context.Background(), "req-2"), "u-42")).Info("user scoped")

	entries := logs.TakeAll()
	require.Len(t, entries, 3)

	assert.Empty(t, entries[0].ContextMap())

	assert.Equal(t, "req-1", entries[1].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "user_id")

	assert.Equal(t, "req-2", entries[2].ContextMap()["request_id"])
	assert.Equal(t, "u-42", entries[2].ContextMap()["user_id"])
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("X-Request-ID", "edge-7")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "edge-7", seen)
	assert.Equal(t, "edge-7", w.Header().Get("X-Request-ID"))
}

func TestLoggingMiddleware(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	h := RequestIDMiddleware(LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cart/items":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"kind":"merchant_conflict"}`))
		case "/orders":
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte("OK"))
		}
	})))

	for _, path := range []string{"/health", "/cart/items", "/orders"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, path, nil))
	}

	entries := logs.TakeAll()
	require.Len(t, entries, 3)

	health := entries[0].ContextMap()
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.EqualValues(t, http.StatusOK, health["status"])
	assert.EqualValues(t, 2, health["bytes"])
	assert.NotEmpty(t, health["request_id"])

	conflict := entries[1].ContextMap()
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, "/cart/items", conflict["path"])
	assert.EqualValues(t, http.StatusConflict, conflict["status"])
	assert.EqualValues(t, len(`{"kind":"merchant_conflict"}`), conflict["bytes"])

	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.EqualValues(t, http.StatusBadGateway, entries[2].ContextMap()["status"])
}
