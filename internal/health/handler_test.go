// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type tableSet map[string]bool

func (t tableSet) HasTable(_ context.Context, name string) (bool, error) {
	return t[name], nil
}

type brokenCatalog struct{}

func (brokenCatalog) HasTable(context.Context, string) (bool, error) {
	return false, errors.New("catalog unavailable")
}

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var body envelope[T]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Data
}

func TestStatus(t *testing.T) {
	t.Run("schema created", func(t *testing.T) {
		h := NewHandler(Config{
			Environment: "development",
			Tables:      tableSet{"freelancers": true, "packages": true},
			DBStats:     func() sql.DBStats { return sql.DBStats{MaxOpenConnections: 25, InUse: 2} },
		})

		rec := serve(h, "/status")
		require.Equal(t, http.StatusOK, rec.Code)

		got := decode[SchemaStatus](t, rec)
		assert.Equal(t, "development", got.Environment)
		assert.True(t, got.DatabaseCreated)
		assert.Equal(t, map[string]bool{"freelancers": true, "packages": true}, got.Tables)
		require.NotNil(t, got.DatabasePool)
		assert.Equal(t, 25, got.DatabasePool.MaxOpenConnections)
		assert.Nil(t, got.RedisPool)
	})

	t.Run("missing table", func(t *testing.T) {
		h := NewHandler(Config{Tables: tableSet{"freelancers": true}})

		rec := serve(h, "/status")
		require.Equal(t, http.StatusOK, rec.Code)

		got := decode[SchemaStatus](t, rec)
		assert.False(t, got.DatabaseCreated)
		assert.True(t, got.Tables["freelancers"])
		assert.False(t, got.Tables["packages"])
	})

	t.Run("lookup errors count as missing", func(t *testing.T) {
		rec := serve(NewHandler(Config{Tables: brokenCatalog{}}), "/status")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, decode[SchemaStatus](t, rec).DatabaseCreated)
	})

	t.Run("no table checker", func(t *testing.T) {
		got := decode[SchemaStatus](t, serve(NewHandler(Config{}), "/status"))
		assert.False(t, got.DatabaseCreated)
	})
}

func TestReadiness(t *testing.T) {
	t.Run("all healthy", func(t *testing.T) {
		h := NewHandler(Config{DB: pinger{}, Redis: pinger{}})

		rec := serve(h, "/readyz")
		assert.Equal(t, http.StatusOK, rec.Code)

		got := decode[ReadinessResponse](t, rec)
		assert.Equal(t, "ok", got.Status)
		assert.Len(t, got.Checks, 2)
	})

	t.Run("redis down", func(t *testing.T) {
		h := NewHandler(Config{DB: pinger{}, Redis: pinger{err: errors.New("refused")}})

		rec := serve(h, "/readyz")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		got := decode[ReadinessResponse](t, rec)
		assert.Equal(t, "degraded", got.Status)
		assert.False(t, got.Checks[1].Healthy)
		assert.Equal(t, "ping failed", got.Checks[1].Message)
	})

	t.Run("not ready", func(t *testing.T) {
		h := NewHandler(Config{DB: pinger{}, Redis: pinger{}})
		h.SetReady(false)

		assert.Equal(t, http.StatusServiceUnavailable, serve(h, "/readyz").Code)
	})
}

func TestShutdownFailsProbes(t *testing.T) {
	h := NewHandler(Config{DB: pinger{}, Redis: pinger{}})
	assert.Equal(t, http.StatusOK, serve(h, "/healthz").Code)

	h.SetShutdown(true)

	for _, path := range []string{"/healthz", "/livez", "/readyz"} {
		rec := serve(h, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		assert.Equal(t, "shutting_down", decode[StatusResponse](t, rec).Status)
	}
}
