// Package testserver runs the real router over in-memory storage.
package testserver

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"ostadtodo/internal/app"
	"ostadtodo/internal/cache"
	"ostadtodo/internal/config"
	"ostadtodo/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Secret signs tokens in tests.
const Secret = "test-secret-0123456789"

// Backend is a running API server with its fakes exposed for assertions.
type Backend struct {
	*httptest.Server
	Users    *testutil.UserRepo
	Todos    *testutil.TodoRepo
	Sessions *testutil.Sessions
	// Redis backs the list cache.
	Redis *miniredis.Miniredis
}

// Config returns the server config used by tests.
func Config() config.Config {
	var cfg config.Config
	cfg.App.Env = "test"
	cfg.App.Version = "test"
	cfg.HTTP.AllowOrigins = []string{"*"}
	cfg.Auth.JWTSecret = Secret
	cfg.Auth.BcryptCost = bcrypt.MinCost
	return cfg
}

// New starts a server with an in-memory Redis cache and closes both when the test ends.
func New(t testing.TB) *Backend {
	t.Helper()
	gin.SetMode(gin.TestMode)
	b := &Backend{
		Users:    testutil.NewUserRepo(),
		Todos:    testutil.NewTodoRepo(),
		Sessions: testutil.NewSessions(),
		Redis:    miniredis.RunT(t),
	}
	rdb := redis.NewClient(&redis.Options{Addr: b.Redis.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	router := app.NewRouter(Config(), app.Deps{
		Users:    b.Users,
		Todos:    b.Todos,
		Sessions: b.Sessions,
		Cache:    cache.NewTodoCache(rdb, time.Minute),
		Logger:   log.New(io.Discard),
	})
	b.Server = httptest.NewServer(router)
	t.Cleanup(b.Server.Close)
	return b
}
