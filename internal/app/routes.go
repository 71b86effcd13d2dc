package app

import (
	"net/http"
	"time"

	"ostadtodo/internal/auth"
	"ostadtodo/internal/cache"
	"ostadtodo/internal/config"
	"ostadtodo/internal/handlers"
	"ostadtodo/internal/repo"
	"ostadtodo/internal/service"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"

	_ "ostadtodo/docs"
)

// Deps are the storage collaborators behind the router. Cache may be nil.
type Deps struct {
	Users    repo.UserRepo
	Todos    repo.TodoRepo
	Sessions auth.Sessions
	Cache    *cache.TodoCache
	Logger   *log.Logger
}

// NewRouter builds the engine with middleware and all routes.
func NewRouter(cfg config.Config, deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(deps.Logger))

	r.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.HTTP.AllowOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}))

	Setup(r, cfg, deps)
	return r
}

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, deps Deps) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler(cfg))
	r.GET("/version", versionHandler(cfg))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(http.StatusFound, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.PersistAuthorization(true),
	))

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL.Duration(), deps.Sessions)
	userSvc := service.NewUserService(deps.Users, cfg.Auth.BcryptCost)
	authHandler := handlers.NewAuthHandler(issuer, userSvc)
	registerAuthRoutes(r, authHandler)

	protected := r.Group("", auth.RequireBearer(issuer))
	registerSessionRoutes(protected, authHandler)
	todoSvc := service.NewTodoService(deps.Todos, deps.Cache, deps.Logger)
	todoHandler := handlers.NewTodoHandler(todoSvc)
	registerTodoRoutes(protected, todoHandler)
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Ostad Todo API",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"docs":    "/swagger/index.html",
			"spec":    "/swagger-doc.json",
			"health":  "/health",
		})
	}
}

func healthHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "env": cfg.App.Env})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
	}
}

// requestLogger logs one line per request plus any errors handlers attached.
func requestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"took", time.Since(start),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "err", c.Errors.String())
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

func registerTodoRoutes(api *gin.RouterGroup, h *handlers.TodoHandler) {
	api.POST("/todos", h.Create)
	api.GET("/todos/:date", h.ListByDate)
	api.PUT("/todos/:id", h.SetCompleted)
	api.PUT("/todos/:id/text", h.UpdateText)
	api.DELETE("/todos/:id", h.Delete)
}

func registerAuthRoutes(r *gin.Engine, h *handlers.AuthHandler) {
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
}

func registerSessionRoutes(api *gin.RouterGroup, h *handlers.AuthHandler) {
	api.POST("/logout", h.Logout)
	api.GET("/me", h.Me)
}
