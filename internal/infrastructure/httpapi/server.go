// Package httpapi exposes the engine over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ersonp/legis/internal/application/handlers"
	"github.com/ersonp/legis/internal/infrastructure/config"
)

var timeNow = time.Now

// Deps are the use cases served by the API.
type Deps struct {
	Variables *handlers.VariableHandler
	Points    *handlers.PointHandler
	Render    *handlers.RenderHandler
	// Metrics serves /metrics when set.
	Metrics http.Handler
	Logger  *zap.Logger
}

// api binds the handlers to gin routes.
type api struct {
	variables *handlers.VariableHandler
	points    *handlers.PointHandler
	render    *handlers.RenderHandler
	logger    *zap.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Deps, requestTimeout time.Duration) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &api{
		variables: deps.Variables,
		points:    deps.Points,
		render:    deps.Render,
		logger:    logger,
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	v1 := router.Group("/api/v1")
	v1.Use(timeout(requestTimeout))

	v1.GET("/overdue", a.listOverdue)
	v1.GET("/due", a.listDue)
	v1.GET("/due-this-week", a.listDueThisWeek)
	v1.GET("/statistics", a.statistics)

	v1.GET("/variables", a.listVariables)
	v1.GET("/variables/search", a.searchVariables)
	v1.GET("/variables/:key", a.getVariable)
	v1.GET("/variables/:key/history", a.variableHistory)
	v1.POST("/variables", a.defineVariable)
	v1.PUT("/variables/:key", a.setVariable)
	v1.POST("/variables/reindex", a.reindexVariables)

	v1.GET("/points", a.listPoints)
	v1.POST("/points", a.registerPoint)
	v1.GET("/points/:id", a.getPoint)
	v1.PATCH("/points/:id", a.reclassifyPoint)
	v1.POST("/points/:id/verify", a.verifyPoint)
	v1.POST("/points/:id/deactivate", a.deactivatePoint)
	v1.GET("/points/:id/history", a.pointHistory)
	v1.POST("/points/:id/suggest", a.suggestValue)

	v1.POST("/render", a.renderTemplate)

	return router
}

// Serve runs an HTTP server on cfg.Addr until ctx is done, then shuts it down.
func Serve(ctx context.Context, cfg config.ServerConfig, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := timeNow()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", timeNow().Sub(start)),
		)
	}
}

func timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
