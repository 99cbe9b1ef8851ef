package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oggyb/connecta/internal/app"
	"github.com/oggyb/connecta/internal/service/chat"
)

// NewRouter wires the HTTP side: the websocket relay transport, a health
// probe and Prometheus metrics.
func NewRouter(appCtx *app.AppContext, chatSvc *chat.Service) *gin.Engine {
	if appCtx.Config.App.ENV != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", healthz(appCtx))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", NewWSHandler(appCtx, chatSvc).Serve)

	return r
}

// NewHTTPServer binds the router to the configured address.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// HTTPAddr formats the configured host:port.
func HTTPAddr(appCtx *app.AppContext) string {
	return fmt.Sprintf("%s:%s", appCtx.Config.HTTP.Host, appCtx.Config.HTTP.Port)
}

func healthz(appCtx *app.AppContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{"db": "ok", "redis": "ok"}
		code := http.StatusOK

		if sqlDB, err := appCtx.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			checks["db"] = "down"
			code = http.StatusServiceUnavailable
		}
		if err := appCtx.RedisCache.Ping(ctx); err != nil {
			checks["redis"] = "down"
			code = http.StatusServiceUnavailable
		}
		checks["connections"] = appCtx.Relay.Connections()

		c.JSON(code, checks)
	}
}
