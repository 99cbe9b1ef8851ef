package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/connecta/internal/app"
	"github.com/oggyb/connecta/internal/cache"
	"github.com/oggyb/connecta/internal/config"
	"github.com/oggyb/connecta/internal/db"
	"github.com/oggyb/connecta/internal/logger"
	"github.com/oggyb/connecta/internal/realtime"
	"github.com/oggyb/connecta/internal/server"
	"github.com/oggyb/connecta/internal/service/chat"
	"github.com/oggyb/connecta/internal/service/interest"
	"github.com/oggyb/connecta/internal/service/matching"
	"github.com/oggyb/connecta/internal/service/notification"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}
	defer redisCache.Close()

	// Inject logger into app context
	appCtx := app.New(cfg, database, redisCache, log)
	defer appCtx.Relay.Shutdown()

	if cfg.Relay.BusEnabled {
		bus := realtime.NewRedisBus(redisCache.Client, cfg.Relay.BusChannel, appCtx.Relay, log)
		if err := bus.Start(ctx); err != nil {
			log.Error("failed to start relay bus", "err", err)
			return
		}
		defer bus.Close()
		appCtx.WithPublisher(bus)
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database, 20, log); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	chatSvc := chat.NewChatService(appCtx)

	grpcServer := server.NewGRPCServer(log,
		matching.NewRegistrar(appCtx),
		interest.NewRegistrar(appCtx),
		chat.NewRegistrar(chatSvc),
		notification.NewRegistrar(appCtx),
	)
	httpServer := server.NewHTTPServer(server.HTTPAddr(appCtx), server.NewRouter(appCtx, chatSvc))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting gRPC server", "addr", cfg.GRPC.Host+":"+cfg.GRPC.Port)
		return server.StartGRPCServer(cfg, grpcServer)
	})
	g.Go(func() error {
		log.Info("starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// close sockets first so write pumps stop before the listener goes
		appCtx.Relay.Shutdown()
		grpcServer.GracefulStop()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "err", err)
	}
}
