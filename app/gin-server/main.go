package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/scribeapp/scribe/config"
	"github.com/scribeapp/scribe/internal/api/handlers"
	"github.com/scribeapp/scribe/internal/api/middleware"
	"github.com/scribeapp/scribe/internal/api/routes"
	"github.com/scribeapp/scribe/internal/backend"
	"github.com/scribeapp/scribe/internal/cache"
	"github.com/scribeapp/scribe/internal/chat"
	"github.com/scribeapp/scribe/internal/logger"
	"github.com/scribeapp/scribe/internal/observer"
	"github.com/scribeapp/scribe/internal/providers/identity"
	mongorepo "github.com/scribeapp/scribe/internal/repositories/mongo"
	"github.com/scribeapp/scribe/internal/services"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	if err := config.InitMongo(); err != nil {
		log.WithError(err).Fatal("mongodb init failed")
	}
	log.Info("mongodb connected")

	if err := config.InitRedis(); err != nil {
		log.WithError(err).Fatal("redis init failed")
	}
	log.Info("redis connected")

	db := config.MongoDatabase()
	{
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := config.EnsureIndexes(ctx, db); err != nil {
			log.WithError(err).Warn("index bootstrap failed")
		}
		cancel()
	}

	api, err := backend.NewFromEnv()
	if err != nil {
		log.WithError(err).Fatal("backend client init failed")
	}
	provider, err := identity.NewRESTProvider()
	if err != nil {
		log.WithError(err).Fatal("identity provider init failed")
	}

	redisCache := cache.NewRedisCache(config.RedisClient)

	uploadRepo := mongorepo.NewUploadRepo(db)
	profileRepo := mongorepo.NewProfileRepo(db)
	archiveRepo := mongorepo.NewArchiveRepo(db)

	sessions := services.NewSessionService(provider)
	subscriptions := services.NewSubscriptionService(api, redisCache, log)
	uploads := services.NewUploadService(uploadRepo, archiveRepo, api, subscriptions, log)
	profiles := services.NewProfileService(profileRepo)

	observers := observer.NewManager(api, uploads, redisCache, log, observer.Config{})
	chats := chat.NewManager(api, log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		Auth:          handlers.NewAuthHandler(sessions, observers, chats, log),
		Uploads:       handlers.NewUploadHandler(uploads),
		Observers:     handlers.NewObserverHandler(observers, uploads, log),
		Chat:          handlers.NewChatHandler(chats, uploads),
		Profile:       handlers.NewProfileHandler(profiles),
		Subscriptions: handlers.NewSubscriptionHandler(subscriptions),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.WithField("port", port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("shutting down")

	// stop every live observer before closing shared clients
	observers.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("http shutdown failed")
	}
	if err := config.DisconnectMongo(ctx); err != nil {
		log.WithError(err).Warn("mongodb disconnect failed")
	}
	if err := config.CloseRedis(); err != nil {
		log.WithError(err).Warn("redis close failed")
	}
	log.Info("bye")
}
