package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	config "github.com/avvvet/cardroom-services/configs"
	"github.com/avvvet/cardroom-services/internal/archivesvc/archive"
	"github.com/avvvet/cardroom-services/internal/archivesvc/broker"
	archiveconfig "github.com/avvvet/cardroom-services/internal/archivesvc/config"
	"github.com/avvvet/cardroom-services/internal/archivesvc/handlers"
	"github.com/avvvet/cardroom-services/internal/db"
	nats "github.com/avvvet/cardroom-services/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "archive"

var instanceId string

func init() {
	config.LoadEnv(SERVICE_NAME)
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId[:8])
}

func main() {
	cfg, err := archiveconfig.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	database, err := db.ConnectToDB(ctx, cfg.MongoURI)
	if err != nil {
		cancel()
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer database.Client().Disconnect(context.Background())

	store := archive.NewStore(database, cfg.TTL)
	if err := store.EnsureIndexes(ctx); err != nil {
		cancel()
		log.Fatalf("Failed to create archive indexes: %v", err)
	}
	cancel()
	log.Infof("mongo archive ready, events expire after %s", cfg.TTL)

	n, err := nats.Connect(SERVICE_NAME + "-service-" + instanceId)
	if err != nil {
		log.Fatalf("unable to connect to NATS: %v", err)
	}
	defer n.Close()
	log.Infof("NATS connected at %s", n.Url)

	sub, err := broker.NewBroker(n.Conn, store).QueueSubscribe(cfg.EventsSubject)
	if err != nil {
		log.Fatalf("subscribe error: %v", err)
	}
	log.Infof("archiving %s in queue group %s", cfg.EventsSubject, broker.QueueGroup)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	handlers.NewHandler(store, cfg.Port).SetRoutes(r)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	if err := sub.Unsubscribe(); err != nil {
		log.Warnf("unsubscribe failed: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
