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
	"github.com/go-chi/httprate"
	"github.com/gorilla/websocket"

	config "github.com/avvvet/cardroom-services/configs"
	nats "github.com/avvvet/cardroom-services/internal/nats"
	"github.com/avvvet/cardroom-services/internal/roomsvc/broker"
	roomconfig "github.com/avvvet/cardroom-services/internal/roomsvc/config"
	"github.com/avvvet/cardroom-services/internal/roomsvc/db"
	"github.com/avvvet/cardroom-services/internal/roomsvc/handlers"
	"github.com/avvvet/cardroom-services/internal/roomsvc/service"
	"github.com/avvvet/cardroom-services/internal/roomsvc/session"
	"github.com/avvvet/cardroom-services/internal/roomsvc/store"
	"github.com/avvvet/cardroom-services/internal/roomsvc/store/memstore"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "room"

var instanceId string

func init() {
	config.LoadEnv(SERVICE_NAME)
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId[:8])
}

type stores struct {
	rooms   service.RoomStore
	players service.PlayerStore
	cards   service.CardStore
	history service.HistoryStore
}

func openStores(cfg roomconfig.Config) (stores, error) {
	if cfg.DBUrl == "" {
		log.Warn("POSTGRES_URL not set, running on the in-memory store")
		mem := memstore.NewSeeded()
		return stores{rooms: mem, players: mem, cards: mem, history: mem}, nil
	}

	dbpool, err := db.Connect(cfg.DBUrl)
	if err != nil {
		return stores{}, err
	}
	log.Printf("pg connection established successfully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cfg.Migrate {
		if err := db.Migrate(ctx, dbpool); err != nil {
			return stores{}, err
		}
		log.Info("postgres schema migrated")
	}
	if cfg.Seed {
		if err := db.SeedQuestions(ctx, dbpool); err != nil {
			return stores{}, err
		}
	}

	return stores{
		rooms:   store.NewRoomStore(dbpool),
		players: store.NewPlayerStore(dbpool),
		cards:   store.NewCardStore(dbpool),
		history: store.NewHistoryStore(dbpool),
	}, nil
}

func main() {
	cfg, err := roomconfig.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	st, err := openStores(cfg)
	if err != nil {
		log.Fatalf("Failed to open stores: %v", err)
	}
	defer db.ClosePool()

	roomService := service.NewRoomService(st.rooms, st.players)
	deckService := service.NewDeckService(st.cards, st.history)
	cardService := service.NewCardService(st.cards)

	// room events are optional; the service runs without NATS
	var events session.Publisher
	if cfg.NatsURL != "" {
		n, err := nats.Connect(SERVICE_NAME + "-service-" + instanceId)
		if err != nil {
			log.Errorf("Error: unable to connect to NATS server %v", err)
			os.Exit(1)
		}
		defer n.Close()
		log.Printf("NATS connection established successfully %s", n.Url)
		events = broker.NewBroker(n.Conn, cfg.EventsSubject, instanceId)
	} else {
		log.Warn("NATS_URL not set, room events will not be published")
	}

	coordinator := session.NewCoordinator(roomService, deckService, session.NewRegistry(), events)

	ctx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	if cfg.IdleTimeout > 0 {
		go coordinator.RunReaper(ctx, cfg.IdleTimeout)
		log.Infof("idle room reaper running, timeout %s", cfg.IdleTimeout)
	}

	// Setup router
	r := chi.NewRouter()
	c := config.CORS(cfg.AllowedOrigins)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(c.Handler)

	// to protect the service api from any over requests
	if cfg.RateLimit > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))
	}

	// Init handlers and routes
	h := handlers.NewHandler(coordinator, roomService, deckService, cardService, cfg.AllowedOrigins, cfg.Port)
	h.InitAuth(cfg.JWTSecret)
	h.SetRoutes(r, 60*time.Second)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	stopReaper()

	// hijacked websocket connections are not tracked by the http server
	for _, code := range coordinator.Registry().Rooms() {
		coordinator.Registry().CloseRoom(code, websocket.CloseGoingAway, "Server shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
