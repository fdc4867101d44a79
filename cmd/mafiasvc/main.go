package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"

	config "github.com/ChrisAtwell27/BobbyTheBot-sub004/configs"
	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/broker"
	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/db"
	handlers "github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/handlers"
	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/notify"
	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/service"
	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/store"
	nats "github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "mafia"

var instanceId string

func init() {
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {

	// pg connection
	dbpool, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.ClosePool()
	log.Printf("pg connection established successfully")

	// mongo holds the append-only game event log
	mongoDB, mongoCancel, err := db.ConnectMongo()
	if err != nil {
		log.Fatalf("Failed to connect to Mongo: %v", err)
	}
	defer mongoCancel()
	if err := db.EnsureEventTTLIndex(mongoDB, "game_events"); err != nil {
		log.Fatalf("Failed to ensure event TTL index: %v", err)
	}
	log.Printf("mongo connection established successfully")

	gameStore := store.NewGameStore(dbpool)
	playerStore := store.NewPlayerStore(dbpool)
	actionStore := store.NewActionStore(dbpool)
	voteStore := store.NewVoteStore(dbpool)
	balanceStore := store.NewBalanceStore(dbpool)
	eventStore := store.NewEventStore(mongoDB)

	// Connect to NATS
	n, err := nats.Connect()
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}

	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	notifier := notify.NewNotifier(n.Conn, gameStore, playerStore, eventStore)
	rewardService := service.NewRewardService(balanceStore)

	scheduler := service.NewPhaseScheduler(gameStore, playerStore, eventStore, notifier, rewardService)
	collector := service.NewActionCollector(gameStore, playerStore, actionStore, eventStore, notifier, scheduler)
	tally := service.NewVoteTallyEngine(gameStore, playerStore, voteStore, eventStore, notifier, scheduler)
	scheduler.BindHooks(collector, tally)

	sweeper := service.NewDeadlineSweeper(gameStore, playerStore, scheduler, notifier)
	sweeper.Start()

	// init chat command broker
	b := broker.NewBroker(n.Conn, gameStore, playerStore, scheduler, collector, tally, notifier)

	// subscribe to gateway traffic
	sub, err := b.SubscribeGateway(broker.CommandTopic)
	if err != nil {
		log.Errorf("Error: unable to subscribe to queue %v", err)
		os.Exit(0)
	}

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	rateLimitStr := os.Getenv("RATE_LIMIT")
	rateLimit, err := strconv.Atoi(rateLimitStr)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT value: %v", err)
	}
	r.Use(httprate.LimitByIP(rateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(gameStore, playerStore, eventStore)
	h.InitAuth()
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + os.Getenv("MAFIA_SERVICE_PORT"),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
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
	signal.Notify(stop, os.Interrupt)
	<-stop

	sub.Unsubscribe()
	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
