package main // Entry point package

import (
	"context" // bounds startup database work
	"log"     // Logging library
	"time"

	"github.com/stefanh/training-provider-api/internal/config"
	"github.com/stefanh/training-provider-api/internal/database"
	"github.com/stefanh/training-provider-api/internal/handler"
	"github.com/stefanh/training-provider-api/internal/model"
	"github.com/stefanh/training-provider-api/internal/queue"
	"github.com/stefanh/training-provider-api/internal/rbac"
	"github.com/stefanh/training-provider-api/internal/repository"
	"github.com/stefanh/training-provider-api/internal/router"
	"github.com/stefanh/training-provider-api/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("mongodb: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	tokens := repository.NewTokenRepo(db)
	trainings := repository.NewTrainingRepo(db)
	dates := repository.NewTrainingDateRepo(db)
	bookings := repository.NewBookingRepo(db)
	search := repository.NewTrainingSearch(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Seed the default roles on first start so a fresh database grants
	// sensible permissions out of the box.
	seeded, err := roles.Seed(ctx, model.SeedRoles())
	if err != nil {
		log.Fatalf("seed roles: %v", err)
	}
	if seeded {
		log.Println("roles collection seeded with default roles")
	}

	// Role documents are immutable after seeding, so the permission
	// resolver loads them once.
	resolver, err := rbac.NewResolver(ctx, roles)
	if err != nil {
		log.Fatalf("load roles: %v", err)
	}

	// Redis is optional: rate limiting and response caching turn into
	// no-ops when the client is nil.
	rdb := config.NewRedisClient()
	rl := config.LoadRateLimitConfig()
	cache := config.LoadCacheConfig()

	// Background consumer that turns booking events into customer
	// emails.  It reconnects on broker failures and never takes the API
	// down with it.
	if cfg.AMQPURL != "" {
		mailer := service.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailUsername, cfg.EmailPassword)
		go queue.StartBookingConsumer(cfg.AMQPURL, mailer)
	}

	workflow := service.NewBookingWorkflow(bookings, dates)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	trainingH := handler.NewTrainingHandler(cfg, trainings, dates, search)
	dateH := handler.NewTrainingDateHandler(cfg, dates, trainings, bookings)
	bookingH := handler.NewBookingHandler(cfg, workflow, bookings, dates, trainings, resolver, cfg.AMQPURL)

	e := router.New(rl, rdb)
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, users, resolver, rl, rdb)
	router.RegisterTrainings(e, trainingH, dateH, users, resolver, cache, rdb)
	router.RegisterBookings(e, bookingH, users, resolver)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info
	if err := e.Start(addr); err != nil {                 // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
