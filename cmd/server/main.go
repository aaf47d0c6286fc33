package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/database"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/reservation"
	"github.com/iliyamo/event-ticketing/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it rate limiting and response caching
	// are simply disabled
	rdb := config.NewRedisClient()

	// Repositories
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	companyRepo := repository.NewCompanyRepo(db)
	eventRepo := repository.NewEventRepo(db)
	ticketRepo := repository.NewTicketRepo(db)
	saleRepo := repository.NewSaleRepo(db)

	// Reservation engine over the transactional store
	engine := reservation.NewEngine(repository.NewReservationStore(db))

	h := router.Handlers{
		Auth:      handler.NewAuthHandler(cfg, userRepo, tokenRepo, companyRepo),
		Companies: handler.NewCompanyHandler(companyRepo),
		Events:    handler.NewEventHandler(eventRepo),
		Tickets:   handler.NewTicketHandler(ticketRepo),
		Sales:     handler.NewSaleHandler(engine, saleRepo, userRepo, cfg.AMQPURL),
	}

	// Purchase confirmations: consume from the broker, append to the
	// confirmation log and forward to the webhook if configured
	if cfg.AMQPURL != "" {
		notifier := queue.NewNotifier(cfg.WebhookURL)
		go func() {
			if err := queue.StartPurchaseConsumer(cfg.AMQPURL, notifier); err != nil {
				log.Printf("purchase consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	e.Use(echoMw.Recover())
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))

	router.RegisterRoutes(e, h)
	router.RegisterAPI(e, h, cfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
