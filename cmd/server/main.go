package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/stagedoor/theatre-ticket-reservation/internal/alert"
	"github.com/stagedoor/theatre-ticket-reservation/internal/booking"
	"github.com/stagedoor/theatre-ticket-reservation/internal/config"
	"github.com/stagedoor/theatre-ticket-reservation/internal/database"
	"github.com/stagedoor/theatre-ticket-reservation/internal/handler"
	"github.com/stagedoor/theatre-ticket-reservation/internal/mail"
	"github.com/stagedoor/theatre-ticket-reservation/internal/queue"
	"github.com/stagedoor/theatre-ticket-reservation/internal/repository"
	"github.com/stagedoor/theatre-ticket-reservation/internal/router"
	queue_publisher "github.com/stagedoor/theatre-ticket-reservation/internal/service"
	"github.com/stagedoor/theatre-ticket-reservation/internal/token"
	"github.com/stagedoor/theatre-ticket-reservation/internal/worker"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	policy := config.DefaultPolicy()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		slog.Warn("redis unreachable; rate limiting and response caching disabled")
	}

	performances := repository.NewPerformanceRepo(db)
	schedules := repository.NewScheduleRepo(db)
	reservations := repository.NewReservationRepo(db)
	attendees := repository.NewAttendeeRepo(db)

	signer := token.NewSigner(token.StaticSecret(cfg.LinkSecret))
	templates := mail.DirSource{Dir: cfg.TemplateDir}
	sender := queue_publisher.MailSender{}
	alerts := queue_publisher.AlertSink{Fallback: alert.LogSink{}}

	confirmBase := cfg.BaseURL + "/v1/reservations/confirm"
	cancelBase := cfg.BaseURL + "/v1/reservations/cancel"

	inventory := booking.NewInventory(reservations)
	materializer := booking.NewMaterializer(attendees)
	admission := booking.NewAdmission(performances, schedules, reservations,
		policy, signer, templates, sender, alerts, confirmBase)
	confirmer := booking.NewConfirmer(performances, schedules, reservations,
		inventory, materializer, signer, templates, sender, alerts, cancelBase)
	canceller := booking.NewCanceller(reservations, attendees, signer, policy, alerts)
	reaper := booking.NewReaper(reservations, policy)
	guard := booking.NewGuard(performances, schedules, inventory, reservations, policy)

	// Outbox consumer: drains email.outbound. Runs in-process here;
	// deployments with a dedicated mail worker disable it.
	go func() {
		if err := queue.StartOutboxConsumer(); err != nil {
			slog.Error("outbox consumer stopped", "err", err)
		}
	}()

	// Background sweeps require Redis; without it holds never expire,
	// so treat an absent Redis as fatal outside dev.
	if rdb != nil {
		h := &worker.Handlers{
			Reaper:       reaper,
			Materializer: materializer,
			Performances: performances,
			Schedules:    schedules,
			Reservations: reservations,
			Templates:    templates,
			Sender:       sender,
			Alerts:       alerts,
		}
		go func() {
			if err := worker.Run(asynq.RedisClientOpt{Addr: config.RedisAddr()}, h, policy); err != nil {
				log.Fatalf("worker: %v", err)
			}
		}()
	} else if cfg.Env != "dev" {
		log.Fatal("redis is required outside dev: hold expiry depends on the background worker")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	router.RegisterRoutes(e)
	router.RegisterPublic(e,
		handler.NewBrowseHandler(performances, schedules),
		handler.NewReservationHandler(admission, confirmer, canceller, performances, schedules),
		rdb,
	)
	router.RegisterAdmin(e,
		handler.NewAuthHandler(performances, cfg.JWTSecret, cfg.AccessTTLMin),
		handler.NewAdminPerformanceHandler(guard, performances),
		handler.NewAdminScheduleHandler(guard, schedules, reservations, attendees),
		handler.NewAdminCheckinHandler(attendees),
		cfg.JWTSecret,
	)

	addr := ":" + cfg.Port
	slog.Info("listening", "addr", addr, "env", cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
