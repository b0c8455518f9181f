package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hostelhq/hostel-management/internal/config"
	"github.com/hostelhq/hostel-management/internal/database"
	"github.com/hostelhq/hostel-management/internal/handler"
	"github.com/hostelhq/hostel-management/internal/lifecycle"
	"github.com/hostelhq/hostel-management/internal/mailer"
	"github.com/hostelhq/hostel-management/internal/model"
	"github.com/hostelhq/hostel-management/internal/notify"
	"github.com/hostelhq/hostel-management/internal/queue"
	"github.com/hostelhq/hostel-management/internal/repository"
	"github.com/hostelhq/hostel-management/internal/router"
	"github.com/hostelhq/hostel-management/internal/scheduler"
)

func main() {
	// .env is optional; the process environment always wins.
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg)
	if err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}
	defer db.Close()

	rdb := config.NewRedis(cfg)

	ledger := repository.NewLedger(db)
	tokens := repository.NewTokenRepo(db)
	globals := repository.NewGlobalSemesterRepo(db)

	// Notifications go through RabbitMQ when a broker is configured;
	// otherwise they are written straight to the server log.
	var notifier notify.Notifier = &notify.LogNotifier{Log: logger}
	if cfg.AMQPURL != "" {
		notifier = queue.NewPublisher(cfg.AMQPURL, logger)

		var m *mailer.Mailer
		if cfg.SMTPHost != "" {
			m = mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass)
		}
		go queue.NewConsumer(cfg.AMQPURL, m, logger).Run()
	}

	semesterEngine := lifecycle.NewSemesterEngine(ledger, notifier, logger)
	subscriptionEngine := lifecycle.NewSubscriptionEngine(ledger, notifier, logger)
	roomEngine := lifecycle.NewRoomEngine(ledger, logger)

	if cfg.SchedulerEnabled {
		sched := scheduler.New(semesterEngine, subscriptionEngine, logger)
		if err := sched.Register(cfg.SemesterSweepSpec, cfg.SubscriptionSweepSpec); err != nil {
			logger.Fatal("scheduler registration failed", zap.Error(err))
		}
		sched.Start()
		defer sched.Stop()
	}

	subscriptionCheck := func(ctx context.Context, hostelID uint64) (bool, error) {
		hostel, err := ledger.Hostels.GetByID(ctx, hostelID)
		if err != nil {
			return false, err
		}
		if hostel.CurrentSubscriptionID == nil {
			return false, nil
		}
		sub, err := ledger.Subscriptions.GetByID(ctx, *hostel.CurrentSubscriptionID)
		if err != nil {
			return false, err
		}
		return sub.Status == model.SubscriptionActive && sub.EndDate.After(time.Now().UTC()), nil
	}

	e := router.New(router.Deps{
		Cfg:   cfg,
		DB:    db,
		Redis: rdb,

		Auth:        handler.NewAuthHandler(cfg, ledger.Users, tokens),
		Hostels:     handler.NewHostelHandler(cfg, ledger.Hostels, ledger.Users),
		Rooms:       handler.NewRoomHandler(ledger.Rooms, roomEngine),
		Semesters:   handler.NewSemesterHandler(ledger.Semesters, globals, semesterEngine),
		Enrollments: handler.NewEnrollmentHandler(ledger.Users, ledger.Semesters, ledger.Rooms, ledger.Enrollments, semesterEngine),
		Billing:     handler.NewBillingHandler(ledger.Plans, ledger.Subscriptions, ledger.Payments, subscriptionEngine),
		Public:      handler.NewPublicHandler(ledger.Hostels, ledger.Rooms, ledger.Plans),

		SubscriptionCheck: subscriptionCheck,
	})

	logger.Info("server starting", zap.String("port", cfg.HTTPPort))
	if err := e.Start(":" + cfg.HTTPPort); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
