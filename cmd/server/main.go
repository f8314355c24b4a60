package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/lib/pq"

	"bloodlink/internal/audit"
	auditkafka "bloodlink/internal/audit/kafka"
	"bloodlink/internal/donor"
	"bloodlink/internal/match"
	"bloodlink/internal/matching"
	"bloodlink/internal/notify"
	notifysmtp "bloodlink/internal/notify/smtp"
	"bloodlink/internal/notify/whatsapp"
	"bloodlink/internal/platform/config"
	"bloodlink/internal/platform/httpserver"
	"bloodlink/internal/platform/logger"
	"bloodlink/internal/platform/metrics"
	platformredis "bloodlink/internal/platform/redis"
	"bloodlink/internal/request"
	"bloodlink/internal/stats"
	httptransport "bloodlink/internal/transport/http"
)

// guardTTL keeps notified marks around long enough to cover any realistic
// retry window; the match store remains the source of truth after expiry.
const guardTTL = 30 * 24 * time.Hour

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	var (
		donorStore   donor.Store
		requestStore request.Store
		matchStore   match.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		if err := db.Ping(); err != nil {
			log.Error("ping database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		donorStore = donor.NewPostgres(db)
		requestStore = request.NewPostgres(db)
		matchStore = match.NewPostgres(db)
	} else {
		log.Info("no DATABASE_URL set, using in-memory stores")
		donorStore = donor.NewInMemoryStore()
		requestStore = request.NewInMemoryStore()
		matchStore = match.NewInMemoryStore()
	}

	var guard match.Guard
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		guard = match.NewRedisGuard(redisClient.Client, guardTTL)
	}

	var auditStore audit.Store = audit.NewInMemoryStore()
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := auditkafka.New(auditStore, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		auditStore = sink
	}
	publisher := audit.NewPublisher(auditStore)

	m := metrics.New()

	var emailSender notify.EmailSender
	if s := notifysmtp.New(cfg.SMTP); s != nil {
		emailSender = s
	} else {
		log.Warn("SMTP not configured, email channel disabled")
	}
	var messageSender notify.MessageSender
	if s := whatsapp.New(cfg.WhatsApp); s != nil {
		messageSender = s
	} else {
		log.Info("WhatsApp not configured, secondary channel disabled")
	}
	dispatcher := notify.NewDispatcher(emailSender, messageSender, cfg.NotifyTimeout, m, log)

	recorder := match.NewRecorder(matchStore, requestStore, guard, m, log)
	donorSvc := donor.NewService(donorStore, m, log)
	requestSvc := request.NewService(requestStore, log)
	matcher := matching.NewService(donorStore, dispatcher, recorder, m, log,
		matching.WithRemoteCap(cfg.RemoteCap),
		matching.WithAuditor(publisher),
	)
	statsSvc := stats.NewService(donorStore, matchStore)

	handler := httptransport.NewHandler(log, donorSvc, requestSvc, matcher, statsSvc)
	router := httptransport.NewRouter(handler)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting bloodlink", "addr", cfg.Addr, "remote_cap", cfg.RemoteCap)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
