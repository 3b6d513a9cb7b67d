package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HenryEmmanuel06/dfsworldwide/config"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/api/httpapi"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/broker/kafka"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/cache/rediscache"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/integrations/nowpay"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/integrations/supabase"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/mail"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/services/payments"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/services/shipments"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/storage/pgstore"
)

type dfsAPIApp struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     dfsAPIOpts
	api      *httpapi.API
	payments *payments.Service
	consumer *kafka.Consumer
	closeDB  func()
}

func mustBootstrapDFSAPI() *dfsAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("config parse failed, %v", err))
	}

	httpAddr := cfg.DFS.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	consumerGroup := cfg.DFS.KafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "dfs-api"
	}
	topic := cfg.Kafka.PaymentStatusTopicName
	if topic == "" {
		topic = "payments.status"
	}
	cacheTTL := time.Duration(cfg.DFS.TrackingCacheTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	lookupLimit := int64(cfg.DFS.LookupRateLimitPerMinute)
	if lookupLimit <= 0 {
		lookupLimit = 60
	}

	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
	st := mustOpenPostgresWithRetry(connString, 60*time.Second)

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	rc := rediscache.New(redisAddr)
	limiter := rediscache.NewLimiter(redisAddr)

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	producer := kafka.NewProducer(brokers)
	consumer := kafka.NewConsumer(brokers, topic, consumerGroup)

	mailer := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})

	auth := supabase.New(cfg.Supabase.URL, cfg.Supabase.AnonKey)
	gateway := nowpay.New(cfg.NowPayments.BaseURL, cfg.NowPayments.APIKey)

	shipSvc := shipments.New(st, rc, mailer, cfg.Site.BaseURL, cacheTTL)
	paySvc := payments.New(gateway, st, producer, mailer, cfg.NowPayments.IPNSecret, topic)

	api := httpapi.New(auth, shipSvc, paySvc, st, limiter, httpapi.Options{
		AdminEmail:               cfg.DFS.AdminEmail,
		SiteBaseURL:              cfg.Site.BaseURL,
		LookupRateLimitPerMinute: lookupLimit,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &dfsAPIApp{
		ctx:    ctx,
		cancel: cancel,
		opts: dfsAPIOpts{
			httpAddr:      httpAddr,
			topic:         topic,
			consumerGroup: consumerGroup,
		},
		api:      api,
		payments: paySvc,
		consumer: consumer,
		closeDB:  st.Close,
	}
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgstore.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgstore.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *dfsAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.consumer != nil {
		_ = a.consumer.Close()
	}
	if a.closeDB != nil {
		a.closeDB()
	}
}

func (a *dfsAPIApp) Run() error {
	return runDFSAPI(a.ctx, a.opts, a.api.Router(), a.payments, a.consumer)
}
