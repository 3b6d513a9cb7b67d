package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/HenryEmmanuel06/dfsworldwide/internal/broker/messages"
)

type dfsAPIOpts struct {
	httpAddr      string
	topic         string
	consumerGroup string

	onListen func(httpAddr string)
}

type kafkaConsumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
}

type statusApplier interface {
	ApplyStatusUpdate(ctx context.Context, msg messages.PaymentStatusChanged)
}

func runDFSAPI(ctx context.Context, opts dfsAPIOpts, handler http.Handler, applier statusApplier, consumer kafkaConsumer) error {
	if opts.httpAddr == "" {
		opts.httpAddr = ":8080"
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	consumerErr := make(chan error, 1)
	go func() {
		slog.Info("kafka consumer started", "topic", opts.topic, "group", opts.consumerGroup)
		consumerErr <- consumer.Consume(ctx, func(_key, value []byte) error {
			var m messages.PaymentStatusChanged
			if err := json.Unmarshal(value, &m); err != nil {
				slog.Error("bad payment status event, skipping", "err", err)
				return nil
			}
			applier.ApplyStatusUpdate(ctx, m)
			return nil
		})
	}()

	srv := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	slog.Info("HTTP server listening", "addr", lis.Addr().String())
	return srv.Serve(lis)
}
