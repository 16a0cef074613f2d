package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"storefront-service/handlers"
	"storefront-service/internal/auth"
	"storefront-service/internal/cart"
	"storefront-service/internal/catalog"
	"storefront-service/internal/config"
	"storefront-service/internal/consul"
	"storefront-service/internal/gateway"
	"storefront-service/internal/orders"
	"storefront-service/internal/stores/kafka"
	"storefront-service/internal/stores/postgres"
	"storefront-service/internal/sweeper"
	"storefront-service/pkg/logkey"
	"storefront-service/pkg/shutdown"
)

const serviceName = "storefront-service"

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := startApp(); err != nil {
		slog.Error("service startup failed", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func startApp() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	pem, err := os.ReadFile(cfg.AuthPublicKeyFile)
	if err != nil {
		return err
	}
	keys, err := auth.NewKeys(pem)
	if err != nil {
		return err
	}

	db, err := postgres.OpenDB(cfg.DB.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.Migrate(db); err != nil {
		return err
	}

	catalogConf, err := catalog.NewConf(db)
	if err != nil {
		return err
	}
	cartConf, err := cart.NewConf(db)
	if err != nil {
		return err
	}
	ordersConf, err := orders.NewConf(db)
	if err != nil {
		return err
	}

	gw := gateway.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)

	kafkaConf, err := kafka.NewConf(cfg.KafkaBrokers)
	if err != nil {
		return err
	}
	defer kafkaConf.Close()

	if cfg.ConsulAddr != "" {
		client, err := consul.NewClient(cfg.ConsulAddr)
		if err != nil {
			return err
		}
		port, err := strconv.Atoi(cfg.ServicePort)
		if err != nil {
			return err
		}
		regID, err := consul.RegisterService(client, serviceName, cfg.ServiceHost, port)
		if err != nil {
			return err
		}
		defer func() {
			if err := consul.DeregisterService(client, regID); err != nil {
				slog.Error("consul deregistration failed", slog.String(logkey.ERROR, err.Error()))
			}
		}()
		slog.Info("registered with consul", slog.String("RegistrationID", regID))
	}

	sw := sweeper.New(ordersConf, gw, kafkaConf, cfg.SweepInterval, cfg.SweepMinAge)
	go sw.Run(ctx)

	api := handlers.API("", keys, catalogConf, cartConf, ordersConf, gw, kafkaConf)
	srv := &http.Server{
		Addr:         ":" + cfg.ServicePort,
		Handler:      api,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("http server listening", slog.String("Port", cfg.ServicePort))
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed, forcing close", slog.String(logkey.ERROR, err.Error()))
		return srv.Close()
	}

	slog.Info("shutdown complete")
	return nil
}
