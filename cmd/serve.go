package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"storefront/consumers"
	"storefront/controllers"
	"storefront/database"
	"storefront/rabbitmq"
	"storefront/services"
)

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the order event consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "create missing tables before serving")
	return cmd
}

func runServe(migrate bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		publisher services.OrderEventPublisher = services.NopPublisher{}
		rmq       *rabbitmq.RabbitMQ
	)
	if cfg.RabbitMQURL != "" {
		rmq, err = rabbitmq.NewRabbitMQ(cfg)
		if err != nil {
			return fmt.Errorf("RabbitMQ initialization failed: %w", err)
		}
		defer rmq.Close()
		if err := rmq.SetupQueues(); err != nil {
			return fmt.Errorf("failed to setup RabbitMQ queues: %w", err)
		}
		publisher = rmq
	} else {
		log.Printf("RABBITMQ_URL is empty, order events are not published")
	}

	a, err := newApp(cfg, publisher)
	if err != nil {
		return err
	}
	defer a.Close()

	if migrate {
		if err := database.Migrate(a.db); err != nil {
			return err
		}
	}

	if rmq != nil {
		if err := consumers.NewOrderConsumer(rmq.Channel, cfg, a.orders).Start(ctx); err != nil {
			return err
		}
	}

	router := controllers.NewRouter(controllers.Services{
		Auth:       a.auth,
		Users:      a.users,
		Products:   a.products,
		Categories: a.cats,
		Orders:     a.orders,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Storefront starting on %s", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
