package cmd

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"gemtasks/api"
	"gemtasks/config"
	"gemtasks/jobs"
	"gemtasks/mailer"
	"gemtasks/queue"
	"gemtasks/store"
	"gemtasks/worker"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func ServeCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the submission API together with both workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			registry := queue.NewRegistry(queue.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
			})
			defer registry.Close()

			var wg sync.WaitGroup
			if err := startWorkers(ctx, cfg, registry, worker.EmailConcurrency, &wg); err != nil {
				return err
			}

			submitter := jobs.NewSubmitter(registry, nil)
			server := api.NewServer(cfg.ServerAddr, submitter, registry)

			go func() {
				log.Printf("Starting server on %s", cfg.ServerAddr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("HTTP server error: %v", err)
				}
			}()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig

			log.Println("Shutdown signal received")
			cancel()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Printf("HTTP server shutdown error: %v", err)
			}

			wg.Wait()
			log.Println("All workers stopped")
			return nil
		},
	}
}

// startWorkers wires both task kinds. Either worker may come up inert when
// the broker is down; neither condition is fatal.
func startWorkers(ctx context.Context, cfg config.Config, registry *queue.Registry, emailConcurrency int, wg *sync.WaitGroup) error {
	sender := mailer.NewSMTPSender(cfg.SMTPAddr, cfg.SMTPFrom)
	emailWorker, err := worker.New(ctx, registry, worker.NewEmailHandler(sender), emailConcurrency, nil)
	if err != nil {
		return err
	}
	emailWorker.Start(ctx, wg)

	dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		dbPool.Close()
	}()

	orders := store.NewOrderStore(dbPool)
	cleanupWorker, err := worker.New(ctx, registry, worker.NewCleanupHandler(orders, nil), 1, nil)
	if err != nil {
		return err
	}
	cleanupWorker.Start(ctx, wg)
	return nil
}
