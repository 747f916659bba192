package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"gemtasks/config"
	"gemtasks/queue"
	"gemtasks/worker"

	"github.com/spf13/cobra"
)

func WorkerCmd(cfg config.Config) *cobra.Command {
	workerCmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the background workers without the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			concurrency, _ := cmd.Flags().GetInt("email-concurrency")

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			registry := queue.NewRegistry(queue.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
			})
			defer registry.Close()

			var wg sync.WaitGroup
			if err := startWorkers(ctx, cfg, registry, concurrency, &wg); err != nil {
				return err
			}
			log.Println("Workers started. Press Ctrl+C to shut down gracefully.")

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig

			log.Println("Shutdown signal received")
			cancel()
			wg.Wait()
			log.Println("All workers stopped")
			return nil
		},
	}

	workerCmd.Flags().Int("email-concurrency", worker.EmailConcurrency, "number of concurrent email jobs")
	return workerCmd
}
