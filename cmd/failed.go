package cmd

import (
	"context"
	"fmt"

	"gemtasks/config"
	"gemtasks/model"
	"gemtasks/queue"

	"github.com/spf13/cobra"
)

func FailedCmd(cfg config.Config) *cobra.Command {
	failedCmd := &cobra.Command{
		Use:   "failed",
		Short: "Inspect and requeue retained failed jobs",
	}

	var kindFlag string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List retained failed jobs for a task kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := failedStore(cfg, kindFlag)
			if err != nil {
				return err
			}
			jobs, err := store.ListFailed(context.Background(), 0)
			if err != nil {
				return err
			}

			if len(jobs) == 0 {
				fmt.Println("No failed jobs retained.")
				return nil
			}
			fmt.Println("ID\t\tAttempts\tLast error")
			for _, job := range jobs {
				fmt.Printf("%s\t%d\t%s\n", job.ID, job.Attempts, job.LastError)
			}
			return nil
		},
	}

	requeueCmd := &cobra.Command{
		Use:   "requeue [job-id]",
		Short: "Move a retained failed job back to the ready queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := failedStore(cfg, kindFlag)
			if err != nil {
				return err
			}
			if err := store.RequeueFailed(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Job %s requeued.\n", args[0])
			return nil
		},
	}

	failedCmd.PersistentFlags().StringVar(&kindFlag, "kind", string(model.KindSendEmail), "task kind (send-email or delete-order)")
	failedCmd.AddCommand(listCmd)
	failedCmd.AddCommand(requeueCmd)
	return failedCmd
}

func failedStore(cfg config.Config, kind string) (queue.FailedStore, error) {
	k := model.Kind(kind)
	if k != model.KindSendEmail && k != model.KindDeleteOrder {
		return nil, fmt.Errorf("unknown task kind %q", kind)
	}
	q, err := queue.NewRedisQueue(queue.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}, k)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return q, nil
}
