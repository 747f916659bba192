package cmd

import (
	"log"

	"gemtasks/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gemtasks",
	Short: "Background job service for the storefront",
}

func Execute(cfg config.Config) {
	rootCmd.AddCommand(ServeCmd(cfg))
	rootCmd.AddCommand(WorkerCmd(cfg))
	rootCmd.AddCommand(FailedCmd(cfg))

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
