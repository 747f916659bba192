package main

import (
	"log"

	"gemtasks/cmd"
	"gemtasks/config"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Failed to load .env file: %v", err)
	}

	cfg := config.Load()
	cmd.Execute(cfg)
}
