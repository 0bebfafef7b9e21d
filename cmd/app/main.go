package main

import (
	"log"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/app"

	"github.com/joho/godotenv"
)

func main() {

	// Valid only for local runs, production sets the environment
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	if err := app.New().RegisterRoutes().Run(); err != nil {
		log.Fatalf("http server error: %v", err)
	}
}
