package main

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"datalens/adapters/llm"
	"datalens/adapters/tabular"
	"datalens/api"
	"datalens/internal/config"
	"datalens/ports"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var client ports.LLMClient
	if cfg.AI.OpenAIKey != "" {
		client, err = llm.NewClient(cfg.AI)
		if err != nil {
			log.Fatalf("Failed to create LLM client: %v", err)
		}
	} else {
		log.Println("OPENAI_API_KEY not set; chat assistant disabled")
	}

	var db *sqlx.DB
	if cfg.Database.URL != "" {
		db, err = tabular.Connect(context.Background(), cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
	}

	server := api.NewServer(cfg, client, db)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
