package main

import (
	"context"
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/app/bootstrap"
)

// The worker process: event relay plus the scan and mail pools, with a gRPC
// health endpoint. It shares the bootstrap wiring with the API binary so the
// two can never drift on config or stores.
func main() {
	ctx := context.Background()
	runtime, err := bootstrap.NewRuntime(ctx, configPath())
	if err != nil {
		log.Fatalf("bootstrap worker process: %v", err)
	}
	if err := runtime.RunWorker(ctx); err != nil {
		log.Fatalf("worker process exited: %v", err)
	}
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "configs/default.yaml"
}
