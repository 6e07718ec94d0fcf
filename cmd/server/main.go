package main

import (
	"context"
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/app/bootstrap"
)

// The API process: HTTP surface, capability issuance, uploads and downloads.
// Scan and mail jobs are drained by the worker binary.
func main() {
	ctx := context.Background()
	runtime, err := bootstrap.NewRuntime(ctx, configPath())
	if err != nil {
		log.Fatalf("bootstrap api process: %v", err)
	}
	if err := runtime.RunAPI(ctx); err != nil {
		log.Fatalf("api process exited: %v", err)
	}
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "configs/default.yaml"
}
