package main

import (
	"context"
	"log"
	"os"

	"github.com/viralforge/autopilot/internal/app/bootstrap"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/default.yaml"
	}

	rt, err := bootstrap.NewRuntime(context.Background(), configPath)
	if err != nil {
		log.Fatalf("bootstrap api: %v", err)
	}
	if err := rt.RunAPI(context.Background()); err != nil {
		log.Fatalf("run api: %v", err)
	}
}
