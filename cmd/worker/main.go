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
		log.Fatalf("bootstrap worker: %v", err)
	}
	if err := rt.RunWorker(context.Background()); err != nil {
		log.Fatalf("run worker: %v", err)
	}
}
