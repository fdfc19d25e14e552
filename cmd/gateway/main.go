package main

import (
	"context"
	"log"

	"github.com/legit-games/apidocs-gateway/registry"
	"github.com/legit-games/apidocs-gateway/server"
)

func main() {
	cfg := server.GetConfig()

	ops := registry.NewOperationRegistry()
	if err := server.RegisterDemoOperations(ops); err != nil {
		log.Fatalf("register operations: %v", err)
	}

	srv, err := server.BuildFromConfig(context.Background(), cfg, ops)
	if err != nil {
		log.Fatalf("gateway startup failed: %v", err)
	}

	engine := server.NewGinEngine(srv)
	log.Printf("[gateway] listening on %s", cfg.Listen)
	if err := engine.Run(cfg.Listen); err != nil {
		log.Fatalf("gateway stopped: %v", err)
	}
}
