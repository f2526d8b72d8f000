package main

import (
	"log"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/meridianclinic/meridian/internal/server"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	h, err := server.NewHandlerWithOptions(server.HandlerOptions{Logger: logger})
	if err != nil {
		log.Fatal(err)
	}

	logger.Info("listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, h); err != nil {
		log.Fatal(err)
	}
}
