package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/simplexbot/simplexbot/internal/server"
)

func main() {
	addr := flag.String("addr", "localhost:5225", "Address to listen on (e.g., localhost:5225)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	logger := zerolog.Nop()
	if *verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	srv := server.New(*addr, nil, logger)
	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("Mock SimpleX server listening on ws://%s", srv.Addr())

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.Printf("Received signal %v, shutting down...", sig)
	srv.Stop()
	log.Println("Mock server stopped")
}
