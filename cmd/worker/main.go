package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/meeting-room-reservation/internal/config"
	"github.com/iliyamo/meeting-room-reservation/internal/logger"
	"github.com/iliyamo/meeting-room-reservation/internal/queue"
)

// The worker consumes reservation events and appends one line per event to
// $LOG_DIR/reservation.log.
func main() {
	_ = godotenv.Load()
	log := logger.New()

	dir := os.Getenv("LOG_DIR")
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error("create log dir failed", logger.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("worker started", logger.F("QUEUE", queue.QueueName), logger.F("DIR", dir))
	if err := queue.NewConsumer(config.AMQPURL(), dir, log).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("worker stopped", logger.Error(err))
		os.Exit(1)
	}
	log.Info("worker exited")
}
