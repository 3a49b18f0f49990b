package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tejomayadarshan/rfid-api/internal/config"
	"github.com/tejomayadarshan/rfid-api/internal/notify"
	"github.com/tejomayadarshan/rfid-api/internal/queue"
	"github.com/tejomayadarshan/rfid-api/internal/store"
)

// Worker drains the notification queue and delivers text messages through
// the SMS gateway. Runs alongside cmd/api when QUEUE_BACKEND is redis; an
// in-memory queue is drained by the api process itself and needs no
// worker.
func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}
	if !cfg.SMSEnabled {
		log.Fatal("SMS_ENABLED is not set; the worker has nothing to do")
	}
	if cfg.QueueBackend == "memory" {
		log.Fatal("QUEUE_BACKEND=memory cannot be shared with a worker process; use redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr, cfg.RedisTimeout)
	q := queue.NewRedisQueue(redisClient.Client, "rfid:notifications")

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Printf("invalid TIMEZONE %q, using UTC: %v", cfg.Timezone, err)
		loc = time.UTC
	}

	sender := notify.NewSender(
		notify.NewClient(cfg.SMSAPIURL, cfg.SMSAPIKey, cfg.SMSSenderID),
		notify.Templates{Entry: cfg.SMSTemplateEntry, Exit: cfg.SMSTemplateExit, Absent: cfg.SMSTemplateAbsent},
		loc,
	)

	log.Println("worker started, waiting for notification jobs...")
	if err := sender.Run(ctx, q); err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}
	log.Println("worker exited")
}
