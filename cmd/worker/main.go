package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tagcheck/internal/config"
	"tagcheck/internal/notify"
	"tagcheck/internal/propagate"
	"tagcheck/internal/queue"
	"tagcheck/internal/store"
)

// Worker consumes history-change events and mirrors professor-side result
// corrections into the student-side records.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	st, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store init failed: %v", err)
	}
	defer closeStore()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "tagcheck:changes")
	}

	sender, err := newSender(ctx, cfg)
	if err != nil {
		log.Fatalf("push sender init failed: %v", err)
	}
	propagator := propagate.New(st, sender)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for history changes...")
	for msg := range messages {
		if msg.Type != queue.TypeHistoryUpdated {
			continue
		}

		var change propagate.Change
		if err := json.Unmarshal(msg.Body, &change); err != nil {
			log.Printf("bad change event payload: %v", err)
			continue
		}

		log.Printf("propagating change to record %s (professor %s)", change.RecordID, change.ProfessorUID)
		if err := propagator.Apply(ctx, change); err != nil {
			// Store faults only; the event will come around again on the
			// platform's redelivery and the overwrite is idempotent.
			log.Printf("propagation for %s failed: %v", change.RecordID, err)
			continue
		}
	}

	log.Println("worker stopped")
}

func newStore(ctx context.Context, cfg config.App) (store.Store, func(), error) {
	switch cfg.StoreBackend {
	case "memory":
		return store.NewMemory(), func() {}, nil
	case "postgres":
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() { _ = pg.Close() }, nil
	default:
		app, err := store.NewFirebaseApp(ctx, cfg.FirestoreProjectID, cfg.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		fs, err := store.NewFirestore(ctx, app)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() { _ = fs.Close() }, nil
	}
}

func newSender(ctx context.Context, cfg config.App) (propagate.Sender, error) {
	if cfg.PushSkip {
		return notify.NewFCM(ctx, nil, true)
	}
	app, err := store.NewFirebaseApp(ctx, cfg.FirestoreProjectID, cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	return notify.NewFCM(ctx, app, false)
}
