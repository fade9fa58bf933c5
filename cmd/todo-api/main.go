package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/todo-cloud/backend/internal/app/attachments"
	"github.com/todo-cloud/backend/internal/app/todos"
	"github.com/todo-cloud/backend/internal/platform/auth"
	"github.com/todo-cloud/backend/internal/platform/dbpool"
	"github.com/todo-cloud/backend/internal/platform/env"
	"github.com/todo-cloud/backend/internal/platform/metrics"
	"github.com/todo-cloud/backend/internal/platform/natsutil"
	"github.com/todo-cloud/backend/internal/platform/objectstore"
)

func main() {
	_ = godotenv.Load()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiAddr := env.String("TODO_API_ADDR", env.DefaultAPIAddr)
	uiOrigin := env.String("UI_ORIGIN", "*")
	pgURL := env.String("DATABASE_URL", env.DefaultDatabaseURL)
	jwtSecret := env.String("JWT_SECRET", "dev-insecure-change-me")
	tokenTTL := env.Duration("TOKEN_TTL", 24*time.Hour)
	bucket := env.String("ATTACHMENT_BUCKET", "todo-attachments")
	natsURL := env.String("NATS_URL", "")
	shutdownTimeout := env.Duration("SHUTDOWN_TIMEOUT", 10*time.Second)

	pool, err := dbpool.New(runCtx, pgURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	repo := todos.NewPostgresRepository(pool)
	if err := waitForSchema(runCtx, repo, 30*time.Second); err != nil {
		log.Fatal(err)
	}

	s3Client, err := objectstore.NewClient(runCtx, objectstore.Options{
		Region:          env.String("AWS_REGION", "us-east-1"),
		Endpoint:        env.String("S3_ENDPOINT", ""),
		AccessKeyID:     env.String("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.String("S3_SECRET_ACCESS_KEY", ""),
		UsePathStyle:    env.Bool("S3_USE_PATH_STYLE", false),
	})
	if err != nil {
		log.Fatal(err)
	}
	uploads := attachments.NewStore(s3Client, bucket)

	// The change feed is optional; leaving NATS_URL unset runs the API
	// without it.
	var publish todos.PublishFunc
	var natsConn *nats.Conn
	if natsURL != "" {
		client, err := natsutil.ConnectJetStreamWithRetry(natsURL, 20*time.Second)
		if err != nil {
			log.Fatal(err)
		}
		defer client.Close()
		publisher := natsutil.JetStreamPublisher{JS: client.JS}
		publish = publisher.Publish
		natsConn = client.Conn
	}

	service := todos.NewService(repo, uploads, publish)
	handler := todos.NewHandler(service, auth.NewManager(jwtSecret, tokenTTL), uiOrigin)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := checkReadiness(r.Context(), pool, natsConn); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metrics.DefaultHandler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:              apiAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	fmt.Printf("Todo API listening on %s\n", apiAddr)
	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		log.Fatal(err)
	case <-runCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("todo-api graceful shutdown failed: %v", err)
	}
}

func waitForSchema(ctx context.Context, repo *todos.PostgresRepository, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		attemptCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		lastErr = repo.EnsureSchema(attemptCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
		log.Printf("waiting for todo schema readiness: %v", lastErr)
		time.Sleep(500 * time.Millisecond)
	}
	return lastErr
}

func checkReadiness(ctx context.Context, pool *pgxpool.Pool, conn *nats.Conn) error {
	checkCtx, cancel := context.WithTimeout(ctx, 1500*time.Millisecond)
	defer cancel()
	if err := pool.Ping(checkCtx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}

	if conn != nil && conn.Status() != nats.CONNECTED {
		return fmt.Errorf("nats is not connected: %s", conn.Status().String())
	}
	return nil
}
