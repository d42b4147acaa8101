package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"market-chat/auth"
	"market-chat/moderation"
	"market-chat/observability"
	"market-chat/repositories"
	"market-chat/runtime"
	"market-chat/services"
	"market-chat/ws"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the HTTP server and the reporter.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Core components
	replacement, err := config.ReplacementRune()
	if err != nil {
		return err
	}
	moderator, err := moderation.NewModerator(config.WordList(), replacement, log)
	if err != nil {
		return fmt.Errorf("moderator setup failed: %w", err)
	}

	messageRepository := repositories.NewMessageRepository(db, log)
	conversationRepository := repositories.NewConversationRepository(db, log)
	registry := runtime.NewRegistry(conversationRepository, log)
	gateway := services.NewChatGateway(log, registry, messageRepository,
		conversationRepository, &moderator)
	handler := ws.NewHandler(log, registry, gateway, auth.NewJWTVerifier(),
		config.AuthTimeout, config.WriteTimeout, config.MaxMessageSize)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Stats reporter
	reporter, err := observability.NewReporter(log, registry, config.MetricInterval)
	if err != nil {
		return fmt.Errorf("reporter setup failed: %w", err)
	}
	go reporter.Run(ctx)

	// 6. HTTP server
	mux := http.NewServeMux()
	handler.Register(mux)
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting relay server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Forced shutdown", "error", err)
	}
	log.Info("Program stopped cleanly")

	return nil
}
