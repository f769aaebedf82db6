package main

import (
	"chat-presence/contract"
	"chat-presence/domain"
	healthgrpc "chat-presence/grpc"
	"chat-presence/httpapi"
	"chat-presence/internal"
	"chat-presence/moderation"
	"chat-presence/repositories"
	"chat-presence/runtime/workers"
	"chat-presence/search"
	"chat-presence/services"
	"chat-presence/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownTimeout = 5 * time.Second

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal or a server failure.
// Deferred closes run before main exits.
func run() (int, error) {
	// 1. Configuration & Logger
	config, err := internal.LoadConfig()
	if err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Store
	storeOptions := config.StoreOptions()
	storeOptions.Unique = repositories.Constraints
	connectCtx, cancelConnect := context.WithTimeout(ctx, config.StoreTimeout)
	store, err := storage.Open(connectCtx, storeOptions, log)
	cancelConnect()
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		log.Info("Closing store...")
		if err := store.Close(); err != nil {
			log.Error("Failed to close store", "error", err)
		}
	}()

	// 3. Services
	repos := repositories.New(store, log)
	transactor := repositories.NewTransactor(store, log)
	participants := services.NewParticipantService(log, repos.Participants, transactor, time.Now)

	var messageOpts []services.MessageServiceOption
	if words := config.Words(); len(words) > 0 {
		char, err := internal.CharacterRune(config.CensorCharacter)
		if err != nil {
			return exitConfig, err
		}
		moderator, err := moderation.NewModerator(words, char, log)
		if err != nil {
			return exitConfig, fmt.Errorf("moderator: %w", err)
		}
		messageOpts = append(messageOpts, services.WithCensor(moderator))
	}
	if config.SearchIndexPath != "" {
		index, err := search.Open(config.SearchIndexPath, log)
		if err != nil {
			return exitRuntime, err
		}
		defer func() {
			log.Info("Closing search index...")
			_ = index.Close()
		}()
		messageOpts = append(messageOpts, services.WithIndex(index))
	}
	messages := services.NewMessageService(log, repos.Messages, participants, time.Now, messageOpts...)

	// 4. Optional gRPC health, then workers reporting to it
	var health *healthgrpc.HealthServer
	var healthListener net.Listener
	var sweeperOpts []workers.SweeperOption
	if config.GrpcPort > 0 {
		address := fmt.Sprintf("%s:%d", config.Host, config.GrpcPort)
		healthListener, err = net.Listen("tcp", address)
		if err != nil {
			return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
		}
		health = healthgrpc.NewHealthServer(log)
		sweeperOpts = append(sweeperOpts, workers.WithHealthReporter(health))
	}

	sweeper := workers.NewPresenceSweeper(
		log,
		repos.Participants,
		transactor,
		domain.NewPresencePolicy(config.StaleThreshold),
		config.SweepInterval,
		config.StoreTimeout,
		time.Now,
		sweeperOpts...,
	)
	stats := workers.NewProcessStatsWorker(log, config.StatsInterval)
	runners := []contract.Worker{sweeper, stats}
	if health != nil {
		runners = append(runners, workers.NewStoreWatcher(log, store, health, config.HealthInterval, config.StoreTimeout))
	}

	errChan := make(chan error, 2)

	// 5. HTTP API
	handler := httpapi.NewHandler(log, participants, messages, stats, config.StoreTimeout)
	router := httpapi.NewRouter(log, handler, httpapi.Options{AllowedOrigins: config.Origins()})
	server := &http.Server{Addr: config.Address(), Handler: router}
	go func() {
		log.Info("Starting HTTP server", "address", config.Address(), "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 6. Optional gRPC health and Badger inspector
	if health != nil {
		go func() {
			if err := health.Serve(healthListener); err != nil {
				errChan <- fmt.Errorf("gRPC server error: %w", err)
			}
		}()
	}

	var debugServer *http.Server
	if badgerStore, ok := store.(*storage.BadgerStore); ok && config.DebugPort > 0 {
		address := fmt.Sprintf("localhost:%d", config.DebugPort)
		debugServer = internal.NewDebugServer(badgerStore.DB(), address, "/inspect",
			[]string{repositories.ParticipantsCollection, repositories.MessagesCollection}, log)
		log.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://%s/inspect", address))
		go func() {
			if err := debugServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Debug server stopped", "error", err)
			}
		}()
	}

	sup := workers.NewSupervisor(log, config.RestartInterval)
	supervisorDone := make(chan struct{})
	go func() {
		sup.Add(runners...).Run(ctx)
		close(supervisorDone)
	}()

	// 7. Wait for Stop or Error
	code := exitOK
	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case runErr = <-errChan:
		code = exitRuntime
	}

	// 8. Graceful shutdown: stop accepting requests, then let the current sweep finish
	log.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	if debugServer != nil {
		_ = debugServer.Shutdown(shutdownCtx)
	}
	if health != nil {
		health.Stop()
	}
	sup.Stop()
	<-supervisorDone
	log.Info("Program stopped cleanly", slog.Int("exit_code", code))

	return code, runErr
}
