package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"finstream/src/config"
	"finstream/src/digest"
	"finstream/src/interfaces"
	"finstream/src/logger"
	"finstream/src/network"
	"finstream/src/poller"
	"finstream/src/publishers"
	"finstream/src/server"
	"finstream/src/storage"
	"finstream/src/upstream"
	"finstream/src/yahoo"

	"github.com/joho/godotenv"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// API keys and SMTP credentials live in the environment, a local .env
	// file is a convenience for development.
	if err := godotenv.Load(); err == nil {
		fmt.Println("Loaded environment from .env")
	}

	// Load config from YAML file
	config, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(config.LogLevel, config.Name)

	// 2. Storage
	var db interfaces.IDatabase

	switch config.Storage.DBType {
	case "postgres":
		db, err = storage.NewPostgresDB(config.MConfig, appLogger.Named("Postgres"))
	default:
		// Default to SQLite
		db, err = storage.NewSQLiteDB(config.MConfig, appLogger.Named("SQLite"))
	}

	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
	}
	if err := db.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
	}
	defer db.Close()

	// 3. Outbound HTTP plumbing
	var networkManager interfaces.INetworkManager = network.NewAsyncNetworkManager(config.MConfig, appLogger.Named("Network"))
	yahooClient := yahoo.NewClient(networkManager, appLogger.Named("Yahoo"), config.Network.ConcurrentRequests)

	// 4. Optional message bus
	var publisher interfaces.IPublisher
	if config.NATS.Enabled {
		natsPublisher := publishers.NewNATSPublisher(&config.NATS, appLogger.Named("NATS"))
		if err := natsPublisher.Connect(); err != nil {
			appLogger.Warning("NATS unavailable, continuing without bus publishing: %v", err)
		}
		publisher = natsPublisher
	}

	// 5. HTTP server and websocket hub
	srv := server.NewProxyServer(config.MConfig, appLogger.Named("Server"), yahooClient, db)
	srv.Publisher = publisher

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wg := &sync.WaitGroup{}

	// 6. Upstream streaming feed
	var streamClient *upstream.StreamClient
	token := os.Getenv(config.Upstream.APIKeyEnv)
	if token == "" {
		appLogger.Warning("%s is not set, running without the streaming feed", config.Upstream.APIKeyEnv)
	} else {
		endpoint := fmt.Sprintf("%s?token=%s", config.Upstream.Endpoint, token)
		streamClient = upstream.NewStreamClient(config.MConfig, appLogger.Named("Upstream"), endpoint, srv, publisher)
		srv.Upstream = streamClient
		srv.Stream = streamClient

		wg.Add(1)
		go streamClient.Run(ctx, wg)
	}

	// 7. Polling aggregator (index quotes + synthetic movers)
	aggregator := poller.NewAggregator(config.MConfig, appLogger.Named("Poller"), yahooClient, srv)
	srv.Snapshots = aggregator

	wg.Add(1)
	go aggregator.Run(ctx, wg)

	// 8. Daily email digest
	if config.Digest.Enabled {
		sender := digest.NewSMTPSender(&config.Digest, appLogger.Named("SMTP"))
		dg := digest.NewDigest(config.MConfig, appLogger.Named("Digest"), yahooClient, db, sender)
		srv.Digest = dg

		wg.Add(1)
		go dg.Run(ctx, wg)
	}

	// 9. Serve
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	cancel()
	if streamClient != nil {
		streamClient.Close()
	}
	wg.Wait()

	if publisher != nil {
		if err := publisher.Disconnect(); err != nil {
			appLogger.Warning("NATS disconnect: %v", err)
		}
	}
	srv.Stop()
}
