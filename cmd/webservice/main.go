package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Mythsoul/Eshop/config"
	"github.com/Mythsoul/Eshop/internal/app"
	"github.com/Mythsoul/Eshop/internal/infrastructure/database/mongodb"
	"github.com/rs/zerolog/log"
)

func main() {
	config := config.CreateNewConfig()
	db, err := mongodb.ConnectToMongoDB(config.MongoDBConfig.ConnectionURI(), config.MongoDBConfig.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to the database")
	}

	// runs after Run has drained queued events into Kafka or failed_events
	defer func() {
		if err := db.Client().Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to disconnect from the database")
		}
	}()

	server := &app.App{
		DB:     db,
		Config: config,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Server stopped")
	}
}
