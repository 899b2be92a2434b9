package main

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mattsre/keysprint/go/internal/dbconfig"
	"github.com/mattsre/keysprint/go/internal/notifications"
	"github.com/mattsre/keysprint/go/internal/players"
	"github.com/mattsre/keysprint/go/internal/practice"
	"github.com/mattsre/keysprint/go/internal/race/coordinator"
	"github.com/mattsre/keysprint/go/internal/race/gateway"
	"github.com/mattsre/keysprint/go/internal/relay"
	"github.com/mattsre/keysprint/go/internal/results"
	"github.com/mattsre/keysprint/go/internal/texts"
)

type Services struct {
	Relay         relay.Relay
	Players       *players.App
	Results       *results.App
	Notifications *notifications.App
	Texts         *texts.Provider
	Coordinator   *coordinator.Coordinator
	Gateway       *gateway.ConnectionManager
	EventConsumer *gateway.EventConsumer
	Practice      *practice.Service
	Listener      *results.Listener
}

func setupServices(pool *pgxpool.Pool, dbCfg dbconfig.Config, config *Config) (*Services, error) {
	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer → transport

	eventRelay, err := setupRelay(config)
	if err != nil {
		return nil, err
	}

	playersRepo := players.NewRepository(pool)
	playersApp := players.NewApp(playersRepo)

	resultsRepo := results.NewRepository(pool)
	resultsApp := results.NewApp(resultsRepo, playersApp)

	notificationsRepo := notifications.NewRepository(pool)
	notificationsApp := notifications.NewApp(notificationsRepo)

	listenerCfg := results.DefaultListenerConfig()
	listenerCfg.DatabaseURL = dbCfg.DSN()
	listener, err := results.NewListener(resultsRepo, eventRelay, notificationsApp, listenerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create results listener: %w", err)
	}

	var generator texts.Generator
	if config.Texts.GeneratorURL != "" {
		generator = texts.NewGeneratorClient(config.Texts.GeneratorURL)
	}
	textProvider := texts.NewProvider(generator, texts.NewPool())

	raceCfg := coordinator.DefaultConfig()
	if config.Race.CountdownFrom > 0 {
		raceCfg.CountdownFrom = config.Race.CountdownFrom
	}
	if config.Race.ProgressMinIntervalMS > 0 {
		raceCfg.ProgressMinInterval = config.progressMinInterval()
	}
	if config.Race.RematchTimeoutSec > 0 {
		raceCfg.RematchTimeout = config.rematchTimeout()
	}
	raceCoordinator := coordinator.New(eventRelay, raceCfg, coordinator.WithResultStore(resultsApp))

	connectionManager := gateway.NewConnectionManager(gateway.DefaultConnectionConfig(), eventRelay)
	eventConsumer := gateway.NewEventConsumer(connectionManager, eventRelay)

	practiceService := practice.NewService(textProvider, resultsApp, playersApp, practice.DefaultServiceConfig())

	return &Services{
		Relay:         eventRelay,
		Players:       playersApp,
		Results:       resultsApp,
		Notifications: notificationsApp,
		Texts:         textProvider,
		Coordinator:   raceCoordinator,
		Gateway:       connectionManager,
		EventConsumer: eventConsumer,
		Practice:      practiceService,
		Listener:      listener,
	}, nil
}

func setupRelay(config *Config) (relay.Relay, error) {
	switch config.Relay.Mode {
	case "", "memory":
		return relay.NewMemoryRelay(), nil
	case "nats":
		natsCfg := relay.DefaultNATSConfig()
		if config.Relay.URL != "" {
			natsCfg.URL = config.Relay.URL
		}
		r, err := relay.ConnectNATS(natsCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect NATS relay: %w", err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown relay mode %q", config.Relay.Mode)
	}
}
