// Package app wires configuration into the trade book pipeline shared by the binaries.
package app

import (
	"context"
	"fmt"
	"net/http"

	apptradebook "tradebook/internal/application/service/tradebook"
	"tradebook/internal/config"
	"tradebook/internal/domain/interfaces"
	"tradebook/internal/infrastructure/alice"
	"tradebook/internal/infrastructure/broker"
	"tradebook/internal/infrastructure/documents"
	"tradebook/internal/infrastructure/tokens"
	"tradebook/internal/infrastructure/trades"

	"github.com/sirupsen/logrus"
)

type App struct {
	Service *apptradebook.Service
	Tokens  *tokens.Repository
	Trades  *trades.Repository
	Client  *alice.Client

	closers []func()
}

// New opens the configured document store and, when RABBITMQ_URL is set, the trade publisher.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	a := &App{}

	store, closeStore, err := OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeStore)

	var publisher interfaces.TradePublisher
	if cfg.RabbitMQ.URL != "" {
		pub, err := broker.NewPublisher(broker.Config{URL: cfg.RabbitMQ.URL, Exchange: cfg.RabbitMQ.TradesExchange}, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init trade publisher: %w", err)
		}
		a.closers = append(a.closers, func() { _ = pub.Close() })
		publisher = pub
	}

	a.Tokens = tokens.NewRepository(store, nil, logger)
	a.Trades = trades.NewRepository(store, nil, logger)
	a.Client = alice.NewClient(alice.Config{
		Endpoint:          cfg.Alice.TradesEndpoint,
		Timeout:           cfg.Alice.Timeout,
		RequestsPerSecond: cfg.Alice.RequestsPerSecond,
	}, &http.Client{Timeout: cfg.Alice.Timeout})
	a.Service = apptradebook.NewService(a.Tokens, a.Trades, a.Client, apptradebook.Options{
		DefaultAccount: cfg.Alice.DefaultAccountID,
		DefaultLimit:   cfg.Trades.DefaultLimit,
		Publisher:      publisher,
	}, logger)
	return a, nil
}

// OpenStore opens the configured document store. The returned func releases it.
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *logrus.Logger) (interfaces.DocumentStore, func(), error) {
	if cfg.Backend != config.StoreBackendPostgres {
		return documents.NewFileStore(cfg.DataDir, logger), func() {}, nil
	}

	store, err := documents.NewPostgresStore(ctx, cfg.DatabaseDSN, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init postgres store: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("ensure documents schema: %w", err)
	}
	return store, store.Close, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
