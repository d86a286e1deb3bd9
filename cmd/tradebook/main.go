// Command tradebook calls the trade book endpoint once and prints the raw answer.
// It is meant for checking tokens and response shapes by hand.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tradebook/internal/app"
	apptradebook "tradebook/internal/application/service/tradebook"
	"tradebook/internal/config"
	domain "tradebook/internal/domain/entity/trades"
	"tradebook/internal/infrastructure/alice"
	"tradebook/internal/infrastructure/tokens"

	"github.com/sirupsen/logrus"
)

func main() {
	token := flag.String("token", "", "bearer token; read from the store when empty")
	account := flag.String("account", "", "account whose stored token is used")
	endpoint := flag.String("endpoint", "", "override ALICE_TRADES_ENDPOINT")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		logger.Warnf("using default log level: %v", err)
	}
	if *endpoint != "" {
		cfg.Alice.TradesEndpoint = *endpoint
	}
	if *account == "" {
		*account = cfg.Alice.DefaultAccountID
	}

	if *token == "" {
		store, closeStore, err := app.OpenStore(ctx, cfg.Store, logger)
		if err != nil {
			logger.Fatalf("open document store: %v", err)
		}
		stored, ok := tokens.NewRepository(store, nil, logger).GetToken(ctx, *account)
		closeStore()
		if !ok {
			logger.Fatalf("no token stored for account %q; pass -token", *account)
		}
		*token = stored
	}

	client := alice.NewClient(alice.Config{Endpoint: cfg.Alice.TradesEndpoint, Timeout: cfg.Alice.Timeout}, nil)
	fmt.Printf("GET %s\n", client.Endpoint())

	body, err := client.FetchTradeBook(ctx, *token)
	var upstream *domain.UpstreamError
	switch {
	case errors.As(err, &upstream):
		fmt.Printf("status: %d\n", upstream.Status)
		fmt.Println(upstream.Body)
		os.Exit(1)
	case err != nil:
		logger.Fatalf("request failed: %v", err)
	}

	fmt.Println("status: 200")
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(pretty.String())

	items, err := apptradebook.ExtractTrades(body)
	if err == nil {
		fmt.Printf("trades in payload: %d\n", len(items))
	}
}
