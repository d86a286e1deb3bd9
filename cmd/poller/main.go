package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"tradebook/internal/app"
	apptradebook "tradebook/internal/application/service/tradebook"
	"tradebook/internal/config"
	domain "tradebook/internal/domain/entity/trades"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
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

	accounts := cfg.Poll.Accounts
	if len(accounts) == 0 {
		accounts = []string{cfg.Alice.DefaultAccountID}
	}
	if cfg.Poll.Interval <= 0 {
		logger.Fatalf("POLL_INTERVAL_SECONDS must be positive")
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("init trade book: %v", err)
	}
	defer application.Close()

	logger.WithFields(logrus.Fields{
		"accounts": accounts,
		"interval": cfg.Poll.Interval.String(),
	}).Info("poller started")

	ticker := time.NewTicker(cfg.Poll.Interval)
	defer ticker.Stop()

	for {
		pollAll(ctx, application.Service, accounts, logger)

		select {
		case <-ctx.Done():
			logger.Info("poller stopped")
			return
		case <-ticker.C:
		}
	}
}

// pollAll runs one fetch per account concurrently. Failures are logged per account and never
// stop the other accounts.
func pollAll(ctx context.Context, svc *apptradebook.Service, accounts []string, logger *logrus.Logger) {
	g, gctx := errgroup.WithContext(ctx)
	for _, account := range accounts {
		g.Go(func() error {
			log := logger.WithField("account_id", account)
			result, err := svc.FetchTradeBook(gctx, account)
			var upstream *domain.UpstreamError
			switch {
			case err == nil:
				log.WithFields(logrus.Fields{"count": len(result.Trades), "inserted": result.Inserted}).Info("poll complete")
			case errors.Is(err, domain.ErrUnauthenticated):
				log.Warn("no OAuth token stored, skipping")
			case errors.As(err, &upstream):
				log.WithField("status", upstream.Status).Warn("trade book API rejected poll")
			case errors.Is(err, context.Canceled):
			default:
				log.WithError(err).Error("poll failed")
			}
			return nil
		})
	}
	_ = g.Wait()
}
