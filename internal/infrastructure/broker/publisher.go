package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "tradebook/internal/domain/entity/trades"
	"tradebook/internal/domain/interfaces"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Config describes where trade events go.
type Config struct {
	URL      string
	Exchange string
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends newly stored trades to a durable fanout exchange.
type Publisher struct {
	exchange string
	logger   *logrus.Entry
	now      func() time.Time

	mu   sync.Mutex
	conn *amqp.Connection
	ch   channel
}

var _ interfaces.TradePublisher = (*Publisher)(nil)

// NewPublisher dials RabbitMQ and declares the exchange.
func NewPublisher(cfg Config, logger *logrus.Logger) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	if cfg.Exchange == "" {
		return nil, errors.New("rabbitmq exchange is required")
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}
	p := newPublisher(ch, cfg.Exchange, logger)
	p.conn = conn
	p.logger.Infof("rabbitmq publisher ready: exchange=%s", cfg.Exchange)
	return p, nil
}

func newPublisher(ch channel, exchange string, logger *logrus.Logger) *Publisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Publisher{
		exchange: exchange,
		logger:   logger.WithField("component", "trade_publisher"),
		now:      time.Now,
		ch:       ch,
	}
}

func (p *Publisher) PublishTrades(ctx context.Context, accountID string, batch []domain.Trade) error {
	if len(batch) == 0 {
		return nil
	}
	now := p.now()
	body, err := json.Marshal(TradesMessage{AccountID: accountID, Trades: batch, PublishedAt: now.UnixMilli()})
	if err != nil {
		return fmt.Errorf("encode trades message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return errors.New("publisher is closed")
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.exchange, err)
	}
	p.logger.WithFields(logrus.Fields{"account_id": accountID, "count": len(batch)}).Debug("published trades")
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
		p.ch = nil
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
		p.conn = nil
	}
	return errors.Join(errs...)
}
