package tradebook

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "tradebook/internal/domain/entity/trades"
	"tradebook/internal/domain/interfaces"

	"github.com/sirupsen/logrus"
)

const DefaultAccountID = "Master"

var ErrEmptyToken = errors.New("token is required")

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	DefaultAccount string
	DefaultLimit   int
	Normalizer     *Normalizer
	Publisher      interfaces.TradePublisher
	Now            func() time.Time
}

// Service runs the trade book pipeline: token lookup, broker fetch, normalization and storage.
type Service struct {
	tokens     interfaces.TokenRepository
	trades     interfaces.TradeRepository
	client     interfaces.TradeBookClient
	publisher  interfaces.TradePublisher
	normalizer *Normalizer
	account    string
	limit      int
	now        func() time.Time
	logger     *logrus.Entry
}

// FetchResult is what one pipeline run hands back: the normalized list as fetched,
// not the deduplicated stored view.
type FetchResult struct {
	AccountID string
	Trades    []domain.Trade
	Inserted  int
}

// TokenStatus describes a stored credential without exposing it.
type TokenStatus struct {
	AccountID string `json:"accountId"`
	HasToken  bool   `json:"hasToken"`
	ExpiresAt *int64 `json:"expiresAt"`
	UpdatedAt int64  `json:"updatedAt"`
	Expired   bool   `json:"expired"`
}

func NewService(
	tokens interfaces.TokenRepository,
	trades interfaces.TradeRepository,
	client interfaces.TradeBookClient,
	opts Options,
	logger *logrus.Logger,
) *Service {
	if opts.DefaultAccount == "" {
		opts.DefaultAccount = DefaultAccountID
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Normalizer == nil {
		opts.Normalizer = NewNormalizer(opts.Now, nil)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		tokens:     tokens,
		trades:     trades,
		client:     client,
		publisher:  opts.Publisher,
		normalizer: opts.Normalizer,
		account:    opts.DefaultAccount,
		limit:      opts.DefaultLimit,
		now:        opts.Now,
		logger:     logger.WithField("component", "tradebook_service"),
	}
}

// ResolveAccount substitutes the default account for an empty id.
func (s *Service) ResolveAccount(accountID string) string {
	if accountID == "" {
		return s.account
	}
	return accountID
}

// FetchTradeBook pulls the broker trade book for accountID, stores new trades and returns
// the normalized list. It fails with domain.ErrUnauthenticated when no token is saved and
// with *domain.UpstreamError when the broker rejects the call.
func (s *Service) FetchTradeBook(ctx context.Context, accountID string) (*FetchResult, error) {
	accountID = s.ResolveAccount(accountID)
	log := s.logger.WithField("account_id", accountID)

	token, ok := s.tokens.GetToken(ctx, accountID)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	log.WithField("token", maskToken(token)).Debug("fetching trade book")

	body, err := s.client.FetchTradeBook(ctx, token)
	if err != nil {
		var upstream *domain.UpstreamError
		if errors.As(err, &upstream) {
			log.WithFields(logrus.Fields{"status": upstream.Status, "body": upstream.Body}).Error("trade book API error")
			return nil, err
		}
		return nil, fmt.Errorf("fetch trade book: %w", err)
	}

	items, err := ExtractTrades(body)
	if err != nil {
		return nil, fmt.Errorf("decode trade book: %w", err)
	}

	normalized := s.normalizer.NormalizeAll(accountID, items)
	inserted, res := s.trades.SaveTrades(ctx, normalized)
	if res.Degraded() || res.Failed() {
		log.WithError(res.Err).WithField("store_status", res.Status.String()).Warn("trade book stored with degraded persistence")
	}
	if res.Failed() {
		// Nothing reached the store, so nothing is announced.
		inserted = nil
	}
	s.publish(ctx, accountID, inserted)

	log.WithFields(logrus.Fields{"count": len(normalized), "inserted": len(inserted)}).Info("trade book fetched")
	return &FetchResult{AccountID: accountID, Trades: normalized, Inserted: len(inserted)}, nil
}

func (s *Service) publish(ctx context.Context, accountID string, inserted []domain.Trade) {
	if s.publisher == nil || len(inserted) == 0 {
		return
	}
	if err := s.publisher.PublishTrades(ctx, accountID, inserted); err != nil {
		s.logger.WithError(err).WithField("account_id", accountID).Warn("publish trades failed")
	}
}

// ListTrades returns stored trades for accountID, or for every account when it is empty.
func (s *Service) ListTrades(ctx context.Context, accountID string, limit int) []domain.Trade {
	if limit <= 0 {
		limit = s.limit
	}
	return s.trades.GetTrades(ctx, accountID, limit)
}

// SaveToken stores the credentials handed over by the OAuth flow.
// Persistence problems are logged by the repository and not returned.
func (s *Service) SaveToken(ctx context.Context, accountID, token string, refreshToken *string, expiresAt *int64) error {
	if accountID == "" {
		return domain.ErrEmptyAccount
	}
	if token == "" {
		return ErrEmptyToken
	}
	s.tokens.SaveToken(ctx, accountID, token, refreshToken, expiresAt)
	s.logger.WithFields(logrus.Fields{"account_id": accountID, "token": maskToken(token)}).Info("token saved")
	return nil
}

// TokenStatus reports whether accountID has a stored credential.
func (s *Service) TokenStatus(ctx context.Context, accountID string) TokenStatus {
	accountID = s.ResolveAccount(accountID)
	status := TokenStatus{AccountID: accountID}
	record, ok := s.tokens.GetRecord(ctx, accountID)
	if !ok {
		return status
	}
	status.HasToken = record.Token != ""
	status.ExpiresAt = record.ExpiresAt
	status.UpdatedAt = record.UpdatedAt
	status.Expired = record.Expired(s.now())
	return status
}

func maskToken(token string) string {
	if token == "" {
		return "<no-token>"
	}
	if len(token) <= 16 {
		return "***"
	}
	return token[:8] + "..." + token[len(token)-8:]
}
