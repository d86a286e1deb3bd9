package tradebook

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	storage "tradebook/internal/domain/entity/storage"
	domain "tradebook/internal/domain/entity/trades"
	"tradebook/internal/infrastructure/documents"
	"tradebook/internal/infrastructure/tokens"
	"tradebook/internal/infrastructure/trades"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	body   []byte
	err    error
	calls  int
	tokens []string
}

func (c *fakeClient) FetchTradeBook(_ context.Context, token string) ([]byte, error) {
	c.calls++
	c.tokens = append(c.tokens, token)
	return c.body, c.err
}

type fakePublisher struct {
	account string
	batches [][]domain.Trade
	err     error
}

func (p *fakePublisher) PublishTrades(_ context.Context, accountID string, batch []domain.Trade) error {
	p.account = accountID
	p.batches = append(p.batches, batch)
	return p.err
}

type fixture struct {
	svc       *Service
	store     *documents.FileStore
	tokens    *tokens.Repository
	trades    *trades.Repository
	client    *fakeClient
	publisher *fakePublisher
}

var serviceNow = time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logrus.New()
	now := func() time.Time { return serviceNow }
	store := documents.NewFileStore(t.TempDir(), logger)
	tokenRepo := tokens.NewRepository(store, now, logger)
	tradeRepo := trades.NewRepository(store, now, logger)
	client := &fakeClient{}
	publisher := &fakePublisher{}
	svc := NewService(tokenRepo, tradeRepo, client, Options{Publisher: publisher, Now: now}, logger)
	return &fixture{svc: svc, store: store, tokens: tokenRepo, trades: tradeRepo, client: client, publisher: publisher}
}

func TestFetchTradeBook_Unauthenticated(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.FetchTradeBook(context.Background(), "X")

	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Zero(t, f.client.calls)
	assert.Equal(t, storage.StatusMissing, f.store.Get(context.Background(), trades.DocumentName).Status)
}

func TestFetchTradeBook_StoresNormalizedTrades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.tokens.SaveToken(ctx, "A", "secret-token", nil, nil)
	f.client.body = []byte(`{"data":[{"tradeId":"T1","qty":"5","rate":"100.5"}]}`)

	res, err := f.svc.FetchTradeBook(ctx, "A")
	require.NoError(t, err)

	assert.Equal(t, "A", res.AccountID)
	assert.Len(t, res.Trades, 1)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, []string{"secret-token"}, f.client.tokens)

	stored := f.trades.GetTrades(ctx, "A", 0)
	require.Len(t, stored, 1)
	assert.Equal(t, "T1", stored[0].ID)
	assert.Equal(t, int64(5), stored[0].Quantity)
	assert.Equal(t, int64(5), stored[0].TradedQty)
	assert.Equal(t, 100.5, stored[0].Price)
	assert.Equal(t, serviceNow.UnixMilli(), stored[0].CreatedAt)

	require.Len(t, f.publisher.batches, 1)
	assert.Equal(t, "A", f.publisher.account)
}

func TestFetchTradeBook_DefaultAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.tokens.SaveToken(ctx, DefaultAccountID, "master-token", nil, nil)
	f.client.body = []byte(`[]`)

	res, err := f.svc.FetchTradeBook(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, DefaultAccountID, res.AccountID)
	assert.Empty(t, res.Trades)
	assert.Empty(t, f.publisher.batches)
}

func TestFetchTradeBook_RepeatReturnsListButStoresOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.tokens.SaveToken(ctx, "A", "tok", nil, nil)
	f.client.body = []byte(`{"trades":[{"id":"T1","symbol":"INFY"},{"id":"T2"}]}`)

	_, err := f.svc.FetchTradeBook(ctx, "A")
	require.NoError(t, err)
	f.client.body = []byte(`{"trades":[{"id":"T1","symbol":"CHANGED"},{"id":"T2"}]}`)
	res, err := f.svc.FetchTradeBook(ctx, "A")
	require.NoError(t, err)

	assert.Len(t, res.Trades, 2)
	assert.Equal(t, "CHANGED", res.Trades[0].Symbol)
	assert.Zero(t, res.Inserted)
	assert.Len(t, f.publisher.batches, 1)

	stored := f.trades.GetTrades(ctx, "A", 0)
	assert.Len(t, stored, 2)
	for _, tr := range stored {
		if tr.ID == "T1" {
			assert.Equal(t, "INFY", tr.Symbol)
		}
	}
}

func TestFetchTradeBook_UpstreamError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.tokens.SaveToken(ctx, "A", "tok", nil, nil)
	f.client.err = domain.NewUpstreamError(403, "forbidden")

	_, err := f.svc.FetchTradeBook(ctx, "A")

	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 403, upstream.Status)
	assert.Equal(t, "forbidden", upstream.Body)
}

func TestFetchTradeBook_TransportError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.tokens.SaveToken(ctx, "A", "tok", nil, nil)
	boom := errors.New("connection refused")
	f.client.err = boom

	_, err := f.svc.FetchTradeBook(ctx, "A")

	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestFetchTradeBook_InvalidJSON(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.tokens.SaveToken(ctx, "A", "tok", nil, nil)
	f.client.body = []byte(`not json`)

	_, err := f.svc.FetchTradeBook(ctx, "A")

	assert.Error(t, err)
	assert.Empty(t, f.trades.GetTrades(ctx, "A", 0))
}

func TestFetchTradeBook_PublishFailureIsAbsorbed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.tokens.SaveToken(ctx, "A", "tok", nil, nil)
	f.client.body = []byte(`[{"id":"T1"}]`)
	f.publisher.err = errors.New("broker down")

	res, err := f.svc.FetchTradeBook(ctx, "A")

	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
}

func TestFetchTradeBook_PersistenceFailureStillResponds(t *testing.T) {
	logger := logrus.New()
	now := func() time.Time { return serviceNow }
	tokenRepo := tokens.NewRepository(documents.NewFileStore(t.TempDir(), logger), now, logger)

	// A regular file where the data directory should be makes every read and write fail.
	blocked := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))
	tradeRepo := trades.NewRepository(documents.NewFileStore(blocked, logger), now, logger)

	client := &fakeClient{body: []byte(`[{"id":"T1","symbol":"SBIN-EQ"},{"symbol":"INFY-EQ"}]`)}
	publisher := &fakePublisher{}
	svc := NewService(tokenRepo, tradeRepo, client, Options{Publisher: publisher, Now: now}, logger)
	tokenRepo.SaveToken(context.Background(), "A", "tok", nil, nil)

	res, err := svc.FetchTradeBook(context.Background(), "A")

	require.NoError(t, err)
	require.Len(t, res.Trades, 2)
	assert.Equal(t, "T1", res.Trades[0].ID)
	assert.Equal(t, "INFY-EQ", res.Trades[1].Symbol)
	assert.Zero(t, res.Inserted)
	assert.Empty(t, publisher.batches)
	assert.Empty(t, tradeRepo.GetTrades(context.Background(), "A", 0))
}

func TestSaveTokenValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.SaveToken(ctx, "", "tok", nil, nil), domain.ErrEmptyAccount)
	assert.ErrorIs(t, f.svc.SaveToken(ctx, "A", "", nil, nil), ErrEmptyToken)
	require.NoError(t, f.svc.SaveToken(ctx, "A", "tok", nil, nil))

	token, ok := f.tokens.GetToken(ctx, "A")
	assert.True(t, ok)
	assert.Equal(t, "tok", token)
}

func TestTokenStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	expired := serviceNow.Add(-time.Hour).UnixMilli()
	f.tokens.SaveToken(ctx, "A", "tok", nil, &expired)

	status := f.svc.TokenStatus(ctx, "A")
	assert.True(t, status.HasToken)
	assert.True(t, status.Expired)
	assert.Equal(t, serviceNow.UnixMilli(), status.UpdatedAt)

	missing := f.svc.TokenStatus(ctx, "")
	assert.Equal(t, DefaultAccountID, missing.AccountID)
	assert.False(t, missing.HasToken)
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "<no-token>", maskToken(""))
	assert.Equal(t, "***", maskToken("short"))
	assert.Equal(t, "abcdefgh...stuvwxyz", maskToken("abcdefghijklmnopqrstuvwxyz"))
}
