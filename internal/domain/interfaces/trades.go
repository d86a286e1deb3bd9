package interfaces

import (
	"context"

	storage "tradebook/internal/domain/entity/storage"
	trades "tradebook/internal/domain/entity/trades"
)

type TokenRepository interface {
	SaveToken(ctx context.Context, accountID, token string, refreshToken *string, expiresAt *int64) storage.Result
	GetToken(ctx context.Context, accountID string) (string, bool)
	GetRecord(ctx context.Context, accountID string) (*trades.TokenRecord, bool)
}

type TradeRepository interface {
	SaveTrades(ctx context.Context, batch []trades.Trade) ([]trades.Trade, storage.Result)
	GetTrades(ctx context.Context, accountID string, limit int) []trades.Trade
}

// TradeBookClient fetches the raw trade book payload from the broker.
type TradeBookClient interface {
	FetchTradeBook(ctx context.Context, token string) ([]byte, error)
}

// TradePublisher announces freshly stored trades to downstream consumers.
type TradePublisher interface {
	PublishTrades(ctx context.Context, accountID string, batch []trades.Trade) error
}
