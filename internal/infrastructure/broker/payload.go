package broker

import domain "tradebook/internal/domain/entity/trades"

// TradesMessage is the body published for every ingestion that stored new trades.
type TradesMessage struct {
	AccountID   string         `json:"accountId"`
	Trades      []domain.Trade `json:"trades"`
	PublishedAt int64          `json:"publishedAt"`
}
