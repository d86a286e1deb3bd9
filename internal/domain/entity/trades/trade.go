package trades

import "encoding/json"

// Trade is the canonical, store-resident representation of one executed trade.
// Empty strings stand for values the broker did not provide.
type Trade struct {
	ID         string          `json:"id"`
	ProviderID string          `json:"providerId,omitempty"`
	AccountID  string          `json:"accountId"`
	Timestamp  string          `json:"timestamp"`
	Symbol     string          `json:"symbol"`
	Type       string          `json:"type,omitempty"`
	Side       string          `json:"side"`
	Quantity   int64           `json:"quantity"`
	TradedQty  int64           `json:"tradedQty"`
	Price      float64         `json:"price"`
	Status     string          `json:"status"`
	Raw        json.RawMessage `json:"raw,omitempty"`
	CreatedAt  int64           `json:"createdAt,omitempty"`
}
