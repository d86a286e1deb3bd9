package trades

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	storage "tradebook/internal/domain/entity/storage"
	domain "tradebook/internal/domain/entity/trades"
	"tradebook/internal/domain/interfaces"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// DocumentName is the document holding tradeId -> Trade.
	DocumentName = "trades"
	DefaultLimit = 200
)

type Repository struct {
	store  interfaces.DocumentStore
	now    func() time.Time
	newID  func() string
	logger *logrus.Entry
}

var _ interfaces.TradeRepository = (*Repository)(nil)

func NewRepository(store interfaces.DocumentStore, now func() time.Time, logger *logrus.Logger) *Repository {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Repository{
		store:  store,
		now:    now,
		newID:  uuid.NewString,
		logger: logger.WithField("component", "trade_repository"),
	}
}

// SaveTrades inserts every trade whose id is not stored yet and returns the inserted records.
// Existing records are never touched. The whole batch is one read-modify-write.
func (r *Repository) SaveTrades(ctx context.Context, batch []domain.Trade) ([]domain.Trade, storage.Result) {
	if len(batch) == 0 {
		return nil, storage.Result{Doc: storage.Document{}, Status: storage.StatusOK}
	}
	now := r.now()
	var inserted []domain.Trade
	res := r.store.Mutate(ctx, DocumentName, func(doc storage.Document) error {
		inserted = inserted[:0]
		for _, t := range batch {
			id := r.tradeID(t)
			if _, exists := doc[id]; exists {
				continue
			}
			record := canonical(t, id, now)
			raw, err := json.Marshal(record)
			if err != nil {
				r.logger.WithError(err).WithField("trade_id", id).Warn("skip unencodable trade")
				continue
			}
			doc[id] = raw
			inserted = append(inserted, record)
		}
		return nil
	})
	if res.Failed() {
		r.logger.WithField("count", len(inserted)).Warn("trades not persisted")
	}
	return inserted, res
}

// GetTrades returns stored trades, newest timestamp first. An empty accountID matches every
// account; a non-positive limit means DefaultLimit.
func (r *Repository) GetTrades(ctx context.Context, accountID string, limit int) []domain.Trade {
	if limit <= 0 {
		limit = DefaultLimit
	}
	res := r.store.Get(ctx, DocumentName)
	out := make([]domain.Trade, 0, len(res.Doc))
	for id, raw := range res.Doc {
		var t domain.Trade
		if err := json.Unmarshal(raw, &t); err != nil {
			r.logger.WithError(err).WithField("trade_id", id).Warn("skip unreadable trade")
			continue
		}
		if accountID != "" && t.AccountID != accountID {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return domain.TimestampMillis(out[i].Timestamp) > domain.TimestampMillis(out[j].Timestamp)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *Repository) tradeID(t domain.Trade) string {
	switch {
	case t.ID != "":
		return t.ID
	case t.ProviderID != "":
		return t.ProviderID
	default:
		return fmt.Sprintf("%s-%s-%s", t.AccountID, t.Timestamp, r.newID())
	}
}

func canonical(t domain.Trade, id string, now time.Time) domain.Trade {
	t.ID = id
	if t.Timestamp == "" {
		t.Timestamp = domain.FormatTimestamp(now)
	}
	if t.Quantity < 0 {
		t.Quantity = 0
	}
	if t.TradedQty < 0 {
		t.TradedQty = 0
	}
	if t.Price < 0 {
		t.Price = 0
	}
	t.CreatedAt = now.UnixMilli()
	return t
}
