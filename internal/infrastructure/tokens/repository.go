package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	storage "tradebook/internal/domain/entity/storage"
	domain "tradebook/internal/domain/entity/trades"
	"tradebook/internal/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// DocumentName is the document holding accountId -> TokenRecord.
const DocumentName = "tokens"

type Repository struct {
	store  interfaces.DocumentStore
	now    func() time.Time
	logger *logrus.Entry
}

var _ interfaces.TokenRepository = (*Repository)(nil)

func NewRepository(store interfaces.DocumentStore, now func() time.Time, logger *logrus.Logger) *Repository {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Repository{store: store, now: now, logger: logger.WithField("component", "token_repository")}
}

// SaveToken replaces whatever is stored for accountID. An empty account id is ignored.
func (r *Repository) SaveToken(ctx context.Context, accountID, token string, refreshToken *string, expiresAt *int64) storage.Result {
	if accountID == "" {
		return storage.Result{Doc: storage.Document{}, Status: storage.StatusOK, Err: domain.ErrEmptyAccount}
	}
	record := domain.TokenRecord{
		AccountID:    accountID,
		Token:        token,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		UpdatedAt:    r.now().UnixMilli(),
	}
	res := r.store.Mutate(ctx, DocumentName, func(doc storage.Document) error {
		raw, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode token record: %w", err)
		}
		doc[accountID] = raw
		return nil
	})
	if res.Failed() {
		r.logger.WithField("account_id", accountID).Warn("token not persisted")
	}
	return res
}

func (r *Repository) GetToken(ctx context.Context, accountID string) (string, bool) {
	record, ok := r.GetRecord(ctx, accountID)
	if !ok || record.Token == "" {
		return "", false
	}
	return record.Token, true
}

func (r *Repository) GetRecord(ctx context.Context, accountID string) (*domain.TokenRecord, bool) {
	if accountID == "" {
		return nil, false
	}
	res := r.store.Get(ctx, DocumentName)
	raw, ok := res.Doc[accountID]
	if !ok {
		return nil, false
	}
	var record domain.TokenRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		r.logger.WithError(err).WithField("account_id", accountID).Warn("skip unreadable token record")
		return nil, false
	}
	if record.AccountID == "" {
		record.AccountID = accountID
	}
	return &record, true
}
