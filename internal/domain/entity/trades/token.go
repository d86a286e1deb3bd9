package trades

import "time"

// TokenRecord holds the broker credentials saved for one account.
type TokenRecord struct {
	AccountID    string  `json:"accountId"`
	Token        string  `json:"token"`
	RefreshToken *string `json:"refreshToken"`
	ExpiresAt    *int64  `json:"expiresAt"`
	UpdatedAt    int64   `json:"updatedAt"`
}

// Expired reports whether ExpiresAt (epoch millis) lies before now.
// Nothing enforces expiry; callers decide what to do with it.
func (r TokenRecord) Expired(now time.Time) bool {
	if r.ExpiresAt == nil {
		return false
	}
	return now.UnixMilli() >= *r.ExpiresAt
}
