package trades

import (
	"errors"
	"fmt"
)

// MaxErrorBody is the number of characters of an upstream error body kept for callers.
const MaxErrorBody = 1000

var (
	ErrUnauthenticated = errors.New("no oauth token found for account")
	ErrEmptyAccount    = errors.New("account id is empty")
)

// UpstreamError is returned when the broker answers with a non-success status.
type UpstreamError struct {
	Status int
	Body   string
}

// NewUpstreamError truncates body to MaxErrorBody characters.
func NewUpstreamError(status int, body string) *UpstreamError {
	runes := []rune(body)
	if len(runes) > MaxErrorBody {
		body = string(runes[:MaxErrorBody])
	}
	return &UpstreamError{Status: status, Body: body}
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("Trade Book API returned %d", e.Status)
}
