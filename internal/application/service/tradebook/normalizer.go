package tradebook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	domain "tradebook/internal/domain/entity/trades"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aliases are tried in order; the first truthy value wins.
var (
	idAliases        = []string{"id", "tradeId"}
	timestampAliases = []string{"timestamp", "time", "createdAt"}
)

type textRule struct {
	field    string
	aliases  []string
	fallback string
	set      func(t *domain.Trade, v string)
}

type numberRule struct {
	field   string
	aliases []string
	set     func(t *domain.Trade, v decimal.Decimal)
}

var textRules = []textRule{
	{"symbol", []string{"symbol", "instrument", "scrip", "scriptName"}, "", func(t *domain.Trade, v string) { t.Symbol = v }},
	{"type", []string{"type", "product"}, "Market", func(t *domain.Trade, v string) { t.Type = v }},
	{"side", []string{"side", "buySell", "transactionType"}, "Buy", func(t *domain.Trade, v string) { t.Side = v }},
	{"status", []string{"status"}, "Filled", func(t *domain.Trade, v string) { t.Status = v }},
}

var numberRules = []numberRule{
	{"quantity", []string{"quantity", "qty"}, func(t *domain.Trade, v decimal.Decimal) { t.Quantity = wholeUnits(v) }},
	{"tradedQty", []string{"tradedQty", "filledQty", "quantity", "qty"}, func(t *domain.Trade, v decimal.Decimal) { t.TradedQty = wholeUnits(v) }},
	{"price", []string{"price", "rate", "fillPrice"}, func(t *domain.Trade, v decimal.Decimal) { t.Price = amount(v) }},
}

// Normalizer maps broker trade records of unknown shape onto the canonical Trade.
// It performs no I/O and never fails.
type Normalizer struct {
	now   func() time.Time
	newID func() string
}

func NewNormalizer(now func() time.Time, newID func() string) *Normalizer {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &Normalizer{now: now, newID: newID}
}

// NormalizeAll normalizes every element, tagging each with accountID.
func (n *Normalizer) NormalizeAll(accountID string, items []json.RawMessage) []domain.Trade {
	out := make([]domain.Trade, 0, len(items))
	for _, item := range items {
		out = append(out, n.Normalize(accountID, item))
	}
	return out
}

// Normalize converts one raw broker record. Anything that is not a JSON object is
// treated as an empty record and comes back with defaults.
func (n *Normalizer) Normalize(accountID string, raw json.RawMessage) domain.Trade {
	rec := decodeRecord(raw)
	t := domain.Trade{AccountID: accountID}
	if len(raw) > 0 {
		t.Raw = append(json.RawMessage(nil), raw...)
	}

	if v, ok := pick(rec, timestampAliases); ok {
		t.Timestamp = text(v)
	} else {
		t.Timestamp = domain.FormatTimestamp(n.now())
	}

	if v, ok := pick(rec, idAliases); ok {
		t.ID = text(v)
		t.ProviderID = t.ID
	} else {
		t.ID = fmt.Sprintf("%s-%s-%s", accountID, t.Timestamp, n.newID())
	}

	for _, rule := range textRules {
		value := rule.fallback
		if v, ok := pick(rec, rule.aliases); ok {
			value = text(v)
		}
		rule.set(&t, value)
	}
	for _, rule := range numberRules {
		value := decimal.Zero
		if v, ok := pick(rec, rule.aliases); ok {
			value = number(v)
		}
		rule.set(&t, value)
	}
	return t
}

func decodeRecord(raw json.RawMessage) map[string]any {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var rec map[string]any
	if err := dec.Decode(&rec); err != nil || rec == nil {
		return map[string]any{}
	}
	return rec
}

// pick returns the first alias holding a truthy scalar. Missing keys, null, "", false and 0
// fall through to the next alias, as do nested objects and arrays.
func pick(rec map[string]any, aliases []string) (any, bool) {
	for _, alias := range aliases {
		v, ok := rec[alias]
		if ok && truthy(v) {
			return v, true
		}
	}
	return nil, false
}

func truthy(v any) bool {
	switch x := v.(type) {
	case string:
		return x != ""
	case bool:
		return x
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		return err != nil || !d.IsZero()
	default:
		return false
	}
}

func text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return fmt.Sprint(x)
	default:
		return ""
	}
}

// number parses a scalar the lenient way; anything unparseable is zero.
func number(v any) decimal.Decimal {
	switch x := v.(type) {
	case bool:
		if x {
			return decimal.NewFromInt(1)
		}
		return decimal.Zero
	case string, json.Number:
		d, err := decimal.NewFromString(strings.TrimSpace(text(x)))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

var maxWholeUnits = decimal.NewFromInt(math.MaxInt64)

// wholeUnits truncates toward zero and clamps to [0, MaxInt64].
func wholeUnits(v decimal.Decimal) int64 {
	if v.IsNegative() {
		return 0
	}
	if v.GreaterThan(maxWholeUnits) {
		return math.MaxInt64
	}
	return v.IntPart()
}

func amount(v decimal.Decimal) float64 {
	if v.IsNegative() {
		return 0
	}
	f, _ := v.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return math.MaxFloat64
	}
	return f
}
