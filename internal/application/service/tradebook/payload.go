package tradebook

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// listKeys are the envelope fields that may carry the trade list, in priority order.
var listKeys = []string{"trades", "data"}

// ExtractTrades finds the trade list in a trade book payload: the first of
// payload.trades, payload.data or the payload itself that is an array.
// Valid JSON of any other shape yields an empty list; invalid JSON is an error.
func ExtractTrades(body []byte) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return nil, fmt.Errorf("invalid JSON payload")
	}
	switch body[0] {
	case '[':
		return decodeList(body)
	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, err
		}
		for _, key := range listKeys {
			if raw, ok := envelope[key]; ok && isArray(raw) {
				return decodeList(raw)
			}
		}
	}
	return []json.RawMessage{}, nil
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

func decodeList(raw []byte) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, nil
}
