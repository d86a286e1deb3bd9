package storage

import "encoding/json"

// Document is a named JSON object keyed by record id.
type Document map[string]json.RawMessage

// Status describes how a document read or write went.
type Status int

const (
	StatusOK Status = iota
	// StatusMissing means the document does not exist yet; the empty document is returned.
	StatusMissing
	// StatusDegraded means the document exists but could not be read or decoded.
	StatusDegraded
	// StatusWriteFailed means the mutation was applied in memory but not persisted.
	StatusWriteFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMissing:
		return "missing"
	case StatusDegraded:
		return "degraded"
	case StatusWriteFailed:
		return "write_failed"
	default:
		return "unknown"
	}
}

// Result carries a document together with the outcome of the operation that produced it.
// Doc is never nil.
type Result struct {
	Doc    Document
	Status Status
	Err    error
}

// Degraded reports whether the read side fell back to an empty document because of an error.
func (r Result) Degraded() bool {
	return r.Status == StatusDegraded
}

// Failed reports whether a write was lost.
func (r Result) Failed() bool {
	return r.Status == StatusWriteFailed
}
