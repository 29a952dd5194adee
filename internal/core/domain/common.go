package domain

import "time"

// AuditFields holds standard audit information for posted records.
type AuditFields struct {
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"` // actor reference
}

// EntrySide indicates whether a ledger line is a Debit or a Credit.
type EntrySide string

const (
	Debit  EntrySide = "DEBIT"
	Credit EntrySide = "CREDIT"
)

// Opposite returns the other side of the entry.
func (s EntrySide) Opposite() EntrySide {
	if s == Debit {
		return Credit
	}
	return Debit
}
