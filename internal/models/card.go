package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CardStatus is the lifecycle state of a card.
type CardStatus string

const (
	StatusActive  CardStatus = "ACTIVE"
	StatusBlocked CardStatus = "BLOCKED"
	StatusExpired CardStatus = "EXPIRED"
)

// Card represents a bank card
type Card struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	Number       string          `json:"-"` // raw number, never serialized
	NumberMasked string          `json:"card_number_masked"`
	Holder       string          `json:"card_holder"`
	ExpiryDate   time.Time       `json:"expiry_date"`
	Status       CardStatus      `json:"status"`
	Balance      decimal.Decimal `json:"balance"`
	CreatedAt    time.Time       `json:"created_at"`
}

// RefreshStatus recomputes the lifecycle status against now. A card whose
// expiry date is not after now becomes EXPIRED regardless of the stored
// status, including BLOCKED. Reports whether the status changed.
func (c *Card) RefreshStatus(now time.Time) bool {
	if c.Status != StatusExpired && !c.ExpiryDate.After(now) {
		c.Status = StatusExpired
		return true
	}
	return false
}

// Usable reports whether financial operations are allowed on the card.
// BLOCKED and EXPIRED cards reject top-ups and transfers.
func (c *Card) Usable() bool {
	return c.Status == StatusActive
}
