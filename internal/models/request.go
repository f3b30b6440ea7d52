package models

import "github.com/shopspring/decimal"

// CardRequest is a pending card creation request buffered until an admin
// commits the batch. It lives only in memory.
type CardRequest struct {
	UserID         int64           `json:"user_id"`
	Holder         string          `json:"card_holder"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}
