package models

// CardPage is one page of a user's cards, sorted by creation time descending.
type CardPage struct {
	Cards []Card `json:"cards"`
	Page  int    `json:"page"`
	Size  int    `json:"size"`
	Total int64  `json:"total"`
}
