package models

import "time"

// Transfer is one custody movement between two accounts.
type Transfer struct {
	ID        string    `json:"id"`
	Ref       string    `json:"ref"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    uint64    `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

type BalanceResponse struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}
