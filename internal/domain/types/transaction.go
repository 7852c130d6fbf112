package types

import "time"

// Counterparty is one side of a transaction, enriched with the holder name
// when read back from the ledger.
type Counterparty struct {
	AccountID AccountID `json:"account_id"`
	Name      string    `json:"name,omitempty"`
}

// Transaction is an immutable transfer record. ID is assigned by the ledger
// and increases monotonically in insertion order.
type Transaction struct {
	ID     int64        `json:"id,omitempty"`
	Date   time.Time    `json:"date"`
	From   Counterparty `json:"from"`
	To     Counterparty `json:"to"`
	Amount int64        `json:"amount"`
}

// Transfer is a request to move Amount from one account to another.
type Transfer struct {
	From   AccountID
	To     AccountID
	Amount int64
	Date   time.Time
}
