package transaction

import (
	"encoding/json"
	"time"

	"github.com/ARIHANT218/Finance-Tracker/internal/transaction"
)

// Response is the JSON shape of a transaction. Field names match what the
// web client reads.
type Response struct {
	ID          string           `json:"_id"`
	OwnerID     string           `json:"userId"`
	Amount      json.Number      `json:"amount"`
	Description string           `json:"description"`
	Date        time.Time        `json:"date"`
	Type        transaction.Type `json:"type"`
	Category    string           `json:"category"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

func NewResponse(tx *transaction.Transaction) Response {
	return Response{
		ID:          tx.ID,
		OwnerID:     tx.OwnerID,
		Amount:      json.Number(tx.Amount.StringFixed(2)),
		Description: tx.Description,
		Date:        tx.Date,
		Type:        tx.Type,
		Category:    tx.Category,
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}
}

func NewResponseList(txs []*transaction.Transaction) []Response {
	resp := make([]Response, len(txs))
	for i, tx := range txs {
		resp[i] = NewResponse(tx)
	}

	return resp
}
