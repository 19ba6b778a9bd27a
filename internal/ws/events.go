package ws

import (
	"encoding/json"

	"github.com/google/uuid"
)

// StockUpdateEvent is pushed to connected clients whenever a committed
// operation changed a product's stock (sale line, adjustment, cancellation).
type StockUpdateEvent struct {
	Type        string    `json:"type"`   // always "stock_update"
	Action      string    `json:"action"` // sale | adjustment | cancellation
	ProductID   uuid.UUID `json:"product_id"`
	ProductCode string    `json:"product_code"`
	ProductName string    `json:"product_name"`
	OldStock    int       `json:"old_stock"`
	NewStock    int       `json:"new_stock"`
	Reference   string    `json:"reference,omitempty"`
	ActorName   string    `json:"actor_name,omitempty"`
	Message     string    `json:"message,omitempty"`
}

// BroadcastStockUpdate serializes the event and hands it to the hub without
// blocking the caller.
func (h *Hub) BroadcastStockUpdate(event StockUpdateEvent) {
	event.Type = "stock_update"
	msg, err := json.Marshal(event)
	if err != nil {
		return
	}
	go func() { h.Broadcast <- msg }()
}
