package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// LedgerChangedMessage announces a committed ledger write. It carries only
// identifiers; consumers load the current account state themselves.
type LedgerChangedMessage struct {
	AccountID string    `json:"account_id"`
	Operation string    `json:"operation"`
	Month     int       `json:"month"`
	Revision  int64     `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(accountID, operation string, month time.Month, revision int64) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		AccountID: accountID,
		Operation: operation,
		Month:     int(month),
		Revision:  revision,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes and validates a message body.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.AccountID == "" {
		return nil, fmt.Errorf("message without account_id")
	}
	if msg.Month < 0 || msg.Month > 12 {
		return nil, fmt.Errorf("message month %d out of range", msg.Month)
	}
	return &msg, nil
}
