package amqp

import (
	"encoding/json"
	"time"
)

// Reasons a receipt blob is queued for deletion.
const (
	ReasonUnpay           = "unpay"
	ReasonPersonDeleted   = "person_deleted"
	ReasonPurchaseDeleted = "purchase_deleted"
	ReasonSettleRollback  = "settle_rollback"
	ReasonPayRollback     = "pay_rollback"
)

// ReceiptCleanupMessage asks the worker to delete a receipt blob that no
// installment references anymore.
type ReceiptCleanupMessage struct {
	Ref       string    `json:"ref"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReceiptCleanupMessage(ref, reason string) *ReceiptCleanupMessage {
	return &ReceiptCleanupMessage{
		Ref:       ref,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

func (m *ReceiptCleanupMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReceiptCleanupMessageFromJSON(data []byte) (*ReceiptCleanupMessage, error) {
	var msg ReceiptCleanupMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
