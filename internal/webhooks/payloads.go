package webhooks

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/thriftdrop-backend/pkg/errors"
)

// Envelope is the inbound gateway event as accepted by the HTTP layer.
type Envelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}

// PaymentConfirmedData is the payload of a successful payment.
type PaymentConfirmedData struct {
	PaymentID      string           `json:"payment_id"`
	OrderReference string           `json:"order_reference"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
}

// PaymentFailedData is the payload of a declined or failed payment.
type PaymentFailedData struct {
	PaymentID      string `json:"payment_id"`
	OrderReference string `json:"order_reference"`
	Reason         string `json:"reason,omitempty"`
}

// PaymentRefundedData is the payload of a gateway refund.
type PaymentRefundedData struct {
	PaymentID      string `json:"payment_id"`
	OrderReference string `json:"order_reference"`
}

// decodeData unmarshals the event data into a typed payload. An empty or
// null body decodes to the zero value and resolution decides the outcome.
func decodeData[T any](raw json.RawMessage) (T, error) {
	var out T
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook data")
	}
	return out, nil
}
