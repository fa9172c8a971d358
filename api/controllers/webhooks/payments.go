package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/angelmondragon/thriftdrop-backend/api/responses"
	"github.com/angelmondragon/thriftdrop-backend/api/validators"
	"github.com/angelmondragon/thriftdrop-backend/internal/webhooks"
	pkgerrors "github.com/angelmondragon/thriftdrop-backend/pkg/errors"
	"github.com/angelmondragon/thriftdrop-backend/pkg/logger"
	"github.com/angelmondragon/thriftdrop-backend/pkg/types"
)

const (
	// SignatureHeader carries the hex HMAC-SHA256 of the raw body.
	SignatureHeader = "X-Webhook-Signature"

	maxPayloadBytes = 1 << 20

	ackStatusError      = "error"
	ackMessageDuplicate = "Event already processed"
	ackMessageFailed    = "Event processing failed"
)

type PaymentDispatcher interface {
	Dispatch(ctx context.Context, envelope webhooks.Envelope) (webhooks.Result, error)
}

type paymentWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

type paymentWebhookRequest struct {
	EventID   string          `json:"event_id" validate:"required"`
	EventType string          `json:"event_type" validate:"required"`
	Data      json.RawMessage `json:"data"`
	Payload   json.RawMessage `json:"payload"`
}

func (r paymentWebhookRequest) envelope() webhooks.Envelope {
	data := r.Data
	if len(data) == 0 {
		data = r.Payload
	}
	return webhooks.Envelope{
		EventID:   strings.TrimSpace(r.EventID),
		EventType: strings.TrimSpace(r.EventType),
		Data:      data,
	}
}

// PaymentWebhook receives gateway payment events. Once the body is accepted
// the gateway always gets a 200; failures live in webhook_events and the logs.
// guard may be nil, and an empty secret disables signature checks.
func PaymentWebhook(svc PaymentDispatcher, guard paymentWebhookGuard, secret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook dispatcher unavailable"))
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		if secret != "" {
			if err := verifySignature(body, r.Header.Get(SignatureHeader), secret); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}

		var req paymentWebhookRequest
		if err := validators.DecodeWebhookBody(body, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		envelope := req.envelope()
		if envelope.EventID == "" || envelope.EventType == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "event_id and event_type are required"))
			return
		}

		if logg != nil {
			ctx = logg.WithEventID(ctx, envelope.EventID)
		}

		if guard != nil {
			seen, err := guard.CheckAndMark(ctx, envelope.EventID)
			switch {
			case err != nil:
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "webhook guard unavailable, falling through to database")
				}
			case seen:
				responses.WriteWebhookAck(w, types.WebhookAck{
					Status:  string(webhooks.ResultDuplicate),
					Message: ackMessageDuplicate,
				})
				return
			}
		}

		result, err := svc.Dispatch(ctx, envelope)
		if err != nil {
			if guard != nil {
				if releaseErr := guard.Release(context.WithoutCancel(ctx), envelope.EventID); releaseErr != nil && logg != nil {
					logg.Warn(logg.WithField(ctx, "error", releaseErr.Error()), "release webhook guard")
				}
			}
			responses.LogError(ctx, logg, "webhook.dispatch_failed", err)
			responses.WriteWebhookAck(w, types.WebhookAck{Status: ackStatusError, Message: ackMessageFailed})
			return
		}

		responses.WriteWebhookAck(w, types.WebhookAck{
			Status:  string(result.Status),
			Message: result.Message,
			Result:  result.Result,
		})
	}
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func verifySignature(body []byte, header, secret string) error {
	provided := strings.TrimSpace(header)
	provided = strings.TrimPrefix(provided, "sha256=")
	if provided == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature missing")
	}
	decoded, err := hex.DecodeString(provided)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature malformed")
	}
	expected, _ := hex.DecodeString(Sign(body, secret))
	if !hmac.Equal(decoded, expected) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature mismatch")
	}
	return nil
}
