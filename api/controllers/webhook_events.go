package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/thriftdrop-backend/api/responses"
	"github.com/angelmondragon/thriftdrop-backend/api/validators"
	"github.com/angelmondragon/thriftdrop-backend/internal/webhookevents"
	"github.com/angelmondragon/thriftdrop-backend/pkg/db/models"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/thriftdrop-backend/pkg/errors"
	"github.com/angelmondragon/thriftdrop-backend/pkg/logger"
)

const maxWebhookEventLimit = 200

type webhookEventLister interface {
	List(ctx context.Context, params webhookevents.ListParams) ([]models.WebhookEvent, error)
}

// ListWebhookEvents lets operators inspect the ledger, typically filtered to
// status=failed when chasing a gateway retry.
func ListWebhookEvents(repo webhookEventLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook events repository unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxWebhookEventLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := webhookevents.ListParams{
			Limit:     limit,
			EventType: strings.TrimSpace(r.URL.Query().Get("event_type")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseWebhookEventStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			params.Status = &status
		}

		events, err := repo.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if events == nil {
			events = []models.WebhookEvent{}
		}
		responses.WriteSuccess(w, map[string]any{"items": events})
	}
}
