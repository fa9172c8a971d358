package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/thriftdrop-backend/api/responses"
	"github.com/angelmondragon/thriftdrop-backend/api/validators"
	"github.com/angelmondragon/thriftdrop-backend/internal/deliveries"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/thriftdrop-backend/pkg/errors"
	"github.com/angelmondragon/thriftdrop-backend/pkg/logger"
)

type deliveryStatusRequest struct {
	Status      string     `json:"status" validate:"required"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	Notes       *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// AdminUpdateDeliveryStatus schedules, dispatches or closes a delivery.
func AdminUpdateDeliveryStatus(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deliveries service unavailable"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		deliveryID, err := validators.ParseUUIDParam(r, "deliveryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body deliveryStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseDeliveryStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery status"))
			return
		}
		if body.Notes != nil {
			notes := validators.SanitizeString(*body.Notes, 2000)
			body.Notes = &notes
		}

		delivery, err := svc.UpdateStatus(r.Context(), deliveries.UpdateStatusInput{
			DeliveryID:  deliveryID,
			Status:      status,
			ScheduledAt: body.ScheduledAt,
			Notes:       body.Notes,
			ActorUserID: actor.ID,
			ActorRole:   actor.Role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}
