package webhookevents

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/angelmondragon/thriftdrop-backend/pkg/db"
	"github.com/angelmondragon/thriftdrop-backend/pkg/db/models"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/thriftdrop-backend/pkg/errors"
)

// UniqueConstraint names the index guarding one row per gateway event id.
const UniqueConstraint = "webhook_events_event_id_key"

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ErrDuplicateEvent is returned by Create when the event id was already recorded.
var ErrDuplicateEvent = errors.New("webhook event already recorded")

// Repository persists the webhook idempotency ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByEventID(ctx context.Context, eventID string) (*models.WebhookEvent, error)
	Create(ctx context.Context, event *models.WebhookEvent) (*models.WebhookEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.WebhookEventStatus, errMsg *string, result json.RawMessage) (*models.WebhookEvent, error)
	List(ctx context.Context, params ListParams) ([]models.WebhookEvent, error)
	CountStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error)
}

// ListParams filters the operational event listing.
type ListParams struct {
	Status    *enums.WebhookEventStatus
	EventType string
	Limit     int
}

type repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository builds a webhook event repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db, now: time.Now}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx, now: r.now}
}

func (r *repository) FindByEventID(ctx context.Context, eventID string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Take(&event).Error
	if err != nil {
		if pkgdb.IsNotFound(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find webhook event")
	}
	return &event, nil
}

func (r *repository) Create(ctx context.Context, event *models.WebhookEvent) (*models.WebhookEvent, error) {
	if event == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook event is required")
	}
	if event.EventID == "" || event.EventType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event_id and event_type are required")
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Status == "" {
		event.Status = enums.WebhookEventStatusPending
	}

	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		if pkgdb.IsUniqueViolation(err, UniqueConstraint) {
			return nil, ErrDuplicateEvent
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert webhook event")
	}
	return event, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.WebhookEventStatus, errMsg *string, result json.RawMessage) (*models.WebhookEvent, error) {
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid webhook event status %q", status)
	}

	var event models.WebhookEvent
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&event).Error; err != nil {
		if pkgdb.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "webhook event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load webhook event")
	}

	if !event.Status.CanAdvanceTo(status) {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "webhook event cannot move from %s to %s", event.Status, status).
			WithDetails(map[string]any{"from": event.Status, "to": status})
	}

	updates := map[string]any{
		"status":     status,
		"error":      errMsg,
		"updated_at": r.now().UTC(),
	}
	if len(result) > 0 {
		updates["result"] = json.RawMessage(result)
	}
	if status.IsTerminal() {
		processedAt := r.now().UTC()
		updates["processed_at"] = processedAt
		event.ProcessedAt = &processedAt
	}

	res := r.db.WithContext(ctx).
		Model(&models.WebhookEvent{}).
		Where("id = ? AND status = ?", id, event.Status).
		Updates(updates)
	if res.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update webhook event status")
	}
	if res.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "webhook event status changed concurrently")
	}

	event.Status = status
	event.Error = errMsg
	if len(result) > 0 {
		event.Result = json.RawMessage(result)
	}
	return &event, nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]models.WebhookEvent, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	query := r.db.WithContext(ctx).Model(&models.WebhookEvent{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.EventType != "" {
		query = query.Where("event_type = ?", params.EventType)
	}

	var events []models.WebhookEvent
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list webhook events")
	}
	return events, nil
}

func (r *repository) CountStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WebhookEvent{}).
		Where("status = ? AND created_at < ?", enums.WebhookEventStatusProcessing, olderThan).
		Count(&count).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count stale webhook events")
	}
	return count, nil
}
