package outbox

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/thriftdrop-backend/pkg/db/models"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
)

const defaultDLQListLimit = 50

// DLQRepository stores outbox rows the publisher gave up on.
type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

// DLQListParams narrows a dead-letter listing. Zero values mean no filter.
type DLQListParams struct {
	Limit     int
	Reason    enums.OutboxDLQErrorReason
	EventType enums.OutboxEventType
}

// InsertTx records entry on the publisher's transaction so the dead-letter
// row and the terminal mark on the outbox row commit together.
func (r *DLQRepository) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	if tx == nil {
		return errTxRequired
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.ErrorMessage != nil {
		msg := truncateError(*entry.ErrorMessage)
		entry.ErrorMessage = &msg
	}
	return tx.Create(&entry).Error
}

func (r *DLQRepository) FindByEventID(ctx context.Context, eventID uuid.UUID) (*models.OutboxDLQ, error) {
	var entry models.OutboxDLQ
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns dead-lettered rows, newest failure first.
func (r *DLQRepository) List(ctx context.Context, params DLQListParams) ([]models.OutboxDLQ, error) {
	if params.Reason != "" && !params.Reason.IsValid() {
		return nil, errors.New("unknown dead-letter reason " + string(params.Reason))
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultDLQListLimit
	}
	query := r.db.WithContext(ctx).Model(&models.OutboxDLQ{})
	if params.Reason != "" {
		query = query.Where("error_reason = ?", params.Reason)
	}
	if params.EventType != "" {
		query = query.Where("event_type = ?", params.EventType)
	}
	var rows []models.OutboxDLQ
	err := query.Order("failed_at DESC").Order("id").Limit(limit).Find(&rows).Error
	return rows, err
}
