package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
)

// WebhookEvent is the durable idempotency ledger entry for one gateway event.
type WebhookEvent struct {
	ID          uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EventID     string                   `gorm:"column:event_id;not null;uniqueIndex:webhook_events_event_id_key" json:"event_id"`
	EventType   string                   `gorm:"column:event_type;not null" json:"event_type"`
	Payload     json.RawMessage          `gorm:"column:payload;type:jsonb" json:"payload"`
	Status      enums.WebhookEventStatus `gorm:"column:status;type:webhook_event_status;not null" json:"status"`
	Error       *string                  `gorm:"column:error" json:"error,omitempty"`
	Result      json.RawMessage          `gorm:"column:result;type:jsonb" json:"result,omitempty"`
	CreatedAt   time.Time                `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time                `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	ProcessedAt *time.Time               `gorm:"column:processed_at" json:"processed_at,omitempty"`
}

func (WebhookEvent) TableName() string { return "webhook_events" }
