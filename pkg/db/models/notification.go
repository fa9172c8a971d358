package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
)

// Notification stores back-office notifications raised by order lifecycle events.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Type      enums.NotificationType `gorm:"column:type;type:notification_type;not null" json:"type"`
	Title     string                 `gorm:"column:title;not null" json:"title"`
	Message   string                 `gorm:"column:message;not null" json:"message"`
	Data      json.RawMessage        `gorm:"column:data;type:jsonb" json:"data,omitempty"`
	IsRead    bool                   `gorm:"column:is_read;not null;default:false" json:"is_read"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Notification) TableName() string { return "notifications" }
