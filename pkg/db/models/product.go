package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
)

// Product is a single secondhand piece; every listing has a quantity of one.
type Product struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DropID      *uuid.UUID          `gorm:"column:drop_id;type:uuid" json:"drop_id,omitempty"`
	Title       string              `gorm:"column:title;not null" json:"title"`
	Description *string             `gorm:"column:description" json:"description,omitempty"`
	Brand       *string             `gorm:"column:brand" json:"brand,omitempty"`
	Size        *string             `gorm:"column:size" json:"size,omitempty"`
	Price       decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	Status      enums.ProductStatus `gorm:"column:status;type:product_status;not null" json:"status"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Product) TableName() string { return "products" }
