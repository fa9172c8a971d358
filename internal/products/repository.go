package products

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/angelmondragon/thriftdrop-backend/pkg/db"
	"github.com/angelmondragon/thriftdrop-backend/pkg/db/models"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/thriftdrop-backend/pkg/errors"
)

// Repository tracks per-piece inventory status.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, status enums.ProductStatus) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ProductStatus) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := pkgdb.ForUpdate(r.db.WithContext(ctx)).
		Where("id = ?", id).
		Take(&product).Error
	if err != nil {
		if pkgdb.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return &product, nil
}

// BulkUpdateStatus sets status on every listed product in one statement and
// returns the number of rows touched. An empty id list is a no-op.
func (r *repository) BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, status enums.ProductStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "bulk update product status")
	}
	return res.RowsAffected, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ProductStatus) error {
	updated, err := r.BulkUpdateStatus(ctx, []uuid.UUID{id}, status)
	if err != nil {
		return err
	}
	if updated == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}
