package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/thriftdrop-backend/internal/testutil"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/thriftdrop-backend/pkg/errors"
)

func TestBulkUpdateStatus(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	repo := NewRepository(db)

	p1 := testutil.SeedProduct(t, db, "Leather boots", enums.ProductStatusReserved)
	p2 := testutil.SeedProduct(t, db, "Silk shirt", enums.ProductStatusReserved)
	untouched := testutil.SeedProduct(t, db, "Tote bag", enums.ProductStatusAvailable)

	updated, err := repo.BulkUpdateStatus(ctx, []uuid.UUID{p1.ID, p2.ID}, enums.ProductStatusSold)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	assert.Equal(t, enums.ProductStatusSold, testutil.ReloadProduct(t, db, p1.ID).Status)
	assert.Equal(t, enums.ProductStatusSold, testutil.ReloadProduct(t, db, p2.ID).Status)
	assert.Equal(t, enums.ProductStatusAvailable, testutil.ReloadProduct(t, db, untouched.ID).Status)
}

func TestBulkUpdateStatusEmpty(t *testing.T) {
	repo := NewRepository(testutil.NewSQLiteDB(t))

	updated, err := repo.BulkUpdateStatus(context.Background(), nil, enums.ProductStatusSold)
	require.NoError(t, err)
	assert.Zero(t, updated)
}

func TestUpdateStatusMissingProduct(t *testing.T) {
	repo := NewRepository(testutil.NewSQLiteDB(t))

	err := repo.UpdateStatus(context.Background(), uuid.New(), enums.ProductStatusSold)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
