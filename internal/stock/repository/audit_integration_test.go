package repository_test

import (
	"context"
	"testing"

	"github.com/mattressworks/stockboard/internal/stock/domain"
	"github.com/mattressworks/stockboard/internal/stock/repository"
	"github.com/mattressworks/stockboard/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRepository_Integration(t *testing.T) {
	testutil.SkipIfShort(t)

	suite := testutil.NewIntegrationSuite(t)
	repo := repository.NewAuditRepository(suite.DB.DB)
	ctx := context.Background()

	units := 3.0
	entries := []*domain.AuditEntry{
		{Action: domain.AuditMaterialCreated, EntityType: domain.AuditEntityMaterial, EntityID: "m-foam", ActorID: "user-1"},
		{Action: domain.AuditMaterialAdded, EntityType: domain.AuditEntityMaterial, EntityID: "m-foam", ActorID: "user-1", Quantity: testutil.PtrFloat(40)},
		{Action: domain.AuditProductProduced, EntityType: domain.AuditEntityProduct, EntityID: "p-classic", ActorID: "user-2", Quantity: &units,
			Details: domain.Details{"units": 3}},
	}
	for _, e := range entries {
		require.NoError(t, repo.Create(ctx, e))
		assert.False(t, e.CreatedAt.IsZero())
	}

	all, total, err := repo.List(ctx, domain.AuditFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, all, 3)

	foam, total, err := repo.List(ctx, domain.AuditFilter{EntityID: "m-foam"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, foam, 2)

	produced, _, err := repo.List(ctx, domain.AuditFilter{Action: domain.AuditProductProduced})
	require.NoError(t, err)
	require.Len(t, produced, 1)
	assert.Equal(t, 3.0, *produced[0].Quantity)
	assert.Equal(t, 3.0, produced[0].Details["units"])

	page, total, err := repo.List(ctx, domain.AuditFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 1)
}
