package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/fanvault/backend/internal/domain"
	"github.com/fanvault/backend/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierService_Lifecycle(t *testing.T) {
	repo := newFakeTierRepo()
	svc := NewTierService(repo, logger.NewTestLogger(t))
	ctx := context.Background()

	gold, err := svc.Create(ctx, "artist-1", &domain.CreateTierRequest{Name: "Gold", MinimumPrice: 1000})
	require.NoError(t, err)
	assert.True(t, gold.IsActive)
	assert.Equal(t, "artist-1", gold.ArtistID)

	_, err = svc.Create(ctx, "artist-1", &domain.CreateTierRequest{Name: "Bronze", MinimumPrice: 100})
	require.NoError(t, err)

	name := "Platinum"
	price := int64(2500)
	updated, err := svc.Update(ctx, "artist-1", gold.ID, &domain.UpdateTierRequest{Name: &name, MinimumPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, "Platinum", updated.Name)
	assert.Equal(t, int64(2500), updated.MinimumPrice)

	retired, err := svc.SetActive(ctx, "artist-1", gold.ID, false)
	require.NoError(t, err)
	assert.False(t, retired.IsActive)

	public, err := svc.ListByArtist(ctx, "fan-1", "artist-1")
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "Bronze", public[0].Name)

	own, err := svc.ListByArtist(ctx, "artist-1", "artist-1")
	require.NoError(t, err)
	assert.Len(t, own, 2)
}

func TestTierService_Ownership(t *testing.T) {
	repo := newFakeTierRepo(domain.Tier{ID: "tier-1", ArtistID: "artist-1", Name: "Gold", IsActive: true})
	svc := NewTierService(repo, logger.NewTestLogger(t))
	ctx := context.Background()

	name := "Hijacked"
	_, err := svc.Update(ctx, "artist-2", "tier-1", &domain.UpdateTierRequest{Name: &name})
	requireAppError(t, err, http.StatusNotFound)

	_, err = svc.SetActive(ctx, "artist-2", "tier-1", false)
	requireAppError(t, err, http.StatusNotFound)

	tier, err := svc.Get(ctx, "tier-1")
	require.NoError(t, err)
	assert.Equal(t, "Gold", tier.Name)
	assert.True(t, tier.IsActive)
}

func TestTierService_Validation(t *testing.T) {
	svc := NewTierService(newFakeTierRepo(), logger.NewTestLogger(t))

	_, err := svc.Create(context.Background(), "artist-1", &domain.CreateTierRequest{Name: "", MinimumPrice: -1})
	requireAppError(t, err, http.StatusUnprocessableEntity)
}
