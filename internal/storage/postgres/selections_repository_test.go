package postgres

import (
	"context"
	"testing"

	"github.com/growthcompass/server/internal/auth"
	"github.com/growthcompass/server/internal/domain/selections"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionRepositoryUpsertOverwritesSingleRow(t *testing.T) {
	repo := setupPostgres(t)
	ctx := context.Background()

	user := insertUser(t, ctx, repo, "Hana", "hana@example.com", auth.RoleMember)

	require.NoError(t, repo.Selections().Upsert(ctx, selections.Selection{
		UserID: user.ID, Viewpoint: "facilitation", Step: 1, Memo: "first pass",
	}))
	require.NoError(t, repo.Selections().Upsert(ctx, selections.Selection{
		UserID: user.ID, Viewpoint: "facilitation", Step: 3, Memo: "revised",
	}))

	stored, err := repo.Selections().ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 3, stored[0].Step)
	assert.Equal(t, "revised", stored[0].Memo)
	assert.False(t, stored[0].UpdatedAt.IsZero())
}

func TestSelectionRepositoryListOrdersByViewpoint(t *testing.T) {
	repo := setupPostgres(t)
	ctx := context.Background()

	user := insertUser(t, ctx, repo, "Iori", "iori@example.com", auth.RoleMember)

	for _, viewpoint := range []string{"technology", "assessment", "community"} {
		require.NoError(t, repo.Selections().Upsert(ctx, selections.Selection{
			UserID: user.ID, Viewpoint: viewpoint, Step: 2,
		}))
	}

	stored, err := repo.Selections().ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, "assessment", stored[0].Viewpoint)
	assert.Equal(t, "community", stored[1].Viewpoint)
	assert.Equal(t, "technology", stored[2].Viewpoint)
}

func TestSelectionRepositoryDeleteIsIdempotent(t *testing.T) {
	repo := setupPostgres(t)
	ctx := context.Background()

	user := insertUser(t, ctx, repo, "Jun", "jun@example.com", auth.RoleMember)

	require.NoError(t, repo.Selections().Upsert(ctx, selections.Selection{
		UserID: user.ID, Viewpoint: "curriculum", Step: 4,
	}))
	require.NoError(t, repo.Selections().Delete(ctx, user.ID, "curriculum"))
	require.NoError(t, repo.Selections().Delete(ctx, user.ID, "curriculum"))

	stored, err := repo.Selections().ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}
