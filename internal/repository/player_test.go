package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/RedDot15/BE-Xiangqi/internal/errors"
	"github.com/RedDot15/BE-Xiangqi/internal/models"
)

func TestPlayerRepoCreateAndFind(t *testing.T) {
	db := TestDB(t)
	repo := NewPlayerRepository(db)
	ctx := context.Background()

	player := &models.Player{
		Username: "zhangsan",
		Password: "hash",
		Rating:   models.DefaultRating,
		Role:     models.RolePlayer,
	}
	require.NoError(t, repo.Create(ctx, player))
	assert.NotZero(t, player.ID)

	found, err := repo.FindByID(ctx, player.ID)
	require.NoError(t, err)
	assert.Equal(t, "zhangsan", found.Username)

	byName, err := repo.FindByUsername(ctx, "zhangsan")
	require.NoError(t, err)
	assert.Equal(t, player.ID, byName.ID)
}

func TestPlayerRepoNotFound(t *testing.T) {
	db := TestDB(t)
	repo := NewPlayerRepository(db)
	ctx := context.Background()

	_, err := repo.FindByID(ctx, 9999)
	assert.True(t, apperrors.Is(err, apperrors.ErrUserNotFound))

	_, err = repo.FindByUsername(ctx, "nobody")
	assert.True(t, apperrors.Is(err, apperrors.ErrUserNotFound))

	err = repo.AdjustRating(ctx, 9999, 10)
	assert.True(t, apperrors.Is(err, apperrors.ErrUserNotFound))
}

func TestPlayerRepoFieldAccessors(t *testing.T) {
	db := TestDB(t)
	repo := NewPlayerRepository(db)
	ctx := context.Background()

	p := CreateTestPlayer(t, db, "lisi", 1300)

	rating, err := repo.RatingOf(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1300, rating)

	role, err := repo.RoleOf(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RolePlayer, role)

	name, err := repo.UsernameOf(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "lisi", name)
}

func TestPlayerRepoAdjustRating(t *testing.T) {
	db := TestDB(t)
	repo := NewPlayerRepository(db)
	ctx := context.Background()

	p := CreateTestPlayer(t, db, "wangwu", 1200)

	require.NoError(t, repo.AdjustRating(ctx, p.ID, 10))
	require.NoError(t, repo.AdjustRating(ctx, p.ID, -30))

	rating, err := repo.RatingOf(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1180, rating)
}

func TestPlayerRepoFindIDByRole(t *testing.T) {
	db := TestDB(t)
	repo := NewPlayerRepository(db)
	ctx := context.Background()

	ai := CreateTestAIPlayer(t, db, models.RoleAIEasy)

	id, err := repo.FindIDByRole(ctx, models.RoleAIEasy)
	require.NoError(t, err)
	assert.Equal(t, ai.ID, id)

	_, err = repo.FindIDByRole(ctx, models.RoleAIHard)
	assert.True(t, apperrors.Is(err, apperrors.ErrUserNotFound))
}
