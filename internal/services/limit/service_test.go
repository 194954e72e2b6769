package limit

import (
	"context"
	"testing"
	"time"

	"cardman/internal/models"
	"cardman/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitFixture(t *testing.T) (*repositories.InMemoryStore, Service) {
	t.Helper()
	store := repositories.NewInMemoryStore()
	return store, NewService(store.Cards(), nil)
}

func seedCard(t *testing.T, store *repositories.InMemoryStore) *models.Card {
	t.Helper()
	card := &models.Card{
		MaskedNumber:   "**** **** **** 4242",
		CardHolderName: "alice@example.com",
		ExpirationDate: time.Now().AddDate(5, 0, 0),
		Status:         models.CardStatusActive,
		Balance:        decimal.Zero,
		UserID:         1,
	}
	require.NoError(t, store.Cards().Create(card))
	return card
}

func TestSetLimit(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a limit on a card without one", func(t *testing.T) {
		store, svc := newLimitFixture(t)
		card := seedCard(t, store)

		got, err := svc.SetLimit(ctx, card.ID, decimal.RequireFromString("100"), decimal.RequireFromString("1000"))
		require.NoError(t, err)
		require.NotNil(t, got.Limit)
		assert.True(t, got.Limit.DailyLimit.Equal(decimal.RequireFromString("100")))
		assert.True(t, got.Limit.MonthlyLimit.Equal(decimal.RequireFromString("1000")))
		assert.Equal(t, card.ID, got.Limit.CardID)
	})

	t.Run("replaces the existing limit in place", func(t *testing.T) {
		store, svc := newLimitFixture(t)
		card := seedCard(t, store)

		first, err := svc.SetLimit(ctx, card.ID, decimal.RequireFromString("100"), decimal.RequireFromString("1000"))
		require.NoError(t, err)
		second, err := svc.SetLimit(ctx, card.ID, decimal.RequireFromString("50"), decimal.RequireFromString("500"))
		require.NoError(t, err)

		assert.Equal(t, first.Limit.ID, second.Limit.ID, "same row, new values")
		assert.True(t, second.Limit.DailyLimit.Equal(decimal.RequireFromString("50")))
	})

	t.Run("zero limits are allowed and block all spending", func(t *testing.T) {
		store, svc := newLimitFixture(t)
		card := seedCard(t, store)

		got, err := svc.SetLimit(ctx, card.ID, decimal.Zero, decimal.Zero)
		require.NoError(t, err)
		assert.True(t, got.Limit.DailyLimit.IsZero())
	})

	t.Run("negative values are rejected", func(t *testing.T) {
		store, svc := newLimitFixture(t)
		card := seedCard(t, store)

		_, err := svc.SetLimit(ctx, card.ID, decimal.RequireFromString("-1"), decimal.RequireFromString("1000"))
		assert.ErrorIs(t, err, ErrNegativeLimit)
		_, err = svc.SetLimit(ctx, card.ID, decimal.RequireFromString("100"), decimal.RequireFromString("-1"))
		assert.ErrorIs(t, err, ErrNegativeLimit)
	})

	t.Run("missing card fails not found", func(t *testing.T) {
		_, svc := newLimitFixture(t)

		_, err := svc.SetLimit(ctx, 42, decimal.RequireFromString("100"), decimal.RequireFromString("1000"))
		assert.ErrorIs(t, err, repositories.ErrCardNotFound)
	})
}

func TestDeleteLimit(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the limit", func(t *testing.T) {
		store, svc := newLimitFixture(t)
		card := seedCard(t, store)
		got, err := svc.SetLimit(ctx, card.ID, decimal.RequireFromString("100"), decimal.RequireFromString("1000"))
		require.NoError(t, err)

		require.NoError(t, svc.DeleteLimit(ctx, card.ID, got.Limit.ID))

		_, err = store.Cards().GetLimitByCardID(card.ID)
		assert.ErrorIs(t, err, repositories.ErrLimitNotFound)
	})

	t.Run("card without a limit fails not found", func(t *testing.T) {
		store, svc := newLimitFixture(t)
		card := seedCard(t, store)

		err := svc.DeleteLimit(ctx, card.ID, 1)
		assert.ErrorIs(t, err, repositories.ErrLimitNotFound)
	})

	t.Run("limit id belonging to another card fails not found", func(t *testing.T) {
		store, svc := newLimitFixture(t)
		card := seedCard(t, store)
		other := seedCard(t, store)

		got, err := svc.SetLimit(ctx, other.ID, decimal.RequireFromString("100"), decimal.RequireFromString("1000"))
		require.NoError(t, err)
		_, err = svc.SetLimit(ctx, card.ID, decimal.RequireFromString("100"), decimal.RequireFromString("1000"))
		require.NoError(t, err)

		err = svc.DeleteLimit(ctx, card.ID, got.Limit.ID)
		assert.ErrorIs(t, err, repositories.ErrLimitNotFound)

		// The other card's limit is untouched.
		_, err = store.Cards().GetLimitByCardID(other.ID)
		assert.NoError(t, err)
	})
}
