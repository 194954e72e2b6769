package transaction

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cardman/internal/models"
	"cardman/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "alice@example.com"

type fixture struct {
	store *repositories.InMemoryStore
	svc   Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repositories.NewInMemoryStore()
	return &fixture{
		store: store,
		svc:   NewService(store.Engine(), store.Cards(), nil),
	}
}

func (f *fixture) newCard(t *testing.T, holder string, balance string) *models.Card {
	t.Helper()
	user, err := f.store.GetByEmail(holder)
	if errors.Is(err, repositories.ErrUserNotFound) {
		user = &models.User{Email: holder, Roles: []string{models.RoleUser}}
		require.NoError(t, f.store.Create(user))
	}

	card := &models.Card{
		MaskedNumber:   "**** **** **** 4242",
		CardHolderName: holder,
		ExpirationDate: time.Now().AddDate(5, 0, 0),
		Status:         models.CardStatusActive,
		Balance:        decimal.RequireFromString(balance),
		UserID:         user.ID,
	}
	require.NoError(t, f.store.Cards().Create(card))
	return card
}

func (f *fixture) setLimit(t *testing.T, cardID uint, daily, monthly string) {
	t.Helper()
	require.NoError(t, f.store.Cards().SaveLimit(&models.CardLimit{
		CardID:       cardID,
		DailyLimit:   decimal.RequireFromString(daily),
		MonthlyLimit: decimal.RequireFromString(monthly),
	}))
}

func (f *fixture) balance(t *testing.T, cardID uint) decimal.Decimal {
	t.Helper()
	card, err := f.store.Cards().GetByID(cardID)
	require.NoError(t, err)
	return card.Balance
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()

	t.Run("debits balance and appends one record", func(t *testing.T) {
		f := newFixture(t)
		card := f.newCard(t, owner, "100")
		f.setLimit(t, card.ID, "1000", "5000")

		txn, err := f.svc.Withdraw(ctx, card.ID, decimal.RequireFromString("30"), owner)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionTypeWithdrawal, txn.Type)
		assert.Equal(t, card.ID, txn.CardID)
		assert.NotEmpty(t, txn.Reference)
		assert.True(t, txn.Amount.Equal(decimal.RequireFromString("30")))

		assert.True(t, f.balance(t, card.ID).Equal(decimal.RequireFromString("70")))

		history, err := f.svc.FindByCard(ctx, card.ID, owner)
		require.NoError(t, err)
		require.Len(t, history, 1)
	})

	t.Run("two identical withdrawals produce distinct records", func(t *testing.T) {
		f := newFixture(t)
		card := f.newCard(t, owner, "100")
		f.setLimit(t, card.ID, "1000", "5000")

		first, err := f.svc.Withdraw(ctx, card.ID, decimal.RequireFromString("10"), owner)
		require.NoError(t, err)
		second, err := f.svc.Withdraw(ctx, card.ID, decimal.RequireFromString("10"), owner)
		require.NoError(t, err)

		assert.NotEqual(t, first.Reference, second.Reference)
		assert.True(t, second.Timestamp.After(first.Timestamp))
		assert.True(t, f.balance(t, card.ID).Equal(decimal.RequireFromString("80")))
	})

	t.Run("rejects non positive amounts", func(t *testing.T) {
		f := newFixture(t)
		card := f.newCard(t, owner, "100")
		f.setLimit(t, card.ID, "1000", "5000")

		_, err := f.svc.Withdraw(ctx, card.ID, decimal.Zero, owner)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = f.svc.Withdraw(ctx, card.ID, decimal.RequireFromString("-5"), owner)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("card owned by someone else reports not found", func(t *testing.T) {
		f := newFixture(t)
		card := f.newCard(t, owner, "100")
		f.setLimit(t, card.ID, "1000", "5000")

		_, err := f.svc.Withdraw(ctx, card.ID, decimal.RequireFromString("10"), "mallory@example.com")
		assert.ErrorIs(t, err, repositories.ErrCardNotFound)
		assert.True(t, f.balance(t, card.ID).Equal(decimal.RequireFromString("100")))
	})

	t.Run("inactive card fails before any balance check", func(t *testing.T) {
		f := newFixture(t)
		card := f.newCard(t, owner, "100")
		f.setLimit(t, card.ID, "1000", "5000")
		card.Status = models.CardStatusBlocked
		require.NoError(t, f.store.Cards().Update(card))

		_, err := f.svc.Withdraw(ctx, card.ID, decimal.RequireFromString("10"), owner)
		assert.ErrorIs(t, err, ErrCardNotActive)
		assert.EqualError(t, err, "Card status is not ACTIVE")
	})

	t.Run("insufficient balance leaves card untouched", func(t *testing.T) {
		f := newFixture(t)
		card := f.newCard(t, owner, "50")
		f.setLimit(t, card.ID, "1000", "5000")

		_, err := f.svc.Withdraw(ctx, card.ID, decimal.RequireFromString("50.01"), owner)
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.True(t, f.balance(t, card.ID).Equal(decimal.RequireFromString("50")))

		history, err := f.svc.FindByCard(ctx, card.ID, owner)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("missing limit fails closed", func(t *testing.T) {
		f := newFixture(t)
		card := f.newCard(t, owner, "100")

		_, err := f.svc.Withdraw(ctx, card.ID, decimal.RequireFromString("1"), owner)
		assert.ErrorIs(t, err, ErrNoLimitConfigured)
	})

	t.Run("withdrawal exactly at the daily limit passes", func(t *testing.T) {
		f := newFixture(t)
		card := f.newCard(t, owner, "500")
		f.setLimit(t, card.ID, "100", "5000")

		_, err := f.svc.Withdraw(ctx, card.ID, decimal.RequireFromString("60"), owner)
		require.NoError(t, err)
		_, err = f.svc.Withdraw(ctx, card.ID, decimal.RequireFromString("40"), owner)
		require.NoError(t, err)
	})

	t.Run("withdrawal one past the daily limit fails", func(t *testing.T) {
		f := newFixture(t)
		card := f.newCard(t, owner, "500")
		f.setLimit(t, card.ID, "100", "5000")

		_, err := f.svc.Withdraw(ctx, card.ID, decimal.RequireFromString("60"), owner)
		require.NoError(t, err)
		_, err = f.svc.Withdraw(ctx, card.ID, decimal.RequireFromString("41"), owner)
		assert.ErrorIs(t, err, ErrDailyLimitExceeded)
		assert.EqualError(t, err, "Daily spent limit exceeded")
		assert.True(t, f.balance(t, card.ID).Equal(decimal.RequireFromString("440")))
	})

	t.Run("monthly limit caps accumulated withdrawals", func(t *testing.T) {
		f := newFixture(t)
		card := f.newCard(t, owner, "500")
		f.setLimit(t, card.ID, "1000", "150")

		_, err := f.svc.Withdraw(ctx, card.ID, decimal.RequireFromString("100"), owner)
		require.NoError(t, err)
		_, err = f.svc.Withdraw(ctx, card.ID, decimal.RequireFromString("51"), owner)
		assert.ErrorIs(t, err, ErrMonthlyLimitExceeded)
		assert.EqualError(t, err, "Monthly limit exceeded")
	})

	t.Run("status beats balance beats limit in the rule order", func(t *testing.T) {
		f := newFixture(t)
		card := f.newCard(t, owner, "10")
		card.Status = models.CardStatusExpired
		require.NoError(t, f.store.Cards().Update(card))

		// Status fails first even though balance and limit would too.
		_, err := f.svc.Withdraw(ctx, card.ID, decimal.RequireFromString("100"), owner)
		assert.ErrorIs(t, err, ErrCardNotActive)

		card.Status = models.CardStatusActive
		require.NoError(t, f.store.Cards().Update(card))
		_, err = f.svc.Withdraw(ctx, card.ID, decimal.RequireFromString("100"), owner)
		assert.ErrorIs(t, err, ErrInsufficientBalance)
	})
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("moves funds and appends one record on the source", func(t *testing.T) {
		f := newFixture(t)
		from := f.newCard(t, owner, "100")
		to := f.newCard(t, owner, "20")
		f.setLimit(t, from.ID, "1000", "5000")

		txn, err := f.svc.Transfer(ctx, from.ID, to.ID, decimal.RequireFromString("30"), owner)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionTypeTransfer, txn.Type)
		assert.Equal(t, from.ID, txn.CardID)

		assert.True(t, f.balance(t, from.ID).Equal(decimal.RequireFromString("70")))
		assert.True(t, f.balance(t, to.ID).Equal(decimal.RequireFromString("50")))

		history, err := f.svc.FindByCard(ctx, to.ID, owner)
		require.NoError(t, err)
		assert.Empty(t, history, "record belongs to the source card")
	})

	t.Run("rejects a transfer to the same card", func(t *testing.T) {
		f := newFixture(t)
		card := f.newCard(t, owner, "100")
		f.setLimit(t, card.ID, "1000", "5000")

		_, err := f.svc.Transfer(ctx, card.ID, card.ID, decimal.RequireFromString("10"), owner)
		assert.ErrorIs(t, err, ErrSameCard)
	})

	t.Run("validates only the source card", func(t *testing.T) {
		f := newFixture(t)
		from := f.newCard(t, owner, "100")
		to := f.newCard(t, owner, "0")
		f.setLimit(t, from.ID, "1000", "5000")
		// Destination has no limit and is blocked; neither matters.
		to.Status = models.CardStatusBlocked
		require.NoError(t, f.store.Cards().Update(to))

		_, err := f.svc.Transfer(ctx, from.ID, to.ID, decimal.RequireFromString("10"), owner)
		require.NoError(t, err)
		assert.True(t, f.balance(t, to.ID).Equal(decimal.RequireFromString("10")))
	})

	t.Run("transfers do not count toward spent totals", func(t *testing.T) {
		f := newFixture(t)
		from := f.newCard(t, owner, "500")
		to := f.newCard(t, owner, "0")
		f.setLimit(t, from.ID, "100", "5000")

		_, err := f.svc.Transfer(ctx, from.ID, to.ID, decimal.RequireFromString("90"), owner)
		require.NoError(t, err)

		// The 90 transferred does not consume the daily allowance.
		_, err = f.svc.Withdraw(ctx, from.ID, decimal.RequireFromString("100"), owner)
		require.NoError(t, err)
	})

	t.Run("prior withdrawals gate a transfer", func(t *testing.T) {
		f := newFixture(t)
		from := f.newCard(t, owner, "500")
		to := f.newCard(t, owner, "0")
		f.setLimit(t, from.ID, "100", "5000")

		_, err := f.svc.Withdraw(ctx, from.ID, decimal.RequireFromString("80"), owner)
		require.NoError(t, err)
		_, err = f.svc.Transfer(ctx, from.ID, to.ID, decimal.RequireFromString("30"), owner)
		assert.ErrorIs(t, err, ErrDailyLimitExceeded)
	})

	t.Run("either card missing fails the whole transfer", func(t *testing.T) {
		f := newFixture(t)
		from := f.newCard(t, owner, "100")
		f.setLimit(t, from.ID, "1000", "5000")

		_, err := f.svc.Transfer(ctx, from.ID, from.ID+100, decimal.RequireFromString("10"), owner)
		assert.ErrorIs(t, err, repositories.ErrCardNotFound)
		assert.True(t, f.balance(t, from.ID).Equal(decimal.RequireFromString("100")))
	})

	t.Run("destination owned by someone else fails", func(t *testing.T) {
		f := newFixture(t)
		from := f.newCard(t, owner, "100")
		other := f.newCard(t, "bob@example.com", "0")
		f.setLimit(t, from.ID, "1000", "5000")

		_, err := f.svc.Transfer(ctx, from.ID, other.ID, decimal.RequireFromString("10"), owner)
		assert.ErrorIs(t, err, repositories.ErrCardNotFound)
	})
}

func TestFindByCard(t *testing.T) {
	ctx := context.Background()

	t.Run("returns records oldest first", func(t *testing.T) {
		f := newFixture(t)
		card := f.newCard(t, owner, "100")
		f.setLimit(t, card.ID, "1000", "5000")

		for _, amount := range []string{"1", "2", "3"} {
			_, err := f.svc.Withdraw(ctx, card.ID, decimal.RequireFromString(amount), owner)
			require.NoError(t, err)
		}

		history, err := f.svc.FindByCard(ctx, card.ID, owner)
		require.NoError(t, err)
		require.Len(t, history, 3)
		for i := 1; i < len(history); i++ {
			assert.True(t, history[i].Timestamp.After(history[i-1].Timestamp))
		}
		assert.True(t, history[0].Amount.Equal(decimal.RequireFromString("1")))
	})

	t.Run("non owner gets not found, not an empty list", func(t *testing.T) {
		f := newFixture(t)
		card := f.newCard(t, owner, "100")

		_, err := f.svc.FindByCard(ctx, card.ID, "mallory@example.com")
		assert.ErrorIs(t, err, repositories.ErrCardNotFound)
	})
}

func TestFindByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	card := f.newCard(t, owner, "100")
	f.setLimit(t, card.ID, "1000", "5000")

	created, err := f.svc.Withdraw(ctx, card.ID, decimal.RequireFromString("5"), owner)
	require.NoError(t, err)

	found, err := f.svc.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Reference, found.Reference)

	_, err = f.svc.FindByID(ctx, created.ID+999)
	assert.ErrorIs(t, err, repositories.ErrTransactionNotFound)
}

func TestConcurrentWithdrawals(t *testing.T) {
	ctx := context.Background()

	t.Run("n concurrent withdrawals leave an exact balance", func(t *testing.T) {
		f := newFixture(t)
		const n = 50
		card := f.newCard(t, owner, "500")
		f.setLimit(t, card.ID, "10000", "50000")

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.svc.Withdraw(ctx, card.ID, decimal.RequireFromString("10"), owner)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.True(t, f.balance(t, card.ID).Equal(decimal.Zero),
			"expected 0, got %s", f.balance(t, card.ID))

		history, err := f.svc.FindByCard(ctx, card.ID, owner)
		require.NoError(t, err)
		assert.Len(t, history, n)
	})

	t.Run("one more withdrawal than the balance allows fails exactly once", func(t *testing.T) {
		f := newFixture(t)
		const n = 20
		card := f.newCard(t, owner, "190") // room for 19 of 20
		f.setLimit(t, card.ID, "10000", "50000")

		var failures int64
		var mu sync.Mutex
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := f.svc.Withdraw(ctx, card.ID, decimal.RequireFromString("10"), owner); err != nil {
					mu.Lock()
					failures++
					mu.Unlock()
					assert.ErrorIs(t, err, ErrInsufficientBalance)
				}
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 1, failures)
		assert.True(t, f.balance(t, card.ID).Equal(decimal.Zero))
	})

	t.Run("opposite direction transfers do not deadlock", func(t *testing.T) {
		f := newFixture(t)
		a := f.newCard(t, owner, "1000")
		b := f.newCard(t, owner, "1000")
		f.setLimit(t, a.ID, "100000", "500000")
		f.setLimit(t, b.ID, "100000", "500000")

		var wg sync.WaitGroup
		for i := 0; i < 25; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, err := f.svc.Transfer(ctx, a.ID, b.ID, decimal.RequireFromString("1"), owner)
				assert.NoError(t, err)
			}()
			go func() {
				defer wg.Done()
				_, err := f.svc.Transfer(ctx, b.ID, a.ID, decimal.RequireFromString("1"), owner)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		// Equal traffic both ways nets out to the starting balances.
		assert.True(t, f.balance(t, a.ID).Equal(decimal.RequireFromString("1000")))
		assert.True(t, f.balance(t, b.ID).Equal(decimal.RequireFromString("1000")))
	})
}

func TestMonotonicClock(t *testing.T) {
	var c monotonicClock
	prev := c.Now()
	for i := 0; i < 1000; i++ {
		next := c.Now()
		assert.True(t, next.After(prev))
		prev = next
	}
}
