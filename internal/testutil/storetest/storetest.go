// Package storetest runs the same behavioural checks against every ports.Store backend.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/domain/ports"
	"github.com/kevin07696/authorizenet-gateway/internal/testutil/fixtures"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises store. newStore must return an empty store per call.
func Run(t *testing.T, newStore func(t *testing.T) ports.Store) {
	t.Run("GatewayRoundTrip", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		gw := fixtures.NewGateway().Build()
		require.NoError(t, store.CreateGateway(ctx, gw))

		got, err := store.GetGateway(ctx, gw.ID)
		require.NoError(t, err)
		assert.Equal(t, gw.Provider, got.Provider)
		assert.Equal(t, gw.APILogin, got.APILogin)
		assert.Equal(t, gw.TransactionKey, got.TransactionKey)
		assert.True(t, got.Test)
		assert.True(t, gw.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("MissingRowsAreNotFound", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		id := uuid.NewString()

		_, err := store.GetGateway(ctx, id)
		assert.True(t, errors.Is(err, domain.ErrGatewayNotFound))
		_, err = store.GetParty(ctx, id)
		assert.True(t, errors.Is(err, domain.ErrPartyNotFound))
		_, err = store.GetAddress(ctx, id)
		assert.True(t, errors.Is(err, domain.ErrAddressNotFound))
		_, err = store.GetPaymentProfile(ctx, id)
		assert.True(t, errors.Is(err, domain.ErrPaymentProfileNotFound))
		_, err = store.GetTransaction(ctx, id)
		assert.True(t, errors.Is(err, domain.ErrTxnNotFound))
	})

	t.Run("AddressAuthorizeID", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		seed := fixtures.Seed(t, ctx, store)

		got, err := store.GetAddress(ctx, seed.Address.ID)
		require.NoError(t, err)
		assert.False(t, got.HasAuthorizeID())

		require.NoError(t, store.SetAddressAuthorizeID(ctx, seed.Address.ID, "addr-9"))
		got, err = store.GetAddress(ctx, seed.Address.ID)
		require.NoError(t, err)
		require.True(t, got.HasAuthorizeID())
		assert.Equal(t, "addr-9", *got.AuthorizeID)

		err = store.SetAddressAuthorizeID(ctx, uuid.NewString(), "addr-10")
		assert.True(t, errors.Is(err, domain.ErrAddressNotFound))
	})

	t.Run("ListAddressesByParty", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		seed := fixtures.Seed(t, ctx, store)

		second := fixtures.NewAddress(seed.Party.ID).
			WithCreatedAt(seed.Address.CreatedAt.Add(time.Second)).
			WithAuthorizeID("addr-2").
			Build()
		require.NoError(t, store.CreateAddress(ctx, second))

		addresses, err := store.ListAddressesByParty(ctx, seed.Party.ID)
		require.NoError(t, err)
		require.Len(t, addresses, 2)
		assert.Equal(t, seed.Address.ID, addresses[0].ID)
		assert.Equal(t, second.ID, addresses[1].ID)
	})

	t.Run("PaymentProfileFilters", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		seed := fixtures.Seed(t, ctx, store)
		base := time.Now().UTC().Truncate(time.Second)

		first := fixtures.NewPaymentProfile(seed.Party.ID, seed.Address.ID, seed.Gateway.ID).
			WithRemoteIDs("cust-1", "pp-1").WithCreatedAt(base).Build()
		second := fixtures.NewPaymentProfile(seed.Party.ID, seed.Address.ID, seed.Gateway.ID).
			WithRemoteIDs("cust-1", "pp-2").WithCreatedAt(base.Add(time.Minute)).Inactive().Build()
		require.NoError(t, store.CreatePaymentProfile(ctx, first))
		require.NoError(t, store.CreatePaymentProfile(ctx, second))

		all, err := store.ListPaymentProfiles(ctx, ports.PaymentProfileFilter{PartyID: seed.Party.ID})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, first.ID, all[0].ID)

		active, err := store.ListPaymentProfiles(ctx, ports.PaymentProfileFilter{
			PartyID: seed.Party.ID, GatewayID: seed.Gateway.ID, ActiveOnly: true,
		})
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "pp-1", active[0].ProviderReference)

		byCustomer, err := store.ListPaymentProfiles(ctx, ports.PaymentProfileFilter{AuthorizeProfileID: "cust-1"})
		require.NoError(t, err)
		assert.Len(t, byCustomer, 2)

		first.Active = false
		first.ExpiryYear = "2031"
		require.NoError(t, store.UpdatePaymentProfile(ctx, first))
		got, err := store.GetPaymentProfile(ctx, first.ID)
		require.NoError(t, err)
		assert.False(t, got.Active)
		assert.Equal(t, "2031", got.ExpiryYear)
	})

	t.Run("TransactionLifecycleFields", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		seed := fixtures.Seed(t, ctx, store)

		txn := fixtures.NewTransaction(seed.Party.ID, seed.Address.ID, seed.Gateway.ID).
			WithAmount("19.99").Build()
		require.NoError(t, store.CreateTransaction(ctx, txn))

		got, err := store.GetTransaction(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StateDraft, got.State)
		assert.True(t, decimal.RequireFromString("19.99").Equal(got.Amount))
		assert.Nil(t, got.PaymentProfileID)

		got.State = domain.StateAuthorized
		got.ProviderReference = "60123"
		got.LastFourDigits = "1111"
		got.Amount = decimal.RequireFromString("15.50")
		require.NoError(t, store.UpdateTransaction(ctx, got, domain.StateDraft))

		reloaded, err := store.GetTransaction(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StateAuthorized, reloaded.State)
		assert.Equal(t, "60123", reloaded.ProviderReference)
		assert.Equal(t, "1111", reloaded.LastFourDigits)
		assert.True(t, decimal.RequireFromString("15.50").Equal(reloaded.Amount))

		missing := fixtures.NewTransaction(seed.Party.ID, seed.Address.ID, seed.Gateway.ID).Build()
		err = store.UpdateTransaction(ctx, missing, domain.StateDraft)
		assert.True(t, errors.Is(err, domain.ErrTxnNotFound))
	})

	t.Run("UpdateTransactionRequiresExpectedState", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		seed := fixtures.Seed(t, ctx, store)
		txn := fixtures.NewTransaction(seed.Party.ID, seed.Address.ID, seed.Gateway.ID).Build()
		require.NoError(t, store.CreateTransaction(ctx, txn))

		first, err := store.GetTransaction(ctx, txn.ID)
		require.NoError(t, err)
		second, err := store.GetTransaction(ctx, txn.ID)
		require.NoError(t, err)

		first.State = domain.StateCompleted
		first.ProviderReference = "60001"
		require.NoError(t, store.UpdateTransaction(ctx, first, domain.StateDraft))

		second.State = domain.StateFailed
		second.ProviderReference = "60002"
		err = store.UpdateTransaction(ctx, second, domain.StateDraft)
		assert.True(t, errors.Is(err, domain.ErrTxnStale))

		reloaded, err := store.GetTransaction(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StateCompleted, reloaded.State)
		assert.Equal(t, "60001", reloaded.ProviderReference)
	})

	t.Run("ClaimTransaction", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		seed := fixtures.Seed(t, ctx, store)
		txn := fixtures.NewTransaction(seed.Party.ID, seed.Address.ID, seed.Gateway.ID).Build()
		require.NoError(t, store.CreateTransaction(ctx, txn))

		now := time.Now().UTC()
		claim := func(token string, at time.Time) *ports.TransactionClaim {
			return &ports.TransactionClaim{
				TransactionID: txn.ID,
				State:         domain.StateDraft,
				Token:         token,
				ClaimedAt:     at,
				StaleBefore:   at.Add(-10 * time.Minute),
			}
		}

		require.NoError(t, store.ClaimTransaction(ctx, claim("a", now)))
		err := store.ClaimTransaction(ctx, claim("b", now.Add(time.Second)))
		assert.True(t, errors.Is(err, domain.ErrTxnBusy))

		// Releasing with someone else's token keeps the claim
		require.NoError(t, store.ReleaseTransaction(ctx, txn.ID, "b"))
		err = store.ClaimTransaction(ctx, claim("b", now.Add(time.Second)))
		assert.True(t, errors.Is(err, domain.ErrTxnBusy))

		require.NoError(t, store.ReleaseTransaction(ctx, txn.ID, "a"))
		require.NoError(t, store.ClaimTransaction(ctx, claim("b", now.Add(time.Second))))

		// An abandoned claim can be taken over
		require.NoError(t, store.ClaimTransaction(ctx, claim("c", now.Add(time.Hour))))

		// A successful update releases the claim
		txn.State = domain.StateAuthorized
		require.NoError(t, store.UpdateTransaction(ctx, txn, domain.StateDraft))
		authorized := claim("d", now.Add(time.Hour))
		authorized.State = domain.StateAuthorized
		require.NoError(t, store.ClaimTransaction(ctx, authorized))

		err = store.ClaimTransaction(ctx, claim("e", now.Add(2*time.Hour)))
		assert.True(t, errors.Is(err, domain.ErrTxnStale))

		missing := claim("f", now)
		missing.TransactionID = uuid.NewString()
		err = store.ClaimTransaction(ctx, missing)
		assert.True(t, errors.Is(err, domain.ErrTxnNotFound))
	})

	t.Run("LogsAreOrdered", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		seed := fixtures.Seed(t, ctx, store)
		txn := fixtures.NewTransaction(seed.Party.ID, seed.Address.ID, seed.Gateway.ID).Build()
		require.NoError(t, store.CreateTransaction(ctx, txn))

		now := time.Now().UTC()
		for _, body := range []string{`{"n":1}`, `{"n":2}`, `{"n":3}`} {
			require.NoError(t, store.AppendLog(ctx, &domain.TransactionLog{
				ID: uuid.NewString(), TransactionID: txn.ID, Log: body, CreatedAt: now,
			}))
		}

		logs, err := store.ListLogs(ctx, txn.ID)
		require.NoError(t, err)
		require.Len(t, logs, 3)
		assert.Equal(t, `{"n":1}`, logs[0].Log)
		assert.Equal(t, `{"n":3}`, logs[2].Log)
	})

	t.Run("WithTxRollsBack", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		seed := fixtures.Seed(t, ctx, store)
		txn := fixtures.NewTransaction(seed.Party.ID, seed.Address.ID, seed.Gateway.ID).Build()
		boom := errors.New("boom")

		err := store.WithTx(ctx, func(ctx context.Context, tx ports.Store) error {
			require.NoError(t, tx.CreateTransaction(ctx, txn))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = store.GetTransaction(ctx, txn.ID)
		assert.True(t, errors.Is(err, domain.ErrTxnNotFound))
	})

	t.Run("WithTxNestedJoinsOuter", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		seed := fixtures.Seed(t, ctx, store)
		txn := fixtures.NewTransaction(seed.Party.ID, seed.Address.ID, seed.Gateway.ID).Build()

		err := store.WithTx(ctx, func(ctx context.Context, tx ports.Store) error {
			return tx.WithTx(ctx, func(ctx context.Context, inner ports.Store) error {
				return inner.CreateTransaction(ctx, txn)
			})
		})
		require.NoError(t, err)

		_, err = store.GetTransaction(ctx, txn.ID)
		assert.NoError(t, err)
	})
}
