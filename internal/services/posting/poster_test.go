package posting

import (
	"context"
	"testing"
	"time"

	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/testutil/fixtures"
	"github.com/kevin07696/authorizenet-gateway/internal/testutil/mocks"
	"github.com/kevin07696/authorizenet-gateway/internal/testutil/teststore"
	"github.com/kevin07696/authorizenet-gateway/pkg/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPost(t *testing.T) {
	ctx := context.Background()
	store := teststore.New(t)
	seed := fixtures.Seed(t, ctx, store)
	txn := fixtures.NewTransaction(seed.Party.ID, seed.Address.ID, seed.Gateway.ID).
		WithState(domain.StateCompleted).Build()
	require.NoError(t, store.CreateTransaction(ctx, txn))

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	poster := NewPoster(store, mocks.NewMockLogger()).WithClock(timeutil.Fixed(at))

	require.NoError(t, poster.Post(ctx, txn))

	stored, err := store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePosted, stored.State)
	assert.True(t, stored.UpdatedAt.Equal(at))
}

func TestPost_RequiresCompleted(t *testing.T) {
	for _, state := range []domain.TransactionState{domain.StateDraft, domain.StateAuthorized, domain.StatePosted, domain.StateFailed} {
		t.Run(string(state), func(t *testing.T) {
			txn := &domain.Transaction{ID: "t", State: state}
			err := NewPoster(teststore.New(t), mocks.NewMockLogger()).Post(context.Background(), txn)

			assert.True(t, domain.IsDomainError(err, domain.ErrorCodeTxnInvalidState))
			assert.Equal(t, state, txn.State)
		})
	}
}
