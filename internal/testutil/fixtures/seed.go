// Package fixtures builds and seeds test records.
package fixtures

import (
	"context"
	"testing"

	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/domain/ports"
	"github.com/stretchr/testify/require"
)

// Seeded holds the rows most tests need before creating transactions.
type Seeded struct {
	Gateway *domain.Gateway
	Party   *domain.Party
	Address *domain.Address
}

// Seed inserts an Authorize.net gateway, a party and one billing address.
func Seed(t *testing.T, ctx context.Context, store ports.Store) *Seeded {
	t.Helper()

	s := &Seeded{
		Gateway: NewGateway().Build(),
		Party:   NewParty().Build(),
	}
	s.Address = NewAddress(s.Party.ID).Build()

	require.NoError(t, store.CreateGateway(ctx, s.Gateway))
	require.NoError(t, store.CreateParty(ctx, s.Party))
	require.NoError(t, store.CreateAddress(ctx, s.Address))
	return s
}
