// Package teststore opens throwaway stores for service tests.
package teststore

import (
	"context"
	"testing"

	"github.com/kevin07696/authorizenet-gateway/internal/adapters/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// New opens an in-memory SQLite store closed at test cleanup
func New(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}
