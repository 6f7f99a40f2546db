package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/aussiebroadwan/learn/internal/learn/service"
	"github.com/aussiebroadwan/learn/internal/learn/store"
	"github.com/aussiebroadwan/learn/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingPurgesExpiredVerifiers(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, st.Verifiers().CreateVerifier(ctx, domain.CodeVerifier{
		FlowID: "stale", Value: "v", CreatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(-time.Minute),
	}))
	require.NoError(t, st.Verifiers().CreateVerifier(ctx, domain.CodeVerifier{
		FlowID: "live", Value: "v", CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}))

	hk := service.NewHousekeepingService(st.Verifiers(), slogx.Discard(), time.Hour)
	hk.Start()
	hk.Stop()
	hk.Stop()

	n, err := st.Verifiers().DeleteExpiredVerifiers(ctx)
	require.NoError(t, err)
	require.Zero(t, n, "stale verifier already purged on start")

	_, err = st.Verifiers().TakeVerifier(ctx, "stale")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Verifiers().TakeVerifier(ctx, "live")
	require.NoError(t, err)
}

func TestHousekeepingStopWithoutStart(t *testing.T) {
	hk := service.NewHousekeepingService(newStore(t).Verifiers(), slogx.Discard(), time.Hour)

	done := make(chan struct{})
	go func() {
		hk.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a worker that never started")
	}
}
