package postgres_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/aussiebroadwan/learn/internal/learn/store"
	"github.com/aussiebroadwan/learn/internal/learn/store/drivers/postgres"
	"github.com/aussiebroadwan/learn/pkg/idx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres runs a throwaway PostgreSQL container and returns a
// migrated store connected to it.
func startPostgres(t *testing.T) *postgres.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in -short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "learn",
				"POSTGRES_PASSWORD": "learn",
				"POSTGRES_DB":       "learn",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	url := fmt.Sprintf("postgres://learn:learn@%s:%s/learn?sslmode=disable", host, port.Port())
	s, err := postgres.NewStore(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.ApplyMigrations(), "second run is a no-op")
	return s
}

func record(userID, slug string, status domain.ProgressStatus, at time.Time) domain.ProgressRecord {
	return domain.ProgressRecord{
		ID:           idx.NewAt(at).String(),
		UserID:       userID,
		ItemSlug:     slug,
		ItemType:     domain.ItemLesson,
		Status:       status,
		ProgressData: json.RawMessage(`{"step":1}`),
		StartedAt:    at,
		UpdatedAt:    at,
	}
}

func TestPostgresProgress(t *testing.T) {
	s := startPostgres(t)
	ctx := context.Background()
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("upsert twice keeps latest", func(t *testing.T) {
		first, err := s.Progress().UpsertProgress(ctx, record("u1", "lesson-1", domain.StatusStarted, t0))
		require.NoError(t, err)

		t1 := t0.Add(time.Hour)
		done := record("u1", "lesson-1", domain.StatusCompleted, t1)
		done.CompletedAt = &t1
		got, err := s.Progress().UpsertProgress(ctx, done)
		require.NoError(t, err)

		require.Equal(t, first.ID, got.ID)
		require.Equal(t, domain.StatusCompleted, got.Status)
		require.True(t, t0.Equal(got.StartedAt))
		require.JSONEq(t, `{"step":1}`, string(got.ProgressData))

		n, err := s.Progress().CountProgress(ctx, "u1", "lesson-1")
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})

	t.Run("item type is fixed", func(t *testing.T) {
		other := record("u1", "lesson-1", domain.StatusInProgress, t0.Add(2*time.Hour))
		other.ItemType = domain.ItemModule
		_, err := s.Progress().UpsertProgress(ctx, other)
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		got, err := s.Progress().GetProgress(ctx, "u1", domain.ItemLesson, "lesson-1")
		require.NoError(t, err)
		require.Equal(t, domain.StatusCompleted, got.Status)
	})

	t.Run("concurrent upserts", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 20)
		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				status := domain.StatusStarted
				if i%2 == 0 {
					status = domain.StatusInProgress
				}
				_, err := s.Progress().UpsertProgress(ctx, record("u2", "lesson-9", status, time.Now().UTC()))
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		n, err := s.Progress().CountProgress(ctx, "u2", "lesson-9")
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})

	t.Run("missing row", func(t *testing.T) {
		_, err := s.Progress().GetProgress(ctx, "nobody", domain.ItemLesson, "")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestPostgresVerifiers(t *testing.T) {
	s := startPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC()

	v := domain.CodeVerifier{FlowID: "f1", Value: "secret", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, s.Verifiers().CreateVerifier(ctx, v))
	require.ErrorIs(t, s.Verifiers().CreateVerifier(ctx, v), store.ErrAlreadyExists)

	got, err := s.Verifiers().TakeVerifier(ctx, "f1")
	require.NoError(t, err)
	require.Equal(t, "secret", got.Value)

	_, err = s.Verifiers().TakeVerifier(ctx, "f1")
	require.ErrorIs(t, err, store.ErrNotFound)
}
