package service_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/learn/internal/learn/service"
	"github.com/aussiebroadwan/learn/internal/learn/service/servicetest"
	"github.com/aussiebroadwan/learn/internal/learn/store/drivers/sqlite"
	"github.com/aussiebroadwan/learn/pkg/errx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type fixture struct {
	idp      *servicetest.IdP
	store    *sqlite.Store
	progress *service.ProgressService
	auth     *service.AuthService
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	st := newStore(t)
	idp := servicetest.NewIdP()
	progress := service.NewProgressService(st)
	return fixture{
		idp:      idp,
		store:    st,
		progress: progress,
		auth:     service.NewAuthService(idp, progress),
	}
}

func requireKind(t *testing.T, err error, kind errx.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, errx.KindOf(err), "error: %v", err)
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }
