package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/aussiebroadwan/learn/internal/learn/service"
	"github.com/aussiebroadwan/learn/internal/learn/service/servicetest"
	"github.com/aussiebroadwan/learn/pkg/errx"
	"github.com/stretchr/testify/require"
)

func TestCurrentKeepsValidSession(t *testing.T) {
	idp := servicetest.NewIdP()
	now := time.Now()
	svc := service.NewSessionService(idp)
	svc.Now = fixedClock(now)

	in := domain.Session{UserID: "u1", AccessToken: "at", RefreshToken: "rt-u1", ExpiresAt: now.Add(time.Minute)}
	out, refreshed, err := svc.Current(context.Background(), in)
	require.NoError(t, err)
	require.False(t, refreshed)
	require.Equal(t, in, out)
	require.Zero(t, idp.CallCount("RefreshSession"))
}

func TestCurrentRefreshesExpired(t *testing.T) {
	idp := servicetest.NewIdP()
	idp.AddUser("u1", "ada@example.com", "pw", "")
	now := time.Now()
	svc := service.NewSessionService(idp)
	svc.Now = fixedClock(now)

	in := domain.Session{UserID: "u1", Role: domain.RoleStudent, AccessToken: "old", RefreshToken: "rt-u1", ExpiresAt: now.Add(-time.Second)}
	out, refreshed, err := svc.Current(context.Background(), in)
	require.NoError(t, err)
	require.True(t, refreshed)
	require.NotEqual(t, "old", out.AccessToken)
	require.Equal(t, domain.RoleStudent, out.Role, "role carried over when the provider has none")
	require.True(t, out.ExpiresAt.After(now))
}

func TestCurrentRefreshFailure(t *testing.T) {
	idp := servicetest.NewIdP()
	now := time.Now()
	svc := service.NewSessionService(idp)
	svc.Now = fixedClock(now)

	expired := domain.Session{UserID: "u1", AccessToken: "old", RefreshToken: "rt-gone", ExpiresAt: now.Add(-time.Second)}
	_, _, err := svc.Current(context.Background(), expired)
	requireKind(t, err, errx.KindAuthentication)

	expired.RefreshToken = ""
	_, _, err = svc.Current(context.Background(), expired)
	requireKind(t, err, errx.KindAuthentication)
}
