package service_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/aussiebroadwan/learn/pkg/errx"
	"github.com/stretchr/testify/require"
)

const adminID = "11111111-1111-4111-8111-111111111111"

func TestLoginEnsuresRegistration(t *testing.T) {
	f := newFixture(t)
	f.idp.AddUser("u1", "ada@example.com", "secret1", "student")
	ctx := context.Background()

	sess, err := f.auth.Login(ctx, "  Ada@Example.com ", "secret1")
	require.NoError(t, err)
	require.Equal(t, "u1", sess.UserID)
	require.Equal(t, domain.RoleStudent, sess.Role)
	require.NotEmpty(t, sess.AccessToken)
	require.False(t, sess.ExpiresAt.IsZero())

	// Signing in again must not add a second registration row.
	_, err = f.auth.Login(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	n, err := f.store.Progress().CountProgress(ctx, "u1", domain.RegistrationSlug)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestLoginIgnoresSelfAssignedRole(t *testing.T) {
	f := newFixture(t)
	u := f.idp.AddUser("u1", "ada@example.com", "secret1", "")
	u.UserMetadata = map[string]any{"role": "admin"}
	f.idp.Users[u.Email] = u

	sess, err := f.auth.Login(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)
	require.True(t, sess.NeedsRole())
	require.Equal(t, "/auth/select-role", sess.LandingPath())
}

func TestLoginRejected(t *testing.T) {
	f := newFixture(t)
	f.idp.AddUser("u1", "ada@example.com", "secret1", "student")
	ctx := context.Background()

	_, err := f.auth.Login(ctx, "ada@example.com", "wrong")
	requireKind(t, err, errx.KindAuthentication)
	require.Equal(t, "Invalid login credentials", errx.Message(err))

	_, err = f.auth.Login(ctx, "", "secret1")
	requireKind(t, err, errx.KindValidation)

	_, err = f.auth.Login(ctx, "not-an-email", "secret1")
	requireKind(t, err, errx.KindValidation)

	_, err = f.auth.Login(ctx, "ada@example.com", "")
	requireKind(t, err, errx.KindValidation)
	require.Equal(t, 1, f.idp.CallCount("SignInWithPassword"))
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.auth.Register(ctx, "grace@example.com", "hopper1", "Grace Hopper")
	require.NoError(t, err)
	require.Equal(t, "grace@example.com", res.User.Email)
	require.Equal(t, "Grace Hopper", res.User.UserMetadata["full_name"])
	require.NotNil(t, res.Session)
	require.True(t, res.Session.NeedsRole())

	_, err = f.auth.Register(ctx, "grace@example.com", "hopper1", "")
	requireKind(t, err, errx.KindValidation)
	require.Equal(t, "User already registered", errx.Message(err))

	_, err = f.auth.Register(ctx, "short@example.com", "abc", "")
	requireKind(t, err, errx.KindValidation)
}

func TestSetSession(t *testing.T) {
	f := newFixture(t)
	f.idp.AddUser("u1", "ada@example.com", "secret1", "instructor")
	ctx := context.Background()

	grant, err := f.idp.SignInWithPassword(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	sess, err := f.auth.SetSession(ctx, grant.AccessToken, grant.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, "u1", sess.UserID)
	require.Equal(t, domain.RoleInstructor, sess.Role)
	require.Equal(t, grant.RefreshToken, sess.RefreshToken)

	_, err = f.auth.SetSession(ctx, "forged", "")
	requireKind(t, err, errx.KindAuthentication)

	_, err = f.auth.SetSession(ctx, " ", "")
	requireKind(t, err, errx.KindValidation)
}

func TestExchangeCode(t *testing.T) {
	f := newFixture(t)
	f.idp.AddUser("u1", "ada@example.com", "secret1", "")
	f.idp.Codes["good"] = "ada@example.com"
	ctx := context.Background()

	_, err := f.auth.ExchangeCode(ctx, "", "verifier")
	require.EqualError(t, err, "authorization code missing")
	_, err = f.auth.ExchangeCode(ctx, "good", "")
	require.EqualError(t, err, "verifier missing")
	require.Zero(t, f.idp.CallCount("ExchangeCodeForSession"))

	sess, err := f.auth.ExchangeCode(ctx, "good", "verifier")
	require.NoError(t, err)
	require.True(t, sess.NeedsRole())

	_, err = f.auth.ExchangeCode(ctx, "good", "verifier")
	requireKind(t, err, errx.KindValidation)
	require.Equal(t, "invalid flow state", errx.Message(err))
}

func TestLogoutIsBestEffort(t *testing.T) {
	f := newFixture(t)
	f.idp.Err = context.DeadlineExceeded

	f.auth.Logout(context.Background(), domain.Session{UserID: "u1", AccessToken: "at"})
	f.auth.Logout(context.Background(), domain.Session{})
	require.Equal(t, 1, f.idp.CallCount("SignOut"))
}

func TestSelectRole(t *testing.T) {
	f := newFixture(t)
	u := f.idp.AddUser("u1", "ada@example.com", "secret1", "")
	ctx := context.Background()
	sess := domain.Session{UserID: u.ID, Email: u.Email, AccessToken: "at"}

	_, err := f.auth.SelectRole(ctx, sess, "admin")
	requireKind(t, err, errx.KindValidation)
	_, err = f.auth.SelectRole(ctx, sess, "wizard")
	requireKind(t, err, errx.KindValidation)

	got, err := f.auth.SelectRole(ctx, sess, " Teacher ")
	require.NoError(t, err)
	require.Equal(t, domain.RoleInstructor, got.Role)
	require.Equal(t, "instructor", f.idp.Users["ada@example.com"].AppMetadata["role"])

	_, err = f.auth.SelectRole(ctx, got, "student")
	requireKind(t, err, errx.KindAuthorization)

	_, err = f.auth.SelectRole(ctx, domain.Session{}, "student")
	requireKind(t, err, errx.KindAuthentication)
}

func TestUpdateUserRole(t *testing.T) {
	f := newFixture(t)
	target := f.idp.AddUser("22222222-2222-4222-8222-222222222222", "bob@example.com", "pw1234", "student")
	ctx := context.Background()
	admin := domain.Session{UserID: adminID, Role: domain.RoleAdmin}

	err := f.auth.UpdateUserRole(ctx, domain.Session{UserID: "x", Role: domain.RoleInstructor}, target.ID, "admin")
	requireKind(t, err, errx.KindAuthorization)

	err = f.auth.UpdateUserRole(ctx, admin, "not-a-uuid", "admin")
	requireKind(t, err, errx.KindValidation)

	err = f.auth.UpdateUserRole(ctx, admin, target.ID, "bogus")
	requireKind(t, err, errx.KindValidation)

	err = f.auth.UpdateUserRole(ctx, admin, "33333333-3333-4333-8333-333333333333", "admin")
	requireKind(t, err, errx.KindNotFound)

	require.NoError(t, f.auth.UpdateUserRole(ctx, admin, target.ID, "admin"))
	require.Equal(t, "admin", f.idp.Users["bob@example.com"].AppMetadata["role"])
}
