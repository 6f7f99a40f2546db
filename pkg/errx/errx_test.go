package errx_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/learn/pkg/errx"
	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	t.Parallel()

	cases := map[errx.Kind]int{
		errx.KindNetwork:        http.StatusBadGateway,
		errx.KindAuthentication: http.StatusUnauthorized,
		errx.KindAuthorization:  http.StatusForbidden,
		errx.KindNotFound:       http.StatusNotFound,
		errx.KindValidation:     http.StatusBadRequest,
		errx.KindServer:         http.StatusInternalServerError,
		errx.KindUnknown:        http.StatusInternalServerError,
	}
	for kind, status := range cases {
		require.Equal(t, status, kind.Status(), kind.String())
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("loading: %w", errx.Validation("bad slug"))
	require.Equal(t, errx.KindValidation, errx.KindOf(wrapped))
	require.Equal(t, errx.KindNetwork, errx.KindOf(fmt.Errorf("call: %w", context.DeadlineExceeded)))
	require.Equal(t, errx.KindUnknown, errx.KindOf(errors.New("boom")))
	require.True(t, errors.Is(wrapped, errx.Validation("")))
	require.False(t, errors.Is(wrapped, errx.NotFound("")))
}

func TestMessageHidesInternals(t *testing.T) {
	t.Parallel()

	cause := errors.New("pq: relation does not exist")
	require.Equal(t, "internal server error", errx.Message(errx.Wrap(errx.KindServer, "query failed", cause)))
	require.Equal(t, "internal server error", errx.Message(cause))
	require.Equal(t, "wrong role", errx.Message(errx.Authorization("wrong role")))
	require.Contains(t, errx.Wrap(errx.KindServer, "query failed", cause).Error(), "relation does not exist")
}
