package http

import (
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/learn/internal/learn/service"
	"github.com/aussiebroadwan/learn/internal/learn/session"
	"github.com/aussiebroadwan/learn/pkg/errx"
	"github.com/aussiebroadwan/learn/pkg/httpx"
	"github.com/aussiebroadwan/learn/pkg/metricsx"
	"github.com/aussiebroadwan/learn/pkg/slogx"
)

// CallbackHandler finishes an OAuth sign in: it consumes the flow's
// verifier, exchanges the code, stores the session and redirects by role.
// Every failure lands on the login page with a message.
type CallbackHandler struct {
	Sessions *session.Manager
	Flows    *service.OAuthFlowService
	Auth     *service.AuthService
	Metrics  *metricsx.Metrics
}

// ServeHTTP handles the provider redirect
//
//	@Summary		OAuth callback
//	@Description	Exchanges the authorization code using the verifier of the flow cookie and redirects to the role landing page, the requested callbackUrl, or role selection.
//	@Tags			Auth
//	@Param			code		query	string	false	"Authorization code"
//	@Param			callbackUrl	query	string	false	"Local path to return to"
//	@Success		303
//	@Router			/api/auth/callback [get].
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	q := r.URL.Query()

	// The flow cookie is cleared on every pass.
	flowID, _ := h.Sessions.TakeFlow(w, r)

	fail := func(stage, msg string) {
		h.Metrics.Event("oauth_callback", stage)
		http.Redirect(w, r, loginErrorURL(msg), http.StatusSeeOther)
	}

	if providerErr := q.Get("error"); providerErr != "" {
		h.burn(r, flowID)
		msg := q.Get("error_description")
		if msg == "" {
			msg = providerErr
		}
		log.Info("provider returned an error", slog.String("error", providerErr))
		fail("provider_error", msg)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.burn(r, flowID)
		fail("missing_code", "authorization code missing")
		return
	}

	verifier, ok, err := h.Flows.Take(ctx, flowID)
	if err != nil {
		log.Error("verifier lookup failed", slog.String("error", err.Error()))
		fail("verifier_error", errx.Message(err))
		return
	}
	if !ok {
		fail("missing_verifier", "verifier missing")
		return
	}

	sess, err := h.Auth.ExchangeCode(ctx, code, verifier.Value)
	if err != nil {
		log.Info("code exchange failed", slog.String("error", err.Error()))
		fail("exchange_failed", errx.Message(err))
		return
	}

	if err := h.Sessions.Set(w, sess); err != nil {
		log.Error("persist session failed", slog.String("error", err.Error()))
		fail("persist_failed", errx.Message(err))
		return
	}

	callbackURL := q.Get("callbackUrl")
	if callbackURL == "" {
		callbackURL = verifier.CallbackURL
	}

	h.Metrics.Event("oauth_callback", "success")
	http.Redirect(w, r, service.RedirectTarget(sess, callbackURL), http.StatusSeeOther)
}

// burn discards the verifier of an abandoned flow.
func (h *CallbackHandler) burn(r *http.Request, flowID string) {
	if _, _, err := h.Flows.Take(r.Context(), flowID); err != nil {
		slogx.FromContext(r.Context()).Warn("discard verifier failed", slog.String("error", err.Error()))
	}
}

// OAuthStartHandler begins a PKCE sign in with a provider.
type OAuthStartHandler struct {
	Sessions *session.Manager
	Flows    *service.OAuthFlowService
}

// ServeHTTP redirects to the provider
//
//	@Summary		Start OAuth sign in
//	@Description	Stores a PKCE verifier server side, sets the flow cookie and redirects to the identity provider.
//	@Tags			Auth
//	@Param			provider	path	string	true	"Provider name, e.g. github"
//	@Param			callbackUrl	query	string	false	"Local path to return to after sign in"
//	@Success		303
//	@Failure		400	{object}	httpx.ErrorResponse	"Unknown provider"
//	@Failure		500	{object}	httpx.ErrorResponse	"Not configured"
//	@Router			/api/auth/oauth/{provider} [get].
func (h *OAuthStartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flow, err := h.Flows.Start(r.Context(), r.PathValue("provider"), r.URL.Query().Get("callbackUrl"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	h.Sessions.SetFlow(w, flow.FlowID)
	http.Redirect(w, r, flow.AuthorizeURL, http.StatusSeeOther)
}
