package httpx

import (
	"net/http"
)

// RequireAnyRole admits requests whose identity carries one of the roles.
// Requests without an identity get 401, requests with the wrong role 403.
// It expects an earlier middleware to have called WithIdentity.
func RequireAnyRole(roles ...string) Middleware {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserIDFromContext(r.Context()) == "" {
				WriteJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
				return
			}
			if _, ok := allowed[RoleFromContext(r.Context())]; !ok {
				WriteJSON(w, http.StatusForbidden, ErrorResponse{Error: "insufficient role"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
