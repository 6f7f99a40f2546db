package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/aussiebroadwan/learn/internal/learn/service"
	"github.com/aussiebroadwan/learn/internal/learn/session"
	"github.com/aussiebroadwan/learn/pkg/httpx"
	"github.com/aussiebroadwan/learn/pkg/metricsx"
	"github.com/aussiebroadwan/learn/pkg/slogx"

	_ "github.com/aussiebroadwan/learn/api/learn" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	metrics      *metricsx.Metrics
	loader       *sessionLoader

	// DB is pinged by /readyz. VerifierStore is pinged too when verifiers
	// live outside the database.
	DB            Pinger
	VerifierStore Pinger

	Cookies         *session.Manager
	AuthService     *service.AuthService
	SessionService  *service.SessionService
	OAuthService    *service.OAuthFlowService
	ProgressService *service.ProgressService
	CourseService   *service.CourseService

	// OAuthProviders are offered on the login page.
	OAuthProviders []string
}

func NewRouter(
	buildVersion string,
	protectedPrefixes []string,
	cookies *session.Manager,
	sessions *service.SessionService,
	metrics *metricsx.Metrics,
	logger *slog.Logger,
) *Router {
	if len(protectedPrefixes) == 0 {
		protectedPrefixes = DefaultProtectedPrefixes
	}
	if metrics == nil {
		metrics = metricsx.New("learn")
	}

	r := &Router{
		Mux:            http.NewServeMux(),
		buildVersion:   buildVersion,
		startTime:      time.Now(),
		logger:         logger,
		metrics:        metrics,
		Cookies:        cookies,
		SessionService: sessions,
		loader:         &sessionLoader{cookies: cookies, sessions: sessions},
	}

	// The metrics middleware must see the request the mux routes, so
	// nothing between it and the mux may replace the request.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		r.metrics.Middleware(),
		AuthGate(protectedPrefixes),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerProgress()
	r.registerCourses()
	r.registerPages()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Learn API
//	@version		0.1.0
//	@description	Course catalog, progress tracking and role based sign in for the Learn platform.
//	@description
//	@description	Sessions are carried in the learn_session cookie set by the sign in routes.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/learn
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						learn_session
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	auth := &AuthHandler{Sessions: r.Cookies, Auth: r.AuthService, Metrics: r.metrics}

	// Credential endpoints - strict limit by IP and submitted email
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(auth.HandleLogin),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(http.HandlerFunc(auth.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/set-session",
		httpx.Chain(http.HandlerFunc(auth.HandleSetSession),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/logout",
		httpx.Chain(http.HandlerFunc(auth.HandleLogout),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("GET /api/auth/session",
		httpx.Chain(http.HandlerFunc(auth.HandleSession),
			r.loader.api(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/select-role",
		httpx.Chain(http.HandlerFunc(auth.HandleSelectRole),
			r.loader.api(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// Admin only
	r.Mux.Handle("POST /api/admin/update-user-role",
		httpx.Chain(http.HandlerFunc(auth.HandleUpdateUserRole),
			r.loader.api(),
			httpx.RequireAnyRole(string(domain.RoleAdmin)),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// OAuth - starting a flow writes a verifier row, so limit it like a credential attempt
	start := &OAuthStartHandler{Sessions: r.Cookies, Flows: r.OAuthService}
	r.Mux.Handle("GET /api/auth/oauth/{provider}",
		httpx.Chain(start,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	callback := &CallbackHandler{
		Sessions: r.Cookies,
		Flows:    r.OAuthService,
		Auth:     r.AuthService,
		Metrics:  r.metrics,
	}
	r.Mux.Handle("GET /api/auth/callback",
		httpx.Chain(callback,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerProgress() {
	h := &ProgressHandler{Progress: r.ProgressService}
	anyRole := roleNames(domain.AssignableRoles()...)

	r.Mux.Handle("GET /api/progress/get",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			r.loader.api(),
			httpx.RequireAnyRole(anyRole...),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /api/progress/update",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			r.loader.api(),
			httpx.RequireAnyRole(anyRole...),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerCourses() {
	h := &CoursesHandler{Courses: r.CourseService, Progress: r.ProgressService}

	r.Mux.Handle("GET /api/courses",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /api/courses/{slug}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("POST /api/courses/{slug}/enroll",
		httpx.Chain(http.HandlerFunc(h.HandleEnroll),
			r.loader.api(),
			httpx.RequireAnyRole(roleNames(domain.AssignableRoles()...)...),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerPages() {
	p := NewPagesHandler(r.CourseService, r.ProgressService, r.OAuthProviders)
	public := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, r.loader.optional(), httpx.RateLimitByIP(httpx.PublicLimit))
	}

	r.Mux.Handle("GET /{$}", public(p.Home))
	r.Mux.Handle("GET /login", public(p.Login))
	r.Mux.Handle("GET /register", public(p.Register))
	r.Mux.Handle("GET /courses", public(p.CourseList))
	r.Mux.Handle("GET /courses/{slug}", public(p.Course))

	r.Mux.Handle("GET "+domain.RoleSelectionPath,
		httpx.Chain(http.HandlerFunc(p.SelectRole), r.loader.page()),
	)
	for _, role := range domain.AssignableRoles() {
		r.Mux.Handle("GET "+role.DefaultPath(),
			httpx.Chain(p.Dashboard(role), r.loader.page(role)),
		)
	}
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.DB, r.VerifierStore),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics", r.metrics.Handler())
}
