package httpapi

import (
	"net/http"
	"runtime/debug"

	"github.com/riskibarqy/sunday-league/internal/platform/logging"
)

// RouterConfig carries the process settings the router depends on.
type RouterConfig struct {
	SwaggerEnabled     bool
	CORSAllowedOrigins []string
	InternalJobToken   string
}

type route struct {
	pattern string
	handle  http.HandlerFunc
}

func NewRouter(handler *Handler, verifier TokenVerifier, cfg RouterConfig, logger *logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	for _, rt := range handler.publicRoutes(cfg.SwaggerEnabled) {
		mux.HandleFunc(rt.pattern, rt.handle)
	}
	for _, rt := range handler.memberRoutes() {
		mux.Handle(rt.pattern, RequireAuth(verifier, rt.handle))
	}
	for _, rt := range handler.internalRoutes() {
		mux.Handle(rt.pattern, RequireInternalJobToken(cfg.InternalJobToken, rt.handle))
	}

	// Outermost first.
	return chain(mux,
		RequestTracing,
		func(next http.Handler) http.Handler { return RequestLogging(logger, next) },
		func(next http.Handler) http.Handler { return CORS(cfg.CORSAllowedOrigins, next) },
		func(next http.Handler) http.Handler { return recoverPanic(logger, next) },
	)
}

func chain(h http.Handler, middleware ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}

func (h *Handler) publicRoutes(swaggerEnabled bool) []route {
	routes := []route{{"GET /healthz", h.Healthz}}
	if swaggerEnabled {
		routes = append(routes,
			route{"GET /openapi.yaml", h.OpenAPI},
			route{"GET /docs", h.SwaggerUI},
			route{"GET /docs/", h.SwaggerUI},
		)
	}
	return routes
}

func (h *Handler) memberRoutes() []route {
	return []route{
		{"POST /v1/groups/{groupID}/matches", h.RecordMatch},
		{"GET /v1/groups/{groupID}/matches", h.ListMatches},
		{"GET /v1/groups/{groupID}/stats/{season}", h.GetSeasonStats},
		{"GET /v1/matches/{matchID}", h.GetMatch},
		{"POST /v1/matches/{matchID}/votes", h.CastVote},

		{"GET /v1/groups/{groupID}/members", h.ListMembers},
		{"POST /v1/groups/{groupID}/members", h.AddGuestMember},
		{"PATCH /v1/members/{memberID}", h.RenameMember},
		{"POST /v1/members/{memberID}/link", h.LinkMember},
		{"DELETE /v1/members/{memberID}/link", h.UnlinkMember},

		{"POST /v1/groups/{groupID}/invites", h.CreateInvite},
		{"POST /v1/invites/{inviteID}/accept", h.AcceptInvite},
		{"POST /v1/invites/{inviteID}/reject", h.RejectInvite},
	}
}

func (h *Handler) internalRoutes() []route {
	return []route{
		{"POST /v1/internal/jobs/bootstrap", h.RunBootstrapJob},
		{"POST /v1/internal/jobs/mvp-sweep", h.RunMvpSweepJob},
		{"POST /v1/internal/migrations/{phase}", h.RunMigration},
	}
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.ErrorContext(r.Context(), "panic recovered",
				"panic", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			writeInternalError(r.Context(), w)
		}()
		next.ServeHTTP(w, r)
	})
}
