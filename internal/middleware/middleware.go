package middleware

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/handlers"
	"github.com/akolanti/docgenie/internal/metrics"
	"github.com/akolanti/docgenie/pkg/logger_i"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

type authSettings struct {
	token  string
	bypass bool
}

var (
	settingsMu sync.RWMutex
	auth       authSettings
)

// Init applies the server and auth sections of cfg. Until it is called every
// request without a bypass is rejected.
func Init(cfg *config.Config) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	auth = authSettings{token: cfg.Auth.Token, bypass: cfg.Auth.NoAuthBypass}
	limiterInstance = NewIPRateLimiter(rate.Limit(cfg.Server.RateLimitPerSecond), cfg.Server.RateLimitBurst)
}

func currentAuth() authSettings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return auth
}

func currentLimiter() *IPRateLimiter {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return limiterInstance
}

func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: 200} //metrics
		re := processRequest(requestResponseStruct{req: r, writer: rec})

		if !re.badRequest.isBadRequest {
			next(rec, re.req)
		}
		metrics.HttpRequestsTotal.WithLabelValues(routePattern(r), strconv.Itoa(rec.Status)).Inc() //metrics
	}
}

// routePattern keeps ids out of the metric labels.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re = injectTrace(re)
	if handleBadRequest(re) {
		return re
	}
	re.logger.Info("New request received", "method", re.req.Method, "path", re.req.URL.Path)

	re = authenticate(re)
	if handleBadRequest(re) {
		return re
	}
	re = rateLimiter(re)
	handleBadRequest(re)
	return re
}

// Handlers ------------------------------------

// Routes mounts h behind the trace, auth and rate limit chain.
func Routes(r chi.Router, h *handlers.Handler) {
	r.Post("/sessions", Wrap(h.CreateSessionHandler))
	r.Get("/sessions", Wrap(h.ListSessionsHandler))
	r.Get("/sessions/{id}", Wrap(h.GetSessionHandler))
	r.Delete("/sessions/{id}", Wrap(h.DeleteSessionHandler))
	r.Post("/sessions/{id}/reset", Wrap(h.ResetSessionHandler))
	r.Post("/sessions/{id}/documents", Wrap(h.PostDocumentsHandler))
	r.Get("/sessions/{id}/history", Wrap(h.GetHistoryHandler))
	r.Post("/chat", Wrap(h.ChatHandler))
	r.Get("/status/{id}", Wrap(h.GetStatusHandler))
	r.Get("/health", handlers.GetHandler)
}
