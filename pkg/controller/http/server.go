package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ponderbot/ponder/pkg/usecase"
	"github.com/ponderbot/ponder/pkg/utils/logging"
	"github.com/ponderbot/ponder/pkg/utils/safe"
)

type Server struct {
	router         *chi.Mux
	webhookHandler *SlackWebhookHandler
	signingSecret  string
	oauthUC        *usecase.OAuthUseCase
}

type Options func(*Server)

// WithSlackWebhook mounts the Events API endpoint behind signature
// verification.
func WithSlackWebhook(handler *SlackWebhookHandler, signingSecret string) Options {
	return func(s *Server) {
		s.webhookHandler = handler
		s.signingSecret = signingSecret
	}
}

// WithOAuth mounts the install and callback endpoints.
func WithOAuth(oauthUC *usecase.OAuthUseCase) Options {
	return func(s *Server) {
		s.oauthUC = oauthUC
	}
}

func New(opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", homeHandler)
	r.Get("/health", healthHandler)

	if s.webhookHandler != nil {
		r.Route("/slack/events", func(r chi.Router) {
			r.Use(SlackSignatureMiddleware(s.signingSecret))
			r.Post("/", s.webhookHandler.ServeHTTP)
		})
	}

	if s.oauthUC != nil {
		r.Get("/slack/install", installHandler(s.oauthUC))
		r.Get("/slack/oauth_redirect", oauthRedirectHandler(s.oauthUC))
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	safe.Write(r.Context(), w, []byte(`<html><body>
<h1>Ponder</h1>
<p>A Slack bot that stops to think.</p>
<p><a href="/slack/install">Install to your workspace</a></p>
</body></html>`))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	safe.Write(r.Context(), w, []byte(`{"status":"ok"}`))
}
