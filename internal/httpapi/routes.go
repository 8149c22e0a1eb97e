package httpapi

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/DoyleJ11/cheat-yahtzee-backend/internal/match"
	"github.com/DoyleJ11/cheat-yahtzee-backend/internal/ws"
)

type Options struct {
	// PublicURL is the link players scan from /join.png.
	PublicURL      string
	AllowedOrigins []string
	Logger         *zap.Logger
}

func SetupRoutes(m *match.Match, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/state", State(m))
	r.Get("/join.png", JoinQR(opts.PublicURL))
	r.Get("/ws", ws.Handler(m, ws.Options{
		OriginPatterns: originPatterns(opts.AllowedOrigins),
		Logger:         opts.Logger,
	}))

	c := cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}

// originPatterns converts CORS origins into the host patterns the websocket
// origin check expects.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}
